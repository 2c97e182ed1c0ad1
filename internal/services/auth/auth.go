// Package auth отвечает за учётные записи покупателей: регистрацию с созданием
// аккаунта на медиасервере, вход по email и паролю, проверку JWT и смену пароля.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/media-storefront/internal/lib/password"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// UserRepository описывает контракт для работы с пользователями и учётными данными в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	SetExternalMediaUserID(ctx context.Context, id, externalID string) error

	CreateIdentity(ctx context.Context, userID, email, passwordHash string) error
	GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// MediaAccounts аккаунты покупателей на медиасервере.
type MediaAccounts interface {
	CreateAccount(ctx context.Context, name, password string) (string, error)
	DeleteAccount(ctx context.Context, id string) error
	SetPassword(ctx context.Context, id, password string) error
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	media    MediaAccounts
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(log *slog.Logger, users UserRepository, media MediaAccounts, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		media:    media,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создаёт пользователя со статусом inactive, отключённый аккаунт на медиасервере
// с тем же паролем и учётные данные для входа. Возвращает токен и созданного пользователя.
//
// Если какой-то шаг не удался, уже созданное удаляется в обратном порядке.
func (s *AuthService) Register(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "auth.Register"

	email, err := normalizeEmail(email)
	if err != nil {
		return "", nil, err
	}
	if err := validatePassword(rawPassword); err != nil {
		return "", nil, err
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	log := s.log.With(slog.String("op", op))

	user, err := s.users.CreateUser(ctx, email)
	if err != nil {
		return "", nil, errs.Persistence(op, err)
	}
	log = log.With(sl.User(user.ID))

	mediaID, err := s.media.CreateAccount(ctx, email, rawPassword)
	if err != nil {
		log.Error("failed to create media account", sl.Err(err))
		return "", nil, s.rollback(ctx, log, user.ID, "", err)
	}
	if err := s.users.SetExternalMediaUserID(ctx, user.ID, mediaID); err != nil {
		log.Error("failed to link media account", sl.Err(err))
		return "", nil, s.rollback(ctx, log, user.ID, mediaID, errs.Persistence(op, err))
	}
	if err := s.users.CreateIdentity(ctx, user.ID, email, hashed); err != nil {
		log.Error("failed to save credentials", sl.Err(err))
		return "", nil, s.rollback(ctx, log, user.ID, mediaID, errs.Persistence(op, err))
	}
	user.ExternalMediaUserID = &mediaID

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("customer registered", slog.String("media_user_id", mediaID))
	return token, user, nil
}

// rollback удаляет то, что успела создать регистрация, и возвращает исходную ошибку.
func (s *AuthService) rollback(ctx context.Context, log *slog.Logger, userID, mediaID string, cause error) error {
	ctx = context.WithoutCancel(ctx)
	if mediaID != "" {
		if err := s.media.DeleteAccount(ctx, mediaID); err != nil {
			log.Error("failed to remove media account during rollback", sl.Err(err))
		}
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		log.Error("failed to remove user during rollback", sl.Err(err))
	}
	return cause
}

// Login проверяет пароль пользователя и выпускает JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "auth.Login"

	identity, err := s.users.GetIdentityByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", &errs.UnauthorizedError{Reason: "invalid credentials"}
		}
		return "", errs.Persistence(op, err)
	}
	if err := password.CompareHash(identity.PasswordHash, rawPassword); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Error("failed to compare password hash", slog.String("op", op), sl.Err(err))
		}
		return "", &errs.UnauthorizedError{Reason: "invalid credentials"}
	}

	token, err := s.jwtMaker.GenerateToken(identity.UserID, identity.Email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ValidateToken проверяет JWT и возвращает данные покупателя.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, &errs.UnauthorizedError{Reason: "invalid token"}
	}
	return claims, nil
}

// ChangePassword меняет пароль на медиасервере и затем в учётных данных.
func (s *AuthService) ChangePassword(ctx context.Context, userID, rawPassword string) error {
	const op = "auth.ChangePassword"

	if err := validatePassword(rawPassword); err != nil {
		return err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return errs.Persistence(op, err)
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log := s.log.With(slog.String("op", op), sl.User(userID))
	if mediaID := user.MediaUserID(); mediaID != "" {
		if err := s.media.SetPassword(ctx, mediaID, rawPassword); err != nil {
			log.Error("failed to change media password", sl.Err(err))
			return err
		}
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hashed); err != nil {
		log.Error("media password changed but credentials were not updated", sl.Err(err))
		return errs.Persistence(op, err)
	}
	log.Info("password changed")
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errs.Validation("email", "must be a valid email address")
	}
	return email, nil
}

func validatePassword(raw string) error {
	if len(raw) < password.MinLength {
		return errs.Validation("password", fmt.Sprintf("must be at least %d characters", password.MinLength))
	}
	return nil
}
