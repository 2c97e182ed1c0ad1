// Package admin управляет сессиями администратора витрины.
//
// Учётная запись одна: имя и bcrypt-хэш пароля берутся из конфига. Сессия это
// непрозрачный uuid-токен в таблице admin_sessions, закэшированный в Redis до истечения.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/media-storefront/internal/config"
	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/lib/password"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// DefaultSessionTTL срок жизни сессии, если в конфиге не задан.
const DefaultSessionTTL = 24 * time.Hour

type SessionRepository interface {
	CreateAdminSession(ctx context.Context, s models.AdminSession) error
	GetAdminSession(ctx context.Context, token string) (*models.AdminSession, error)
	DeleteAdminSession(ctx context.Context, token string) error
	DeleteExpiredAdminSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionCache кэш сессий.
type SessionCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type Service struct {
	repo  SessionRepository
	cache SessionCache
	cfg   config.Admin
	log   *slog.Logger
	now   func() time.Time
}

func New(log *slog.Logger, cfg config.Admin, repo SessionRepository, cache SessionCache) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	return &Service{
		repo:  repo,
		cache: cache,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// Login проверяет имя и пароль администратора и открывает сессию.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (*models.AdminSession, error) {
	const op = "admin.Login"
	log := s.log.With(slog.String("op", op))

	if s.cfg.Username == "" || s.cfg.PasswordHash == "" {
		log.Error("admin credentials are not configured")
		return nil, &errs.UnauthorizedError{Reason: "invalid credentials"}
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	passErr := password.CompareHash(s.cfg.PasswordHash, rawPassword)
	if !userOK || passErr != nil {
		if passErr != nil && !errors.Is(passErr, password.ErrMismatch) {
			log.Error("failed to compare admin password", sl.Err(passErr))
		}
		log.Warn("admin login rejected", slog.String("username", username))
		return nil, &errs.UnauthorizedError{Reason: "invalid credentials"}
	}

	session := models.AdminSession{
		Token:     uuid.NewString(),
		Username:  s.cfg.Username,
		ExpiresAt: s.now().UTC().Add(s.cfg.SessionTTL),
	}
	if err := s.repo.CreateAdminSession(ctx, session); err != nil {
		return nil, errs.Persistence(op, err)
	}
	s.cacheSession(ctx, session)

	log.Info("admin logged in", slog.Time("expires_at", session.ExpiresAt))
	return &session, nil
}

// Validate возвращает сессию по токену. Отсутствующая или истёкшая сессия даёт UnauthorizedError.
func (s *Service) Validate(ctx context.Context, token string) (*models.AdminSession, error) {
	const op = "admin.Validate"

	if token == "" {
		return nil, &errs.UnauthorizedError{Reason: "missing session"}
	}
	if _, err := uuid.Parse(token); err != nil {
		return nil, &errs.UnauthorizedError{Reason: "invalid session"}
	}
	now := s.now()

	var cached models.AdminSession
	found, err := s.cache.Get(ctx, cacheKey(token), &cached)
	if err != nil {
		s.log.Warn("session cache unavailable", slog.String("op", op), sl.Err(err))
	}
	if found && now.Before(cached.ExpiresAt) {
		return &cached, nil
	}

	session, err := s.repo.GetAdminSession(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, &errs.UnauthorizedError{Reason: "invalid session"}
		}
		return nil, errs.Persistence(op, err)
	}
	if !now.Before(session.ExpiresAt) {
		if err := s.repo.DeleteAdminSession(ctx, token); err != nil {
			s.log.Warn("failed to delete expired session", slog.String("op", op), sl.Err(err))
		}
		return nil, &errs.UnauthorizedError{Reason: "session expired"}
	}
	s.cacheSession(ctx, *session)
	return session, nil
}

// Logout закрывает сессию. Повторный вызов безопасен.
// Кэш очищается до базы. Если Redis недоступен, сессия не трогается и возвращается ошибка.
func (s *Service) Logout(ctx context.Context, token string) error {
	const op = "admin.Logout"
	if err := s.cache.Invalidate(ctx, cacheKey(token)); err != nil {
		return errs.Persistence(op, err)
	}
	if err := s.repo.DeleteAdminSession(ctx, token); err != nil {
		return errs.Persistence(op, err)
	}
	return nil
}

// PurgeExpired удаляет истёкшие сессии из базы.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	const op = "admin.PurgeExpired"
	n, err := s.repo.DeleteExpiredAdminSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		s.log.Info("expired admin sessions removed", slog.Int64("count", n))
	}
	return n, nil
}

// TTL срок жизни сессии, нужен для cookie.
func (s *Service) TTL() time.Duration {
	return s.cfg.SessionTTL
}

func (s *Service) cacheSession(ctx context.Context, session models.AdminSession) {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(session.Token), session, ttl); err != nil {
		s.log.Warn("failed to cache admin session", sl.Err(err))
	}
}

func cacheKey(token string) string {
	return "admin_session:" + token
}
