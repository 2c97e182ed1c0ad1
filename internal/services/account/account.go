// Package account обслуживает данные покупателей вне жизненного цикла подписки:
// личный кабинет, загрузку и проверку квитанций, список пользователей для админки
// и удаление пользователя из всех систем.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
	"github.com/magabrotheeeer/media-storefront/internal/plans"
)

// Repository методы хранилища без записи полей подписки.
type Repository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	DeleteIdentity(ctx context.Context, userID string) error

	CreateReceipt(ctx context.Context, r models.Receipt) (*models.Receipt, error)
	GetReceipt(ctx context.Context, id string) (*models.Receipt, error)
	ListReceiptsByUser(ctx context.Context, userID string) ([]models.Receipt, error)
	ListReceiptsByUsers(ctx context.Context, userIDs []string) (map[string][]models.Receipt, error)
	SetReceiptStatus(ctx context.Context, id string, status models.ReceiptStatus) error

	ListTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error)
}

// MediaAccounts удаление аккаунта на медиасервере.
type MediaAccounts interface {
	DeleteAccount(ctx context.Context, id string) error
}

// Notifier отправка уведомлений.
type Notifier interface {
	Send(ctx context.Context, userID string, typ models.NotificationType, data models.TemplateData) error
}

// View данные личного кабинета.
type View struct {
	User         *models.User         `json:"user"`
	Receipts     []models.Receipt     `json:"paymentReceipts"`
	Transactions []models.Transaction `json:"transactions"`
}

// Review решение по квитанции. Duration и Reason используются только в письме.
type Review struct {
	ReceiptID string
	Status    models.ReceiptStatus
	Duration  int
	Reason    string
}

type Service struct {
	repo     Repository
	media    MediaAccounts
	notifier Notifier
	plans    *plans.Catalog
	log      *slog.Logger
}

func New(log *slog.Logger, repo Repository, media MediaAccounts, notifier Notifier, catalog *plans.Catalog) *Service {
	if catalog == nil {
		catalog = plans.Default()
	}
	return &Service{
		repo:     repo,
		media:    media,
		notifier: notifier,
		plans:    catalog,
		log:      log,
	}
}

// Account возвращает пользователя с квитанциями и журналом оплат.
func (s *Service) Account(ctx context.Context, userID string) (*View, error) {
	const op = "account.Account"

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, errs.Persistence(op, err)
	}
	receipts, err := s.repo.ListReceiptsByUser(ctx, userID)
	if err != nil {
		return nil, errs.Persistence(op, err)
	}
	transactions, err := s.repo.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, errs.Persistence(op, err)
	}
	if receipts == nil {
		receipts = []models.Receipt{}
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	return &View{User: user, Receipts: receipts, Transactions: transactions}, nil
}

// UploadReceipt сохраняет квитанцию покупателя со статусом pending.
func (s *Service) UploadReceipt(ctx context.Context, userID string, in models.DummyReceipt) (*models.Receipt, error) {
	const op = "account.UploadReceipt"

	date, err := time.Parse(time.DateOnly, in.Date)
	if err != nil {
		return nil, errs.Validation("date", "must be YYYY-MM-DD")
	}
	if in.Amount <= 0 {
		return nil, errs.Validation("amount", "must be positive")
	}
	plan, err := s.plans.Resolve(in.PlanName)
	if err != nil {
		return nil, err
	}

	receipt, err := s.repo.CreateReceipt(ctx, models.Receipt{
		UserID:   userID,
		URL:      strings.TrimSpace(in.URL),
		Date:     date,
		Amount:   in.Amount,
		PlanName: plan.Name,
	})
	if err != nil {
		return nil, errs.Persistence(op, err)
	}
	s.log.Info("receipt uploaded",
		slog.String("op", op),
		sl.User(userID),
		slog.String("receipt_id", receipt.ID))
	return receipt, nil
}

// ReviewReceipt выставляет решение по квитанции и сообщает о нём покупателю.
// Одобрение не активирует подписку, это делает администратор отдельным запросом.
func (s *Service) ReviewReceipt(ctx context.Context, review Review) error {
	const op = "account.ReviewReceipt"

	if review.Status != models.ReceiptApproved && review.Status != models.ReceiptRejected {
		return errs.Validation("status", "must be approved or rejected")
	}
	receipt, err := s.repo.GetReceipt(ctx, review.ReceiptID)
	if err != nil {
		return errs.Persistence(op, err)
	}
	if err := s.repo.SetReceiptStatus(ctx, receipt.ID, review.Status); err != nil {
		return errs.Persistence(op, err)
	}

	log := s.log.With(slog.String("op", op), slog.String("receipt_id", receipt.ID), sl.User(receipt.UserID))
	log.Info("receipt reviewed", slog.String("status", string(review.Status)))

	data := models.TemplateData{
		Plan:     receipt.PlanName,
		Amount:   receipt.Amount,
		Duration: s.durationFor(receipt, review.Duration),
	}
	typ := models.NotificationPaymentReceived
	if review.Status == models.ReceiptRejected {
		typ = models.NotificationPaymentFailed
		data.Reason = review.Reason
	}
	if err := s.notifier.Send(ctx, receipt.UserID, typ, data); err != nil {
		log.Warn("notification failed", slog.String("type", string(typ)), sl.Err(err))
	}
	return nil
}

// durationFor подбирает срок по сумме, если администратор его не указал.
func (s *Service) durationFor(r *models.Receipt, explicit int) int {
	if explicit > 0 {
		return explicit
	}
	plan, err := s.plans.Resolve(r.PlanName)
	if err != nil {
		return 1
	}
	for _, d := range plans.AllowedDurations {
		if plan.Total(d) == r.Amount {
			return d
		}
	}
	return 1
}

// ListUsers возвращает всех пользователей с их квитанциями.
func (s *Service) ListUsers(ctx context.Context) ([]models.UserWithReceipts, error) {
	const op = "account.ListUsers"

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, errs.Persistence(op, err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	receipts, err := s.repo.ListReceiptsByUsers(ctx, ids)
	if err != nil {
		return nil, errs.Persistence(op, err)
	}

	result := make([]models.UserWithReceipts, 0, len(users))
	for _, u := range users {
		r := receipts[u.ID]
		if r == nil {
			r = []models.Receipt{}
		}
		result = append(result, models.UserWithReceipts{User: *u, Receipts: r})
	}
	return result, nil
}

// DeleteUser удаляет пользователя из трёх мест по порядку: учётные данные, аккаунт
// на медиасервере, запись. Первые два шага не останавливают удаление, ошибка записи фатальна.
// Журнал транзакций сохраняется.
func (s *Service) DeleteUser(ctx context.Context, userID, externalMediaUserID string) error {
	const op = "account.DeleteUser"

	if userID == "" {
		return errs.Validation("userId", "is required")
	}
	log := s.log.With(slog.String("op", op), sl.User(userID))

	if err := s.repo.DeleteIdentity(ctx, userID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			log.Info("credentials already removed")
		} else {
			log.Error("failed to delete credentials, continuing", sl.Err(err))
		}
	}

	if externalMediaUserID != "" {
		if err := s.media.DeleteAccount(ctx, externalMediaUserID); err != nil {
			log.Error("failed to delete media account, continuing",
				slog.String("media_user_id", externalMediaUserID), sl.Err(err))
		}
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		log.Error("failed to delete user record", sl.Err(err))
		return fmt.Errorf("%s: %w", op, errs.Persistence(op, err))
	}
	log.Info("user deleted")
	return nil
}
