// Package lifecycle единственное место, где меняются поля подписки пользователя:
// статус, дата окончания, тариф, срок и лимит устройств.
//
// Каждая операция выполняется под блокировкой на пользователя. Доступ на медиасервере
// меняется первым: если его не удалось включить или отключить, запись не трогается.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/media-storefront/internal/emby"
	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/lib/month"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
	"github.com/magabrotheeeer/media-storefront/internal/plans"
)

// Repository методы хранилища, доступные только жизненному циклу.
type Repository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ApplyActivation(ctx context.Context, a models.Activation) (models.Transaction, error)
	ResetSubscription(ctx context.Context, id string, status models.SubscriptionStatus) error
	SetSubscriptionStatus(ctx context.Context, id string, from, to models.SubscriptionStatus) error
}

// MediaService управление доступом на медиасервере.
type MediaService interface {
	SetPolicy(ctx context.Context, id string, p emby.Policy) error
	GetStatus(ctx context.Context, id string) (bool, error)
}

// Notifier отправка уведомлений. Ошибки не фатальны.
type Notifier interface {
	Send(ctx context.Context, userID string, typ models.NotificationType, data models.TemplateData) error
}

// Locker блокировка на ключ.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type Metrics interface {
	ObserveLifecycle(operation string, err error)
	IncExpired()
}

// Deps зависимости Manager.
type Deps struct {
	Repo     Repository
	Media    MediaService
	Notifier Notifier
	Locker   Locker
	Plans    *plans.Catalog
	Metrics  Metrics
}

// ActivateRequest параметры активации.
type ActivateRequest struct {
	UserID              string
	ExternalMediaUserID string
	Plan                string
	Duration            int
	Amount              int64
}

type Manager struct {
	repo     Repository
	media    MediaService
	notifier Notifier
	locker   Locker
	plans    *plans.Catalog
	metrics  Metrics
	log      *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// New создаёт Manager. timeout ограничивает каждый вызов медиасервера.
func New(log *slog.Logger, deps Deps, timeout time.Duration) *Manager {
	catalog := deps.Plans
	if catalog == nil {
		catalog = plans.Default()
	}
	return &Manager{
		repo:     deps.Repo,
		media:    deps.Media,
		notifier: deps.Notifier,
		locker:   deps.Locker,
		plans:    catalog,
		metrics:  deps.Metrics,
		log:      log,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Activate включает доступ по тарифу на duration месяцев и возвращает новую дату окончания.
//
// Если подписка уже активна, срок прибавляется к текущей дате окончания (продление),
// иначе к текущему моменту. Повторный вызов создаёт ещё одну запись в журнале и продлевает срок ещё раз.
func (m *Manager) Activate(ctx context.Context, req ActivateRequest) (end time.Time, err error) {
	const op = "lifecycle.Activate"
	defer func() { m.observe("activate", err) }()

	if err := validateIDs(req.UserID, req.ExternalMediaUserID); err != nil {
		return time.Time{}, err
	}
	if !plans.ValidDuration(req.Duration) {
		return time.Time{}, errs.Validation("duration", fmt.Sprintf("must be one of %v", plans.AllowedDurations))
	}
	if req.Amount < 0 {
		return time.Time{}, errs.Validation("amount", "must not be negative")
	}
	plan, err := m.plans.Resolve(req.Plan)
	if err != nil {
		return time.Time{}, err
	}

	log := m.log.With(slog.String("op", op), sl.User(req.UserID))

	unlock, err := m.locker.Lock(ctx, lockKey(req.UserID))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	user, err := m.repo.GetUser(ctx, req.UserID)
	if err != nil {
		return time.Time{}, errs.Persistence(op, err)
	}

	now := m.now().UTC()
	upgrade := user.SubscriptionStatus == models.StatusActive
	end = month.SubscriptionEnd(now, user.SubscriptionEnd, upgrade, req.Duration)

	policy := emby.Policy{Enabled: true, DeviceLimit: plan.DeviceLimit, MaxBitrate: plan.MaxBitrate}
	if err := m.setPolicy(ctx, req.ExternalMediaUserID, policy); err != nil {
		log.Error("failed to enable media account", sl.Err(err))
		return time.Time{}, err
	}

	txn := models.Transaction{
		UserID:   req.UserID,
		Plan:     plan.Name,
		Duration: req.Duration,
		Amount:   req.Amount,
		Type:     models.TransactionNew,
		Date:     now,
	}
	if upgrade {
		txn.Type = models.TransactionUpgrade
		txn.PreviousPlan = user.Plan
	}
	_, err = m.repo.ApplyActivation(ctx, models.Activation{
		UserID:         req.UserID,
		ExpectedStatus: user.SubscriptionStatus,
		Plan:           plan.Name,
		Duration:       req.Duration,
		DeviceLimit:    plan.DeviceLimit,
		End:            end,
		Transaction:    txn,
	})
	if err != nil {
		log.Error("failed to persist activation", sl.Err(err))
		return time.Time{}, errs.Persistence(op, err)
	}

	log.Info("subscription activated",
		slog.String("plan", plan.Name),
		slog.Int("duration", req.Duration),
		slog.Bool("upgrade", upgrade),
		slog.Time("end", end))

	m.notify(ctx, req.UserID, models.NotificationSubscriptionActivated, models.TemplateData{
		Plan:      plan.Name,
		Duration:  req.Duration,
		Amount:    req.Amount,
		IsUpgrade: upgrade,
	})
	return end, nil
}

// Expire отключает доступ и переводит подписку в expired, очищая дату окончания и тариф.
// Повторный вызов для уже истёкшей подписки безопасен.
func (m *Manager) Expire(ctx context.Context, userID, externalMediaUserID string) (err error) {
	defer func() { m.observe("expire", err) }()
	return m.revoke(ctx, "lifecycle.Expire", userID, externalMediaUserID, models.StatusExpired)
}

// Deactivate то же, что Expire, но выставляет inactive и не отправляет уведомление.
func (m *Manager) Deactivate(ctx context.Context, userID, externalMediaUserID string) (err error) {
	defer func() { m.observe("deactivate", err) }()
	return m.revoke(ctx, "lifecycle.Deactivate", userID, externalMediaUserID, models.StatusInactive)
}

func (m *Manager) revoke(ctx context.Context, op, userID, externalMediaUserID string, status models.SubscriptionStatus) error {
	if err := validateIDs(userID, externalMediaUserID); err != nil {
		return err
	}
	unlock, err := m.locker.Lock(ctx, lockKey(userID))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	user, err := m.repo.GetUser(ctx, userID)
	if err != nil {
		return errs.Persistence(op, err)
	}
	return m.revokeLocked(ctx, op, user, externalMediaUserID, status)
}

func (m *Manager) revokeLocked(ctx context.Context, op string, user *models.User, externalMediaUserID string,
	status models.SubscriptionStatus) error {
	log := m.log.With(slog.String("op", op), sl.User(user.ID))

	if err := m.setPolicy(ctx, externalMediaUserID, emby.Policy{Enabled: false}); err != nil {
		log.Error("failed to disable media account", sl.Err(err))
		return err
	}
	if err := m.repo.ResetSubscription(ctx, user.ID, status); err != nil {
		log.Error("failed to persist subscription reset", sl.Err(err))
		return errs.Persistence(op, err)
	}
	log.Info("subscription revoked", slog.String("status", string(status)))

	if status == models.StatusExpired {
		if m.metrics != nil {
			m.metrics.IncExpired()
		}
		m.notify(ctx, user.ID, models.NotificationSubscriptionExpired, models.TemplateData{
			Plan:     user.PlanName(),
			Duration: user.Duration,
		})
	}
	return nil
}

// ToggleAccess переключает доступ на медиасервере и зеркалит статус active/inactive.
// Дата окончания и тариф не меняются. currentStatus должен совпадать с сохранённым,
// иначе изменение отклоняется как конфликт.
func (m *Manager) ToggleAccess(ctx context.Context, userID, externalMediaUserID string,
	currentStatus models.SubscriptionStatus) (next models.SubscriptionStatus, err error) {
	const op = "lifecycle.ToggleAccess"
	defer func() { m.observe("toggle_access", err) }()

	if err := validateIDs(userID, externalMediaUserID); err != nil {
		return "", err
	}
	if !currentStatus.Valid() {
		return "", errs.Validation("currentStatus", fmt.Sprintf("unknown status %q", currentStatus))
	}
	log := m.log.With(slog.String("op", op), sl.User(userID))

	unlock, err := m.locker.Lock(ctx, lockKey(userID))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	user, err := m.repo.GetUser(ctx, userID)
	if err != nil {
		return "", errs.Persistence(op, err)
	}

	policy := emby.Policy{Enabled: false}
	next = models.StatusInactive
	if currentStatus != models.StatusActive {
		next = models.StatusActive
		policy = emby.Policy{Enabled: true, DeviceLimit: user.DeviceLimit, MaxBitrate: m.bitrateFor(user)}
		if policy.DeviceLimit <= 0 {
			policy.DeviceLimit = 1
		}
	}

	if err := m.setPolicy(ctx, externalMediaUserID, policy); err != nil {
		log.Error("failed to toggle media account", sl.Err(err))
		return "", err
	}
	if err := m.repo.SetSubscriptionStatus(ctx, userID, currentStatus, next); err != nil {
		log.Error("failed to persist toggled status", sl.Err(err))
		return "", errs.Persistence(op, err)
	}

	log.Info("access toggled", slog.String("from", string(currentStatus)), slog.String("to", string(next)))
	return next, nil
}

// ExpireLapsed истекает подписку, если она всё ещё активна и срок прошёл.
// Подписки, продлённые после выборки, пропускаются; тогда возвращается false.
func (m *Manager) ExpireLapsed(ctx context.Context, userID string) (expired bool, err error) {
	const op = "lifecycle.ExpireLapsed"
	defer func() { m.observe("expire_lapsed", err) }()

	unlock, err := m.locker.Lock(ctx, lockKey(userID))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	user, err := m.repo.GetUser(ctx, userID)
	if err != nil {
		return false, errs.Persistence(op, err)
	}
	now := m.now()
	if user.SubscriptionStatus != models.StatusActive || user.SubscriptionEnd == nil || !user.SubscriptionEnd.Before(now) {
		m.log.Info("subscription renewed since selection, skipping",
			slog.String("op", op), sl.User(userID))
		return false, nil
	}
	if user.MediaUserID() == "" {
		return false, errs.Validation("externalMediaUserId", "user has no media account")
	}

	if err := m.revokeLocked(ctx, op, user, user.MediaUserID(), models.StatusExpired); err != nil {
		return false, err
	}
	return true, nil
}

// Reconcile сверяет статус с медиасервером, считая медиасервер источником истины.
// Включённый аккаунт с неактивной записью становится active без изменения даты и тарифа,
// отключённый аккаунт с активной записью становится expired. Возвращает true, если запись изменилась.
func (m *Manager) Reconcile(ctx context.Context, userID string) (changed bool, err error) {
	const op = "lifecycle.Reconcile"
	defer func() { m.observe("reconcile", err) }()

	unlock, err := m.locker.Lock(ctx, lockKey(userID))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	user, err := m.repo.GetUser(ctx, userID)
	if err != nil {
		return false, errs.Persistence(op, err)
	}
	if user.MediaUserID() == "" {
		return false, nil
	}

	callCtx, cancel := m.callContext(ctx)
	enabled, err := m.media.GetStatus(callCtx, user.MediaUserID())
	cancel()
	if err != nil {
		return false, err
	}

	log := m.log.With(slog.String("op", op), sl.User(userID))
	active := user.SubscriptionStatus == models.StatusActive
	switch {
	case enabled && !active:
		if err := m.repo.SetSubscriptionStatus(ctx, userID, user.SubscriptionStatus, models.StatusActive); err != nil {
			return false, errs.Persistence(op, err)
		}
		log.Warn("record activated to match media account", slog.String("from", string(user.SubscriptionStatus)))
		return true, nil
	case !enabled && active:
		if err := m.repo.ResetSubscription(ctx, userID, models.StatusExpired); err != nil {
			return false, errs.Persistence(op, err)
		}
		if m.metrics != nil {
			m.metrics.IncExpired()
		}
		log.Warn("record expired to match disabled media account")
		return true, nil
	}
	return false, nil
}

func (m *Manager) setPolicy(ctx context.Context, id string, p emby.Policy) error {
	callCtx, cancel := m.callContext(ctx)
	defer cancel()
	return m.media.SetPolicy(callCtx, id, p)
}

func (m *Manager) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

func (m *Manager) bitrateFor(user *models.User) int {
	if p, err := m.plans.Resolve(user.PlanName()); err == nil {
		return p.MaxBitrate
	}
	return plans.DefaultBitrate
}

func (m *Manager) notify(ctx context.Context, userID string, typ models.NotificationType, data models.TemplateData) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Send(ctx, userID, typ, data); err != nil {
		m.log.Warn("notification failed",
			sl.User(userID),
			slog.String("type", string(typ)),
			sl.Err(err))
	}
}

func (m *Manager) observe(operation string, err error) {
	if m.metrics != nil {
		m.metrics.ObserveLifecycle(operation, err)
	}
}

func validateIDs(userID, externalMediaUserID string) error {
	if userID == "" {
		return errs.Validation("userId", "is required")
	}
	if externalMediaUserID == "" {
		return errs.Validation("externalMediaUserId", "is required")
	}
	return nil
}

func lockKey(userID string) string {
	return "user:" + userID
}
