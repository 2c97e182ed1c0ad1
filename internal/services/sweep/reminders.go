package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/media-storefront/internal/lib/month"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// ExpiringFinder выборка подписок, заканчивающихся в окне.
type ExpiringFinder interface {
	FindExpiringSubscriptions(ctx context.Context, from, to time.Time, limit int) ([]*models.User, error)
}

// Notifier отправка уведомлений.
type Notifier interface {
	Send(ctx context.Context, userID string, typ models.NotificationType, data models.TemplateData) error
}

// Marker одноразовые отметки об отправленных напоминаниях.
type Marker interface {
	SetOnce(ctx context.Context, key string, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

// Reminders напоминает об окончании подписки за Days дней. Одно напоминание на дату окончания.
type Reminders struct {
	repo     ExpiringFinder
	notifier Notifier
	marker   Marker
	metrics  Metrics
	log      *slog.Logger
	opts     Options
	days     int
	now      func() time.Time
}

func NewReminders(log *slog.Logger, repo ExpiringFinder, notifier Notifier, marker Marker, metrics Metrics,
	opts Options, days int) *Reminders {
	if days <= 0 {
		days = 3
	}
	return &Reminders{
		repo:     repo,
		notifier: notifier,
		marker:   marker,
		metrics:  metrics,
		log:      log,
		opts:     opts.withDefaults(),
		days:     days,
		now:      time.Now,
	}
}

func (r *Reminders) Run(ctx context.Context) (summary models.SweepSummary, err error) {
	const op = "sweep.Reminders.Run"
	log := r.log.With(slog.String("op", op), slog.String("job", JobReminders))
	started := time.Now()

	summary = models.SweepSummary{Errors: []string{}}
	defer func() { finish(log, r.metrics, JobReminders, &summary, started) }()

	now := r.now().UTC()
	window := time.Duration(r.days) * 24 * time.Hour
	users, err := r.repo.FindExpiringSubscriptions(ctx, now, now.Add(window), r.opts.BatchSize)
	if err != nil {
		log.Error("failed to find expiring subscriptions", sl.Err(err))
		return summary, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("found expiring subscriptions", slog.Int("count", len(users)))

	results := fanOut(ctx, r.opts, users, func(ctx context.Context, u *models.User) error {
		return r.remind(ctx, now, window, u)
	})
	tally(log, &summary, results)
	return summary, nil
}

func (r *Reminders) remind(ctx context.Context, now time.Time, window time.Duration, u *models.User) error {
	if u.SubscriptionEnd == nil {
		return nil
	}
	key := reminderKey(u.ID, *u.SubscriptionEnd)
	first, err := r.marker.SetOnce(ctx, key, window+24*time.Hour)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	err = r.notifier.Send(ctx, u.ID, models.NotificationSubscriptionExpiringSoon, models.TemplateData{
		Plan:     u.PlanName(),
		DaysLeft: month.DaysLeft(now, *u.SubscriptionEnd),
	})
	if err != nil {
		// Снимаем отметку, чтобы следующий запуск попробовал ещё раз.
		if invErr := r.marker.Invalidate(context.WithoutCancel(ctx), key); invErr != nil {
			r.log.Warn("failed to drop reminder marker", slog.String("key", key), sl.Err(invErr))
		}
		return err
	}
	return nil
}

func reminderKey(userID string, end time.Time) string {
	return "reminder:" + userID + ":" + end.UTC().Format(time.DateOnly)
}
