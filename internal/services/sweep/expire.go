package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// ExpiredFinder выборка просроченных активных подписок.
type ExpiredFinder interface {
	FindExpiredSubscriptions(ctx context.Context, now time.Time, limit int) ([]*models.User, error)
}

// Expirer истечение одной подписки с повторной проверкой под блокировкой.
type Expirer interface {
	ExpireLapsed(ctx context.Context, userID string) (bool, error)
}

// Sweeper истекает подписки, срок которых прошёл.
type Sweeper struct {
	repo    ExpiredFinder
	expirer Expirer
	metrics Metrics
	log     *slog.Logger
	opts    Options
	now     func() time.Time
}

func NewSweeper(log *slog.Logger, repo ExpiredFinder, expirer Expirer, metrics Metrics, opts Options) *Sweeper {
	return &Sweeper{
		repo:    repo,
		expirer: expirer,
		metrics: metrics,
		log:     log,
		opts:    opts.withDefaults(),
		now:     time.Now,
	}
}

// Run обрабатывает одну выборку размером не больше BatchSize.
// Остаток подхватит следующий запуск. При ошибке выборки возвращается частичный итог.
func (s *Sweeper) Run(ctx context.Context) (summary models.SweepSummary, err error) {
	const op = "sweep.Sweeper.Run"
	log := s.log.With(slog.String("op", op), slog.String("job", JobExpire))
	started := time.Now()

	summary = models.SweepSummary{Errors: []string{}}
	defer func() { finish(log, s.metrics, JobExpire, &summary, started) }()

	users, err := s.repo.FindExpiredSubscriptions(ctx, s.now().UTC(), s.opts.BatchSize)
	if err != nil {
		log.Error("failed to find expired subscriptions", sl.Err(err))
		return summary, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("found expired subscriptions", slog.Int("count", len(users)))

	results := fanOut(ctx, s.opts, users, func(ctx context.Context, u *models.User) error {
		_, err := s.expirer.ExpireLapsed(ctx, u.ID)
		return err
	})
	tally(log, &summary, results)
	return summary, nil
}
