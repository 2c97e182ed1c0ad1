package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// LinkedLister постраничный обход пользователей с аккаунтом на медиасервере.
type LinkedLister interface {
	ListLinkedUsers(ctx context.Context, afterID string, limit int) ([]*models.User, error)
}

type AccountReconciler interface {
	Reconcile(ctx context.Context, userID string) (bool, error)
}

// Reconciler приводит статусы записей к состоянию аккаунтов на медиасервере.
type Reconciler struct {
	repo       LinkedLister
	reconciler AccountReconciler
	metrics    Metrics
	log        *slog.Logger
	opts       Options
}

func NewReconciler(log *slog.Logger, repo LinkedLister, reconciler AccountReconciler, metrics Metrics, opts Options) *Reconciler {
	return &Reconciler{
		repo:       repo,
		reconciler: reconciler,
		metrics:    metrics,
		log:        log,
		opts:       opts.withDefaults(),
	}
}

// Run обходит всех привязанных пользователей страницами по BatchSize.
func (r *Reconciler) Run(ctx context.Context) (summary models.SweepSummary, err error) {
	const op = "sweep.Reconciler.Run"
	log := r.log.With(slog.String("op", op), slog.String("job", JobReconcile))
	started := time.Now()

	summary = models.SweepSummary{Errors: []string{}}
	defer func() { finish(log, r.metrics, JobReconcile, &summary, started) }()

	var changed atomic.Int64
	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("%s: %w", op, err)
		}
		users, err := r.repo.ListLinkedUsers(ctx, afterID, r.opts.BatchSize)
		if err != nil {
			log.Error("failed to list linked users", sl.Err(err))
			return summary, fmt.Errorf("%s: %w", op, err)
		}
		if len(users) == 0 {
			break
		}

		results := fanOut(ctx, r.opts, users, func(ctx context.Context, u *models.User) error {
			ok, err := r.reconciler.Reconcile(ctx, u.ID)
			if ok {
				changed.Add(1)
			}
			return err
		})
		tally(log, &summary, results)

		if len(users) < r.opts.BatchSize {
			break
		}
		afterID = users[len(users)-1].ID
	}

	log.Info("reconciliation changed records", slog.Int64("changed", changed.Load()))
	return summary, nil
}
