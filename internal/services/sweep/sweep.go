// Package sweep содержит пакетные задачи над подписками: истечение просроченных,
// напоминания об окончании и сверку с медиасервером.
//
// Каждая задача обрабатывает аккаунты параллельно с ограничением, ошибка одного аккаунта
// не прерывает остальные и попадает в итог как "<userId>: <error>".
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// Названия задач в логах и метриках.
const (
	JobExpire    = "expire"
	JobReminders = "reminders"
	JobReconcile = "reconcile"
)

// DefaultBatchSize размер выборки по умолчанию.
const DefaultBatchSize = 100

// Metrics учёт прогонов.
type Metrics interface {
	ObserveSweep(job string, total, succeeded, failed int, elapsed time.Duration)
}

// Options общие параметры задач.
type Options struct {
	BatchSize        int
	Concurrency      int
	OperationTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	return o
}

// outcome результат обработки одного аккаунта.
type outcome struct {
	userID string
	err    error
}

// fanOut вызывает fn для каждого пользователя не более чем в opts.Concurrency горутинах.
// Ошибки не отменяют соседей: errgroup используется только как ограничитель.
func fanOut(ctx context.Context, opts Options, users []*models.User,
	fn func(ctx context.Context, u *models.User) error) []outcome {
	results := make([]outcome, len(users))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, u := range users {
		g.Go(func() error {
			opCtx, cancel := operationContext(ctx, opts.OperationTimeout)
			defer cancel()
			results[i] = outcome{userID: u.ID, err: fn(opCtx, u)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func operationContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// tally добавляет результаты в итог и логирует ошибки.
func tally(log *slog.Logger, summary *models.SweepSummary, results []outcome) {
	for _, r := range results {
		summary.Total++
		if r.err == nil {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", r.userID, r.err))
		log.Error("account failed", sl.User(r.userID), sl.Err(r.err))
	}
}

func finish(log *slog.Logger, metrics Metrics, job string, summary *models.SweepSummary, started time.Time) {
	elapsed := time.Since(started)
	summary.ExecutionTime = elapsed.Round(time.Millisecond).String()
	if metrics != nil {
		metrics.ObserveSweep(job, summary.Total, summary.Succeeded, summary.Failed, elapsed)
	}
	log.Info("job finished",
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.String("execution_time", summary.ExecutionTime))
}
