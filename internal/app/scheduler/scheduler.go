// Package scheduler запускает пакетные задачи витрины по расписанию cron:
// истечение подписок, напоминания, сверку с медиасервером и чистку сессий.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/media-storefront/internal/app/platform"
	"github.com/magabrotheeeer/media-storefront/internal/config"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
	"github.com/magabrotheeeer/media-storefront/internal/services/admin"
	"github.com/magabrotheeeer/media-storefront/internal/services/sweep"
)

const shutdownTimeout = 15 * time.Second

// Job пакетная задача, возвращающая итог прогона.
type Job interface {
	Run(ctx context.Context) (models.SweepSummary, error)
}

// SessionPurger чистка истёкших сессий администратора.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Entry задача и её расписание.
type Entry struct {
	Name     string
	Schedule string
	Job      Job
}

// App представляет приложение планировщика.
type App struct {
	cron     *cron.Cron
	metrics  *http.Server
	platform *platform.Platform
	logger   *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	p, err := platform.Open(ctx, cfg, logger, platform.Options{Registerer: registry})
	if err != nil {
		return nil, err
	}

	opts := sweep.Options{
		BatchSize:        cfg.Sweep.BatchSize,
		Concurrency:      cfg.Sweep.Concurrency,
		OperationTimeout: cfg.Sweep.OperationTimeout,
	}
	entries := []Entry{
		{
			Name:     sweep.JobExpire,
			Schedule: cfg.Scheduler.SweepSchedule,
			Job:      sweep.NewSweeper(logger, p.DB, p.Lifecycle, p.Metrics, opts),
		},
		{
			Name:     sweep.JobReminders,
			Schedule: cfg.Scheduler.ReminderSchedule,
			Job:      sweep.NewReminders(logger, p.DB, p.Dispatcher, p.Cache, p.Metrics, opts, cfg.Sweep.ReminderDays),
		},
		{
			Name:     sweep.JobReconcile,
			Schedule: cfg.Scheduler.ReconcileSchedule,
			Job:      sweep.NewReconciler(logger, p.DB, p.Lifecycle, p.Metrics, opts),
		},
	}
	sessions := admin.New(logger, cfg.Admin, p.DB, p.Cache)

	c, err := NewCron(ctx, logger, entries, cfg.Scheduler.SessionSchedule, sessions)
	if err != nil {
		p.Close()
		return nil, err
	}

	return &App{
		cron: c,
		metrics: &http.Server{
			Addr:              cfg.Scheduler.MetricsAddress,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		},
		platform: p,
		logger:   logger,
	}, nil
}

// NewCron регистрирует задачи. Следующий запуск задачи пропускается, пока не закончился предыдущий.
func NewCron(ctx context.Context, logger *slog.Logger, entries []Entry, sessionSchedule string, sessions SessionPurger) (*cron.Cron, error) {
	const op = "scheduler.NewCron"
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	for _, e := range entries {
		if _, err := c.AddFunc(e.Schedule, runJob(ctx, logger, e)); err != nil {
			return nil, fmt.Errorf("%s: schedule %s: %w", op, e.Name, err)
		}
		logger.Info("scheduled job", slog.String("job", e.Name), slog.String("schedule", e.Schedule))
	}

	if sessions != nil && sessionSchedule != "" {
		_, err := c.AddFunc(sessionSchedule, func() {
			if _, err := sessions.PurgeExpired(ctx); err != nil {
				logger.Error("failed to purge admin sessions", sl.Err(err))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("%s: schedule sessions: %w", op, err)
		}
		logger.Info("scheduled job", slog.String("job", "sessions"), slog.String("schedule", sessionSchedule))
	}
	return c, nil
}

func runJob(ctx context.Context, logger *slog.Logger, e Entry) func() {
	log := logger.With(slog.String("job", e.Name))
	return func() {
		if ctx.Err() != nil {
			return
		}
		summary, err := e.Job.Run(ctx)
		if err != nil {
			log.Error("job failed",
				slog.Int("total", summary.Total),
				slog.Int("failed", summary.Failed),
				sl.Err(err))
			return
		}
		log.Info("job finished",
			slog.Int("total", summary.Total),
			slog.Int("succeeded", summary.Succeeded),
			slog.Int("failed", summary.Failed),
			slog.String("execution_time", summary.ExecutionTime))
	}
}

// Run запускает планировщик и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.cron.Start()
	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.metrics.Addr))
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutting down scheduler service")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	select {
	case <-a.cron.Stop().Done():
	case <-timeoutCtx.Done():
		a.logger.Warn("running jobs did not finish before shutdown timeout")
	}
	if err := a.metrics.Shutdown(timeoutCtx); err != nil {
		a.logger.Error("failed to stop metrics server", sl.Err(err))
	}
	a.platform.Close()
	return nil
}
