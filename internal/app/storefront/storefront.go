package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/media-storefront/internal/app/platform"
	"github.com/magabrotheeeer/media-storefront/internal/config"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/health"
	"github.com/magabrotheeeer/media-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/media-storefront/internal/ratelimit"
	"github.com/magabrotheeeer/media-storefront/internal/services/account"
	"github.com/magabrotheeeer/media-storefront/internal/services/admin"
	"github.com/magabrotheeeer/media-storefront/internal/services/auth"
	"github.com/magabrotheeeer/media-storefront/internal/services/sweep"
)

const (
	shutdownTimeout = 15 * time.Second
	rateLimitPrefix = "storefront:ratelimit"
)

type App struct {
	server   *http.Server
	logger   *slog.Logger
	platform *platform.Platform
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p, err := platform.Open(ctx, cfg, logger, platform.Options{RunMigrations: true, Registerer: registry})
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	svc := Services{
		Auth:       auth.NewAuthService(logger, p.DB, p.Emby, jwtMaker),
		Account:    account.New(logger, p.DB, p.Emby, p.Dispatcher, p.Plans),
		Admin:      admin.New(logger, cfg.Admin, p.DB, p.Cache),
		Lifecycle:  p.Lifecycle,
		Sweeper:    sweep.NewSweeper(logger, p.DB, p.Lifecycle, p.Metrics, sweepOptions(cfg.Sweep)),
		Dispatcher: p.Dispatcher,
		Plans:      p.Plans,
		Limiter:    ratelimit.New(p.Cache.Db, rateLimitPrefix, cfg.RateLimit.Limit, cfg.RateLimit.Window),
		Metrics:    p.Metrics,
		Checkers: map[string]health.Checker{
			"postgres": p.DB,
			"redis":    p.Cache,
		},
		Gatherer: registry,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, svc, RouteOptions{
		CronSecret:   cfg.CronSecret,
		SecureCookie: cfg.Admin.SecureCookie,
		Details:      !cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		platform: p,
	}, nil
}

func sweepOptions(cfg config.Sweep) sweep.Options {
	return sweep.Options{
		BatchSize:        cfg.BatchSize,
		Concurrency:      cfg.Concurrency,
		OperationTimeout: cfg.OperationTimeout,
	}
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.platform.Close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.platform.Close()
		return err
	}
}
