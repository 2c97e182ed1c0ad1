// Package storefront собирает HTTP API витрины.
package storefront

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/account/password"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/account/receiptupload"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/account/view"
	adminlogin "github.com/magabrotheeeer/media-storefront/internal/http/handlers/admin/login"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/admin/logout"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/admin/receiptreview"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/admin/revoke"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/admin/toggle"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/admin/userdelete"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/health"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/notification/testnotification"
	planslist "github.com/magabrotheeeer/media-storefront/internal/http/handlers/plans/list"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/subscription/activate"
	"github.com/magabrotheeeer/media-storefront/internal/http/handlers/subscription/check"
	"github.com/magabrotheeeer/media-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/ratelimit"
	"github.com/magabrotheeeer/media-storefront/internal/services/account"
	"github.com/magabrotheeeer/media-storefront/internal/services/admin"
	"github.com/magabrotheeeer/media-storefront/internal/services/auth"
	"github.com/magabrotheeeer/media-storefront/internal/services/lifecycle"
	"github.com/magabrotheeeer/media-storefront/internal/services/notification"
	"github.com/magabrotheeeer/media-storefront/internal/services/sweep"
)

// Scope счётчиков ограничителя по маршрутам.
const (
	scopeRegister   = "register"
	scopeLogin      = "login"
	scopeAdminLogin = "admin_login"
	scopeActivate   = "activate"
)

// Services всё, что нужно маршрутам.
type Services struct {
	Auth       *auth.AuthService
	Account    *account.Service
	Admin      *admin.Service
	Lifecycle  *lifecycle.Manager
	Sweeper    *sweep.Sweeper
	Dispatcher *notification.Dispatcher
	Plans      planslist.Catalog
	Limiter    *ratelimit.Limiter
	Metrics    middlewarectx.Metrics
	Checkers   map[string]health.Checker
	Gatherer   prometheus.Gatherer
}

// RouteOptions настройки, зависящие от окружения.
type RouteOptions struct {
	CronSecret   string
	SecureCookie bool
	Details      bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, opts RouteOptions) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middlewarectx.RequestLogger(logger),
		middleware.Recoverer,
		response.WithDetails(opts.Details),
	)

	limit := func(scope string) func(http.Handler) http.Handler {
		return middlewarectx.RateLimitMiddleware(svc.Limiter, scope, svc.Metrics, logger)
	}
	resetOnSuccess := func(scope string) func(http.Handler) http.Handler {
		return middlewarectx.ResetOnSuccess(svc.Limiter, scope, logger)
	}
	adminOnly := middlewarectx.AdminSessionMiddleware(svc.Admin, logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/plans", planslist.New(logger, svc.Plans).ServeHTTP)

		// Покупатель
		r.With(limit(scopeRegister)).Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
		r.With(limit(scopeLogin), resetOnSuccess(scopeLogin)).Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Get("/account", view.New(logger, svc.Account).ServeHTTP)
			r.Post("/account/receipts", receiptupload.New(logger, svc.Account).ServeHTTP)
			r.Post("/account/password", password.New(logger, svc.Auth).ServeHTTP)
		})

		// Внешний cron
		r.With(middlewarectx.CronSecretMiddleware(opts.CronSecret, logger)).
			Get("/check-subscriptions", check.New(logger, svc.Sweeper).ServeHTTP)

		// Администратор
		r.With(limit(scopeAdminLogin), resetOnSuccess(scopeAdminLogin)).
			Post("/admin/login", adminlogin.New(logger, svc.Admin, opts.SecureCookie).ServeHTTP)
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.With(limit(scopeActivate)).Post("/subscription/activate", activate.New(logger, svc.Lifecycle).ServeHTTP)
			r.Post("/test-notification", testnotification.New(logger, svc.Dispatcher).ServeHTTP)

			r.Post("/admin/logout", logout.New(logger, svc.Admin, opts.SecureCookie).ServeHTTP)
			r.Get("/admin/users", users.New(logger, svc.Account).ServeHTTP)
			r.Post("/admin/users/delete", userdelete.New(logger, svc.Account).ServeHTTP)
			r.Post("/admin/users/toggle-access", toggle.New(logger, svc.Lifecycle).ServeHTTP)
			r.Post("/admin/users/expire", revoke.New(logger, "expire", svc.Lifecycle.Expire).ServeHTTP)
			r.Post("/admin/users/deactivate", revoke.New(logger, "deactivate", svc.Lifecycle.Deactivate).ServeHTTP)
			r.Post("/admin/receipts/review", receiptreview.New(logger, svc.Account).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, svc.Checkers).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
