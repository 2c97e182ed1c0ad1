package middlewarectx

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

// RateLimitMiddleware ограничивает частоту запросов с одного адреса в рамках scope.
// Если Redis недоступен, запрос пропускается.
func RateLimitMiddleware(limiter Limiter, scope string, metrics Metrics, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := clientIP(r)
			res, err := limiter.Allow(r.Context(), scope, subject)
			if err != nil {
				log.Error("rate limiter unavailable", slog.String("scope", scope), sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
			if !res.Allowed {
				if metrics != nil {
					metrics.IncRateLimited(scope)
				}
				log.Warn("too many requests",
					slog.String("scope", scope),
					slog.String("subject", subject),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(res.RetryAfter)))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ResetOnSuccess обнуляет счётчик scope для адреса клиента, если обработчик ответил 2xx.
// Ставится после RateLimitMiddleware на маршрутах входа, чтобы успешный вход не копил попытки.
func ResetOnSuccess(limiter Resetter, scope string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status < 200 || status >= 300 {
				return
			}
			if err := limiter.Reset(r.Context(), scope, clientIP(r)); err != nil {
				log.Warn("failed to reset rate limit", slog.String("scope", scope), sl.Err(err))
			}
		})
	}
}

// clientIP адрес клиента. Заголовки прокси разбирает middleware.RealIP раньше по цепочке.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
