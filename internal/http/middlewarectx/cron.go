package middlewarectx

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/http/response"
)

// CronSecretMiddleware сверяет Authorization: Bearer с общим секретом планировщика.
// Пустой секрет закрывает маршрут полностью.
func CronSecretMiddleware(secret string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if secret == "" || !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				log.Warn("cron request rejected", slog.String("request_id", middleware.GetReqID(r.Context())))
				response.Fail(w, r, &errs.UnauthorizedError{Reason: "invalid cron secret"}, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
