// Package middlewarectx содержит HTTP middleware витрины: проверку JWT покупателя,
// сессии администратора, секрета cron-запросов и ограничение частоты запросов.
//
// Прошедшие проверку данные кладутся в контекст запроса под ключами Key.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

// JWTMiddleware проверяет JWT покупателя в заголовке Authorization
// и кладёт в контекст UserID и Email.
func JWTMiddleware(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := log.With(slog.String("request_id", middleware.GetReqID(r.Context())))

			token, ok := bearerToken(r)
			if !ok {
				log.Warn("missing or invalid authorization header")
				response.Fail(w, r, &errs.UnauthorizedError{Reason: "missing or invalid authorization header"}, "")
				return
			}

			claims, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				response.Fail(w, r, &errs.UnauthorizedError{Reason: "invalid or expired token"}, "")
				return
			}
			ctx := context.WithValue(r.Context(), UserID, claims.UserID)
			ctx = context.WithValue(ctx, Email, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
