package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

// AdminCookie имя cookie с токеном сессии администратора.
const AdminCookie = "admin_session"

// AdminSessionMiddleware пропускает запрос только с действующей сессией администратора.
// Токен берётся из cookie admin_session, а если её нет, из Authorization: Bearer.
func AdminSessionMiddleware(sessions SessionValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := log.With(slog.String("request_id", middleware.GetReqID(r.Context())))

			token := AdminToken(r)
			session, err := sessions.Validate(r.Context(), token)
			if err != nil {
				log.Warn("admin session rejected", sl.Err(err))
				response.Fail(w, r, err, "failed to validate session")
				return
			}
			ctx := context.WithValue(r.Context(), AdminSession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminToken достаёт токен сессии из запроса или пустую строку.
func AdminToken(r *http.Request) string {
	if c, err := r.Cookie(AdminCookie); err == nil && c.Value != "" {
		return c.Value
	}
	token, _ := bearerToken(r)
	return token
}
