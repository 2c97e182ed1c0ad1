// Package logout закрывает сессию администратора.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/media-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

type Service interface {
	Logout(ctx context.Context, token string) error
}

type Handler struct {
	log          *slog.Logger
	service      Service
	secureCookie bool
}

func New(log *slog.Logger, service Service, secureCookie bool) *Handler {
	return &Handler{
		log:          log,
		service:      service,
		secureCookie: secureCookie,
	}
}

// ServeHTTP godoc
// @Summary Выход администратора
// @Description Удаляет сессию и очищает cookie. Повторный выход не считается ошибкой.
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.logout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if token := middlewarectx.AdminToken(r); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			log.Error("failed to close admin session", sl.Err(err))
			response.Fail(w, r, err, "failed to logout")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middlewarectx.AdminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	render.JSON(w, r, response.OK(nil))
}
