// Package login открывает сессию администратора и выставляет cookie admin_session.
package login

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/media-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

type Request struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Service interface {
	Login(ctx context.Context, username, password string) (*models.AdminSession, error)
}

type Handler struct {
	log          *slog.Logger
	service      Service
	secureCookie bool
	validate     *validator.Validate
	now          func() time.Time
}

// New создаёт обработчик. secureCookie выключают только для локальной разработки без TLS.
func New(log *slog.Logger, service Service, secureCookie bool) *Handler {
	return &Handler{
		log:          log,
		service:      service,
		secureCookie: secureCookie,
		validate:     validator.New(),
		now:          time.Now,
	}
}

// ServeHTTP godoc
// @Summary Вход администратора
// @Description Проверяет учётные данные администратора, создаёт сессию и выставляет HttpOnly cookie admin_session.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Учётные данные администратора"
// @Success 200 {object} map[string]any "success и expiresAt"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учётные данные"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := response.Bind(r, &req, h.validate); err != nil {
		log.Warn("invalid request", sl.Err(err))
		response.Fail(w, r, err, "invalid request")
		return
	}

	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		log.Warn("admin login failed", sl.Err(err))
		response.Fail(w, r, err, "failed to login")
		return
	}

	maxAge := int(session.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middlewarectx.AdminCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	log.Info("admin session opened")
	render.JSON(w, r, response.OK(map[string]any{
		"expiresAt": session.ExpiresAt,
	}))
}
