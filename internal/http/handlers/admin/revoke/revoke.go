// Package revoke обработчики ручного отключения подписки: истечение и деактивация.
// Оба принимают одно и то же тело и отличаются только вызываемой операцией.
package revoke

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

type Request struct {
	UserID              string `json:"userId" validate:"required"`
	ExternalMediaUserID string `json:"externalMediaUserId" validate:"required"`
}

// Action операция жизненного цикла над пользователем.
type Action func(ctx context.Context, userID, externalMediaUserID string) error

type Handler struct {
	log      *slog.Logger
	name     string
	action   Action
	validate *validator.Validate
}

// New создаёт обработчик. name попадает в логи и сообщение об ошибке.
func New(log *slog.Logger, name string, action Action) *Handler {
	return &Handler{
		log:      log,
		name:     name,
		action:   action,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Истечь или деактивировать подписку
// @Description expire выставляет expired и отправляет письмо, deactivate выставляет inactive без письма.
// @Description В обоих случаях доступ на медиасервере отключается, дата окончания и тариф очищаются.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Пользователь"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Нет сессии администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка медиасервера или хранилища"
// @Router /admin/users/expire [post]
// @Router /admin/users/deactivate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.revoke"
	log := h.log.With(
		slog.String("op", op),
		slog.String("action", h.name),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := response.Bind(r, &req, h.validate); err != nil {
		log.Warn("invalid request", sl.Err(err))
		response.Fail(w, r, err, "invalid request")
		return
	}

	if err := h.action(r.Context(), req.UserID, req.ExternalMediaUserID); err != nil {
		log.Error("failed to revoke subscription", slog.String("user_id", req.UserID), sl.Err(err))
		response.Fail(w, r, err, "failed to "+h.name+" subscription")
		return
	}

	render.JSON(w, r, response.OK(nil))
}
