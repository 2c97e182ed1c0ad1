// Package toggle переключает доступ пользователя на медиасервере вручную.
package toggle

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// Request currentStatus должен совпадать с сохранённым статусом, иначе 409.
type Request struct {
	UserID              string `json:"userId" validate:"required"`
	ExternalMediaUserID string `json:"externalMediaUserId" validate:"required"`
	CurrentStatus       string `json:"currentStatus" validate:"required,oneof=active inactive expired"`
}

type Service interface {
	ToggleAccess(ctx context.Context, userID, externalMediaUserID string,
		currentStatus models.SubscriptionStatus) (models.SubscriptionStatus, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Переключить доступ
// @Description Включает или отключает аккаунт на медиасервере и зеркалит статус active/inactive.
// @Description Дата окончания и тариф не меняются.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Пользователь и текущий статус"
// @Success 200 {object} map[string]any "success и status"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Нет сессии администратора"
// @Failure 409 {object} response.ErrorResponse "Статус уже изменён"
// @Failure 500 {object} response.ErrorResponse "Ошибка медиасервера или хранилища"
// @Router /admin/users/toggle-access [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.toggle"
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

	status, err := h.service.ToggleAccess(r.Context(), req.UserID, req.ExternalMediaUserID,
		models.SubscriptionStatus(req.CurrentStatus))
	if err != nil {
		log.Error("failed to toggle access", slog.String("user_id", req.UserID), sl.Err(err))
		response.Fail(w, r, err, "failed to toggle access")
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"status": status,
	}))
}
