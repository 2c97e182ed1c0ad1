// Package testnotification отправляет письмо выбранного типа вручную, для проверки шаблонов и доставки.
package testnotification

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

// Request тип проверяет диспетчер, чтобы список поддерживаемых типов был в одном месте.
type Request struct {
	UserID string              `json:"userId" validate:"required"`
	Type   string              `json:"type" validate:"required"`
	Data   models.TemplateData `json:"data"`
}

type Service interface {
	Send(ctx context.Context, userID string, typ models.NotificationType, data models.TemplateData) error
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
// @Summary Тестовое уведомление
// @Description Рендерит письмо указанного типа и ставит его в очередь на отправку пользователю.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Получатель, тип письма и данные шаблона"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse "Неизвестный тип уведомления"
// @Failure 401 {object} response.ErrorResponse "Нет сессии администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка отправки"
// @Router /test-notification [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.test"
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

	if err := h.service.Send(r.Context(), req.UserID, models.NotificationType(req.Type), req.Data); err != nil {
		log.Error("failed to send test notification",
			slog.String("user_id", req.UserID),
			slog.String("type", req.Type),
			sl.Err(err))
		response.Fail(w, r, err, "failed to send notification")
		return
	}

	render.JSON(w, r, response.OK(nil))
}
