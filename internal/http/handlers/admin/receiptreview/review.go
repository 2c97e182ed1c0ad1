// Package receiptreview принимает решение администратора по квитанции.
package receiptreview

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
	"github.com/magabrotheeeer/media-storefront/internal/services/account"
)

type Request struct {
	ReceiptID string `json:"receiptId" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=approved rejected"`
	Duration  int    `json:"duration" validate:"omitempty,oneof=1 3 6"`
	Reason    string `json:"reason" validate:"max=500"`
}

type Service interface {
	ReviewReceipt(ctx context.Context, review account.Review) error
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
// @Summary Проверить квитанцию
// @Description Одобряет или отклоняет квитанцию и отправляет покупателю письмо payment_received или payment_failed.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Решение по квитанции"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Нет сессии администратора"
// @Failure 404 {object} response.ErrorResponse "Квитанция не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/receipts/review [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.receiptreview"
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

	err := h.service.ReviewReceipt(r.Context(), account.Review{
		ReceiptID: req.ReceiptID,
		Status:    models.ReceiptStatus(req.Status),
		Duration:  req.Duration,
		Reason:    req.Reason,
	})
	if err != nil {
		log.Error("failed to review receipt", slog.String("receipt_id", req.ReceiptID), sl.Err(err))
		response.Fail(w, r, err, "failed to review receipt")
		return
	}

	render.JSON(w, r, response.OK(nil))
}
