// Package receiptupload принимает квитанцию об оплате от покупателя.
package receiptupload

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

type Service interface {
	UploadReceipt(ctx context.Context, userID string, in models.DummyReceipt) (*models.Receipt, error)
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
// @Summary Загрузить квитанцию
// @Description Сохраняет ссылку на квитанцию со статусом pending до проверки администратором.
// @Tags Account
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyReceipt true "Квитанция"
// @Success 200 {object} map[string]any "success и receipt"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или неизвестный тариф"
// @Failure 401 {object} response.ErrorResponse "Нет или неверный JWT"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /account/receipts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.receiptupload"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.CurrentUserID(r.Context())
	if !ok {
		response.Fail(w, r, &errs.UnauthorizedError{Reason: "missing user"}, "")
		return
	}

	var req models.DummyReceipt
	if err := response.Bind(r, &req, h.validate); err != nil {
		log.Warn("invalid request", sl.Err(err))
		response.Fail(w, r, err, "invalid request")
		return
	}

	receipt, err := h.service.UploadReceipt(r.Context(), userID, req)
	if err != nil {
		log.Error("failed to upload receipt", slog.String("user_id", userID), sl.Err(err))
		response.Fail(w, r, err, "failed to upload receipt")
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"receipt": receipt,
	}))
}
