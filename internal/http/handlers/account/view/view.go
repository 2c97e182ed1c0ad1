// Package view отдаёт личный кабинет покупателя.
package view

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/services/account"
)

type Service interface {
	Account(ctx context.Context, userID string) (*account.View, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Личный кабинет
// @Description Возвращает пользователя, его квитанции и журнал оплат.
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "success, user, paymentReceipts и transactions"
// @Failure 401 {object} response.ErrorResponse "Нет или неверный JWT"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /account [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.view"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.CurrentUserID(r.Context())
	if !ok {
		response.Fail(w, r, &errs.UnauthorizedError{Reason: "missing user"}, "")
		return
	}

	view, err := h.service.Account(r.Context(), userID)
	if err != nil {
		log.Error("failed to load account", slog.String("user_id", userID), sl.Err(err))
		response.Fail(w, r, err, "failed to load account")
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"user":            view.User,
		"paymentReceipts": view.Receipts,
		"transactions":    view.Transactions,
	}))
}
