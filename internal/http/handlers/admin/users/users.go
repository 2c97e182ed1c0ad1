// Package users отдаёт администратору список пользователей с квитанциями.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

type Service interface {
	ListUsers(ctx context.Context) ([]models.UserWithReceipts, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Все пользователи с полями подписки и загруженными квитанциями, новые первыми.
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "success и users"
// @Failure 401 {object} response.ErrorResponse "Нет сессии администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.Fail(w, r, err, "failed to list users")
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"users": list,
	}))
}
