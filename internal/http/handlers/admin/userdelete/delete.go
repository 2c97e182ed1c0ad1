// Package userdelete удаляет пользователя из учётных данных, медиасервера и хранилища.
package userdelete

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

// Request тело запроса. Без externalMediaUserId шаг медиасервера пропускается.
type Request struct {
	UserID              string `json:"userId" validate:"required"`
	ExternalMediaUserID string `json:"externalMediaUserId"`
}

type Service interface {
	DeleteUser(ctx context.Context, userID, externalMediaUserID string) error
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
// @Summary Удалить пользователя
// @Description Удаляет учётные данные, аккаунт на медиасервере и запись. Журнал транзакций сохраняется.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Пользователь"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse "Нет userId"
// @Failure 401 {object} response.ErrorResponse "Нет сессии администратора"
// @Failure 500 {object} response.ErrorResponse "Запись не удалена"
// @Router /admin/users/delete [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userdelete"
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

	if err := h.service.DeleteUser(r.Context(), req.UserID, req.ExternalMediaUserID); err != nil {
		log.Error("failed to delete user", slog.String("user_id", req.UserID), sl.Err(err))
		response.Fail(w, r, err, "failed to delete user")
		return
	}

	log.Info("user deleted", slog.String("user_id", req.UserID))
	render.JSON(w, r, response.OK(nil))
}
