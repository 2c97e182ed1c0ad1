// Package password меняет пароль покупателя на сайте и на медиасервере.
package password

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
)

type Request struct {
	Password string `json:"password" validate:"required,min=8"`
}

type Service interface {
	ChangePassword(ctx context.Context, userID, password string) error
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
// @Summary Сменить пароль
// @Description Меняет пароль на медиасервере и затем для входа на сайт.
// @Tags Account
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Новый пароль"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Нет или неверный JWT"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /account/password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.password"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.CurrentUserID(r.Context())
	if !ok {
		response.Fail(w, r, &errs.UnauthorizedError{Reason: "missing user"}, "")
		return
	}

	var req Request
	if err := response.Bind(r, &req, h.validate); err != nil {
		log.Warn("invalid request", sl.Err(err))
		response.Fail(w, r, err, "invalid request")
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.Password); err != nil {
		log.Error("failed to change password", slog.String("user_id", userID), sl.Err(err))
		response.Fail(w, r, err, "failed to change password")
		return
	}

	log.Info("password changed", slog.String("user_id", userID))
	render.JSON(w, r, response.OK(nil))
}
