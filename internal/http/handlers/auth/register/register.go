// Package register реализует HTTP-обработчик регистрации покупателя.
package register

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

// Request входные данные для регистрации. Длина пароля проверяется ещё раз в сервисе.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type Service interface {
	Register(ctx context.Context, email, password string) (string, *models.User, error)
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
// @Summary Регистрация покупателя
// @Description Создаёт пользователя и аккаунт на медиасервере с тем же паролем. Подписка неактивна до оплаты.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email и пароль"
// @Success 200 {object} map[string]any "success, token и user"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 409 {object} response.ErrorResponse "Email уже зарегистрирован"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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

	token, user, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		response.Fail(w, r, err, "failed to register")
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	render.JSON(w, r, response.OK(map[string]any{
		"token": token,
		"user":  user,
	}))
}
