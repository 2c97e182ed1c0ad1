// Package activate реализует HTTP-обработчик активации подписки администратором.
//
// Handler принимает пользователя, его аккаунт на медиасервере, тариф, срок и сумму,
// передаёт их в жизненный цикл подписки и возвращает новую дату окончания.
package activate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
	"github.com/magabrotheeeer/media-storefront/internal/services/lifecycle"
)

// Service описывает активацию подписки.
type Service interface {
	Activate(ctx context.Context, req lifecycle.ActivateRequest) (time.Time, error)
}

// Handler управляет HTTP-запросами на активацию подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Активировать подписку
// @Description Включает доступ на медиасервере по тарифу и продлевает подписку на 1, 3 или 6 месяцев.
// @Description Если подписка активна, срок прибавляется к текущей дате окончания.
// @Tags Subscription
// @Accept  json
// @Produce  json
// @Param request body models.DummyActivation true "Параметры активации"
// @Success 200 {object} map[string]any "success и subscriptionEnd"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или неизвестный тариф"
// @Failure 401 {object} response.ErrorResponse "Нет сессии администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Подписка изменена параллельно"
// @Failure 500 {object} response.ErrorResponse "Ошибка медиасервера или хранилища"
// @Router /subscription/activate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.activate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyActivation
	if err := response.Bind(r, &req, h.validate); err != nil {
		log.Warn("invalid request", sl.Err(err))
		response.Fail(w, r, err, "invalid request")
		return
	}

	end, err := h.service.Activate(r.Context(), lifecycle.ActivateRequest{
		UserID:              req.UserID,
		ExternalMediaUserID: req.ExternalMediaUserID,
		Plan:                req.Plan,
		Duration:            req.Duration,
		Amount:              req.Amount,
	})
	if err != nil {
		log.Error("failed to activate subscription", sl.Err(err))
		response.Fail(w, r, err, "failed to activate subscription")
		return
	}

	log.Info("subscription activated", slog.String("user_id", req.UserID), slog.Time("subscription_end", end))
	render.JSON(w, r, response.OK(map[string]any{
		"subscriptionEnd": end,
	}))
}
