// Package check реализует HTTP-обработчик запуска пакетного истечения подписок.
// Вызывается внешним cron с общим секретом.
package check

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

// Sweeper один проход истечения.
type Sweeper interface {
	Run(ctx context.Context) (models.SweepSummary, error)
}

type Handler struct {
	log     *slog.Logger
	sweeper Sweeper
}

func New(log *slog.Logger, sweeper Sweeper) *Handler {
	return &Handler{
		log:     log,
		sweeper: sweeper,
	}
}

// ServeHTTP godoc
// @Summary Истечь просроченные подписки
// @Description Обрабатывает до 100 активных подписок с прошедшей датой окончания и возвращает итог.
// @Tags Subscription
// @Produce  json
// @Security CronSecret
// @Success 200 {object} map[string]any "success и summary"
// @Failure 401 {object} response.ErrorResponse "Неверный секрет"
// @Failure 500 {object} map[string]any "Ошибка выборки, частичный summary"
// @Router /check-subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.check"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	summary, err := h.sweeper.Run(r.Context())
	if err != nil {
		log.Error("expiration sweep failed", sl.Err(err))
		response.FailWith(w, r, err, "failed to check subscriptions", map[string]any{"summary": summary})
		return
	}

	log.Info("expiration sweep done", slog.Int("total", summary.Total), slog.Int("failed", summary.Failed))
	render.JSON(w, r, response.OK(map[string]any{
		"summary": summary,
	}))
}
