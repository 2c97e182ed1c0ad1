// Package health отвечает на проверку живости и готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

// Checker зависимость, без которой сервис не может обслуживать запросы.
type Checker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	log      *slog.Logger
	checkers map[string]Checker
}

// New создаёт обработчик. checkers опрашиваются по имени: postgres, redis и т.д.
func New(log *slog.Logger, checkers map[string]Checker) *Handler {
	return &Handler{
		log:      log,
		checkers: checkers,
	}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Description Пингует базу и Redis. 503, если хотя бы одна зависимость недоступна.
// @Tags Health
// @Produce  json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.checkers))
	for name, c := range h.checkers {
		if err := c.Ping(ctx); err != nil {
			h.log.Error("health check failed", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := response.OK(map[string]any{
		"status": "ok",
		"checks": checks,
	})
	if status != http.StatusOK {
		body["success"] = false
		body["status"] = "degraded"
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}
