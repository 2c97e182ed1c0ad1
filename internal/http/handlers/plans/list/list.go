// Package list отдаёт каталог тарифов с итоговой стоимостью по каждому сроку.
package list

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/models"
	"github.com/magabrotheeeer/media-storefront/internal/plans"
)

// Catalog источник тарифов.
type Catalog interface {
	List() []models.Plan
}

// Offer цена тарифа на конкретный срок.
type Offer struct {
	Duration     int   `json:"duration"`
	MonthlyPrice int64 `json:"monthlyPrice"`
	Total        int64 `json:"total"`
}

// PlanView тариф в ответе.
type PlanView struct {
	models.Plan
	Offers []Offer `json:"offers"`
}

type Handler struct {
	log     *slog.Logger
	catalog Catalog
}

func New(log *slog.Logger, catalog Catalog) *Handler {
	return &Handler{
		log:     log,
		catalog: catalog,
	}
}

// ServeHTTP godoc
// @Summary Каталог тарифов
// @Description Возвращает тарифы по возрастанию цены со стоимостью на 1, 3 и 6 месяцев.
// @Tags Plans
// @Produce  json
// @Success 200 {object} map[string]any "success и plans"
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	list := h.catalog.List()
	out := make([]PlanView, 0, len(list))
	for _, p := range list {
		view := PlanView{Plan: p, Offers: make([]Offer, 0, len(plans.AllowedDurations))}
		for _, months := range plans.AllowedDurations {
			view.Offers = append(view.Offers, Offer{
				Duration:     months,
				MonthlyPrice: p.MonthlyPrice(months),
				Total:        p.Total(months),
			})
		}
		out = append(out, view)
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	render.JSON(w, r, response.OK(map[string]any{
		"plans": out,
	}))
}
