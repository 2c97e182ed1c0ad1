// Package plans хранит статический каталог тарифов и разрешает название тарифа
// без учёта регистра.
package plans

import (
	"fmt"
	"sort"
	"strings"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

const (
	// DefaultBitrate потолок битрейта для обычных тарифов.
	DefaultBitrate = 1080000000
	// MobileBitrate потолок для тарифов с признаком MobileOnly. В Default таких нет.
	MobileBitrate = 4000000
)

// AllowedDurations допустимые сроки покупки в месяцах.
var AllowedDurations = []int{1, 3, 6}

// Catalog каталог тарифов, ключ - нормализованное название.
type Catalog struct {
	plans map[string]models.Plan
}

// Default каталог, с которым работает витрина.
func Default() *Catalog {
	return New([]models.Plan{
		{Name: "Basic", Price: 149, DeviceLimit: 2, SpecialOffers: map[int]int64{3: 144, 6: 139}},
		{Name: "Standard", Price: 179, DeviceLimit: 3, SpecialOffers: map[int]int64{3: 174, 6: 169}},
		{Name: "Premium", Price: 219, DeviceLimit: 4, SpecialOffers: map[int]int64{3: 214, 6: 209}},
	})
}

// New строит каталог. MaxBitrate выставляется по признаку MobileOnly, если не задан.
func New(list []models.Plan) *Catalog {
	c := &Catalog{plans: make(map[string]models.Plan, len(list))}
	for _, p := range list {
		p.Name = Normalize(p.Name)
		if p.MaxBitrate == 0 {
			p.MaxBitrate = DefaultBitrate
			if p.MobileOnly {
				p.MaxBitrate = MobileBitrate
			}
		}
		c.plans[p.Name] = p
	}
	return c
}

// Normalize приводит название к виду "Premium": первая буква заглавная, остальные строчные.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// Resolve находит тариф по названию в любом регистре.
func (c *Catalog) Resolve(name string) (models.Plan, error) {
	p, ok := c.plans[Normalize(name)]
	if !ok {
		return models.Plan{}, fmt.Errorf("%w: %q", errs.ErrInvalidPlan, name)
	}
	return p, nil
}

// List возвращает тарифы по возрастанию цены.
func (c *Catalog) List() []models.Plan {
	out := make([]models.Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// ValidDuration проверяет срок покупки.
func ValidDuration(months int) bool {
	for _, d := range AllowedDurations {
		if d == months {
			return true
		}
	}
	return false
}
