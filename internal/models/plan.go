package models

// Plan тариф. Каталог статический и меняется только с релизом.
type Plan struct {
	Name          string        `json:"name"`
	Price         int64         `json:"price"` // за месяц
	DeviceLimit   int           `json:"deviceLimit"`
	SpecialOffers map[int]int64 `json:"specialOffers"` // месяцы -> цена за месяц со скидкой
	MobileOnly    bool          `json:"mobileOnly"`
	MaxBitrate    int           `json:"maxBitrate"`
}

// MonthlyPrice возвращает цену за месяц с учётом скидки на длительность.
func (p Plan) MonthlyPrice(months int) int64 {
	if price, ok := p.SpecialOffers[months]; ok {
		return price
	}
	return p.Price
}

// Total возвращает итоговую стоимость за весь срок.
func (p Plan) Total(months int) int64 {
	return p.MonthlyPrice(months) * int64(months)
}
