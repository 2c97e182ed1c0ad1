// Package month содержит календарную арифметику сроков подписки.
package month

import (
	"math"
	"time"
)

// Add прибавляет к дате n календарных месяцев.
// Переполнение дня нормализуется как в time.AddDate: 31 января + 1 месяц = 2 или 3 марта.
func Add(from time.Time, n int) time.Time {
	return from.AddDate(0, n, 0)
}

// SubscriptionEnd вычисляет новую дату окончания.
// Продление отсчитывается от текущей даты окончания, если она есть, иначе от now.
func SubscriptionEnd(now time.Time, currentEnd *time.Time, upgrade bool, months int) time.Time {
	anchor := now
	if upgrade && currentEnd != nil {
		anchor = *currentEnd
	}
	return Add(anchor, months)
}

// DaysLeft возвращает число оставшихся дней до end, округлённое вверх. Для прошедших дат 0.
func DaysLeft(now, end time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}
