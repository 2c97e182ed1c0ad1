// Package models содержит доменные структуры витрины: учётную запись пользователя
// с полями подписки, квитанции об оплате, записи журнала транзакций и тарифы.
// Структуры используются в бизнес‑логике, хранилище и HTTP-ответах.
package models

import "time"

// SubscriptionStatus статус подписки пользователя.
type SubscriptionStatus string

const (
	// StatusInactive выставляется при регистрации и ручном отключении.
	StatusInactive SubscriptionStatus = "inactive"
	// StatusActive подписка оплачена и доступ к медиасерверу включён.
	StatusActive SubscriptionStatus = "active"
	// StatusExpired срок подписки истёк.
	StatusExpired SubscriptionStatus = "expired"
)

// Valid проверяет, что статус входит в допустимый набор.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusExpired:
		return true
	}
	return false
}

// User представляет учётную запись покупателя.
//
// Если статус active, то SubscriptionEnd и Plan заполнены; при остальных статусах они nil.
// Исключение составляет ручное переключение доступа администратором (ToggleAccess).
type User struct {
	ID                  string             `json:"id"`
	Email               string             `json:"email"`
	ExternalMediaUserID *string            `json:"externalMediaUserId"` // nil до создания аккаунта на медиасервере
	SubscriptionStatus  SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionEnd     *time.Time         `json:"subscriptionEnd"`
	Plan                *string            `json:"plan"`
	Duration            int                `json:"duration"`    // месяцы последней активации
	DeviceLimit         int                `json:"deviceLimit"` // берётся из тарифа
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// MediaUserID возвращает идентификатор на медиасервере или пустую строку.
func (u *User) MediaUserID() string {
	if u.ExternalMediaUserID == nil {
		return ""
	}
	return *u.ExternalMediaUserID
}

// PlanName возвращает название тарифа или пустую строку.
func (u *User) PlanName() string {
	if u.Plan == nil {
		return ""
	}
	return *u.Plan
}

// UserWithReceipts пользователь вместе с квитанциями, для админки.
type UserWithReceipts struct {
	User
	Receipts []Receipt `json:"paymentReceipts"`
}

// Identity учётные данные для входа покупателя.
type Identity struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AdminSession сессия администратора.
type AdminSession struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}
