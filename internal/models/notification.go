package models

// NotificationType тип письма. Набор фиксирован.
type NotificationType string

const (
	NotificationSubscriptionActivated    NotificationType = "subscription_activated"
	NotificationSubscriptionExpiringSoon NotificationType = "subscription_expiring_soon"
	NotificationSubscriptionExpired      NotificationType = "subscription_expired"
	NotificationPaymentReceived          NotificationType = "payment_received"
	NotificationPaymentFailed            NotificationType = "payment_failed"
)

// NotificationTypes все поддерживаемые типы уведомлений.
var NotificationTypes = []NotificationType{
	NotificationSubscriptionActivated,
	NotificationSubscriptionExpiringSoon,
	NotificationSubscriptionExpired,
	NotificationPaymentReceived,
	NotificationPaymentFailed,
}

// Valid проверяет, что тип поддерживается.
func (t NotificationType) Valid() bool {
	for _, v := range NotificationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// TemplateData данные для шаблонов писем.
type TemplateData struct {
	Name      string `json:"name,omitempty"`
	Plan      string `json:"plan,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	DaysLeft  int    `json:"daysLeft,omitempty"`
	IsUpgrade bool   `json:"isUpgrade,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// EmailMessage готовое письмо, которое публикуется в очередь и отправляется по SMTP.
type EmailMessage struct {
	UserID  string           `json:"userId"`
	Type    NotificationType `json:"type"`
	To      string           `json:"to"`
	Subject string           `json:"subject"`
	Text    string           `json:"text"`
	HTML    string           `json:"html"`
}
