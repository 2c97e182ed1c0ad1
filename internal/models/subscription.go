package models

import "time"

// ReceiptStatus статус проверки квитанции.
type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "pending"
	ReceiptApproved ReceiptStatus = "approved"
	ReceiptRejected ReceiptStatus = "rejected"
)

// Receipt квитанция о банковском переводе, загруженная покупателем.
type Receipt struct {
	ID         string        `json:"id"`
	UserID     string        `json:"userId"`
	URL        string        `json:"url"`
	Date       time.Time     `json:"date"`
	UploadDate time.Time     `json:"uploadDate"`
	Amount     int64         `json:"amount"`
	PlanName   string        `json:"planName"`
	Status     ReceiptStatus `json:"status"`
}

// DummyReceipt используется для приёма квитанции из JSON-запроса.
type DummyReceipt struct {
	URL      string `json:"url" validate:"required,url"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	PlanName string `json:"planName" validate:"required"`
}

// TransactionType тип записи в журнале транзакций.
type TransactionType string

const (
	TransactionNew     TransactionType = "new"
	TransactionUpgrade TransactionType = "upgrade"
)

// TransactionCompleted единственный статус, который пишет активация.
const TransactionCompleted = "completed"

// Transaction запись журнала оплат, создаётся ровно один раз на каждую активацию.
type Transaction struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"userId"`
	Plan         string          `json:"plan"`
	Duration     int             `json:"duration"`
	Amount       int64           `json:"amount"`
	Type         TransactionType `json:"type"`
	PreviousPlan *string         `json:"previousPlan"`
	Date         time.Time       `json:"date"`
	Status       string          `json:"status"`
}

// Activation набор изменений, которые активация записывает атомарно:
// строку журнала и новые поля подписки пользователя.
type Activation struct {
	UserID         string
	ExpectedStatus SubscriptionStatus // статус, прочитанный перед активацией
	Plan           string
	Duration       int
	DeviceLimit    int
	End            time.Time
	Transaction    Transaction
}

// DummyActivation тело запроса активации подписки.
type DummyActivation struct {
	UserID              string `json:"userId" validate:"required"`
	ExternalMediaUserID string `json:"externalMediaUserId" validate:"required"`
	Plan                string `json:"plan" validate:"required"`
	Duration            int    `json:"duration" validate:"required,oneof=1 3 6"`
	Amount              int64  `json:"amount" validate:"gte=0"`
}

// SweepSummary итог одного прохода пакетной задачи.
type SweepSummary struct {
	Total         int      `json:"total"`
	Succeeded     int      `json:"succeeded"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors,omitempty"`
	ExecutionTime string   `json:"executionTime"`
}
