// Package errs описывает типизированные ошибки витрины и их отображение в HTTP-статусы.
//
// Сервисы оборачивают ошибки хранилища и внешних систем в эти типы,
// HTTP-слой выбирает код ответа через HTTPStatus.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidPlan тариф не найден в каталоге.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrUserNotFound пользователь отсутствует в хранилище.
	ErrUserNotFound = errors.New("user not found")
	// ErrConflict запись изменена параллельно, повторное чтение покажет актуальное состояние.
	ErrConflict = errors.New("concurrent modification")
	// ErrAlreadyExists запись с таким ключом уже есть.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound прочие отсутствующие записи (квитанции, сессии).
	ErrNotFound = errors.New("not found")
)

// ValidationError некорректные или отсутствующие поля запроса.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation создаёт ValidationError.
func Validation(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// UnauthorizedError отсутствует или истекла сессия.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Reason
}

// ExternalServiceError ответ внешнего сервиса с кодом не 2xx или сетевая ошибка.
// StatusCode равен 0, если ответа не было.
type ExternalServiceError struct {
	Service    string
	Op         string
	StatusCode int
	Err        error
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Service, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// IsNotFound сервис ответил 404.
func (e *ExternalServiceError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsExternalNotFound проверяет, что в цепочке есть ExternalServiceError с 404.
func IsExternalNotFound(err error) bool {
	var ext *ExternalServiceError
	return errors.As(err, &ext) && ext.IsNotFound()
}

// NotificationError письмо не удалось подготовить или поставить в очередь.
// Для вызывающего всегда не фатальна.
type NotificationError struct {
	UserID string
	Type   string
	Err    error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %s for user %s: %v", e.Type, e.UserID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// PersistenceError ошибка записи или чтения хранилища.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence оборачивает ошибку хранилища. Ошибки «не найдено» остаются как есть.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// HTTPStatus возвращает код ответа для ошибки.
func HTTPStatus(err error) int {
	var (
		validation   *ValidationError
		unauthorized *UnauthorizedError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.Is(err, ErrInvalidPlan):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
