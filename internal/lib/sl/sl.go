// Package sl содержит атрибуты slog, общие для всех сервисов витрины.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки. Для nil значение пустое.
//
//	log.Error("failed to expire subscription", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// User атрибут "user_id" для строк лога, относящихся к одному покупателю.
func User(id string) slog.Attr {
	return slog.String("user_id", id)
}
