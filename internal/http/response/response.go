// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков: {success, error, details}.
package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
)

// ErrorResponse тело ответа с ошибкой. Details заполняется только вне prod.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"invalid request body"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse для Swagger-документации.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// OK возвращает тело успешного ответа: переданные поля плюс success=true.
func OK(fields map[string]any) map[string]any {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	return body
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

type detailsKey struct{}

// WithDetails включает поле details в ответах с ошибкой. В prod выключено.
func WithDetails(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), detailsKey{}, enabled)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detailsEnabled(ctx context.Context) bool {
	enabled, _ := ctx.Value(detailsKey{}).(bool)
	return enabled
}

// Fail пишет ответ с кодом по errs.HTTPStatus. Для 5xx клиент видит fallback,
// текст исходной ошибки уходит в details, если они включены.
func Fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	FailWith(w, r, err, fallback, nil)
}

// FailWith как Fail, но добавляет в тело дополнительные поля (например, частичный итог).
func FailWith(w http.ResponseWriter, r *http.Request, err error, fallback string, extra map[string]any) {
	status := errs.HTTPStatus(err)
	body := map[string]any{
		"success": false,
		"error":   Message(err, fallback),
	}
	if detailsEnabled(r.Context()) && err != nil {
		body["details"] = err.Error()
	}
	for k, v := range extra {
		body[k] = v
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

// Message текст ошибки, который можно показать клиенту.
func Message(err error, fallback string) string {
	var (
		validation   *errs.ValidationError
		unauthorized *errs.UnauthorizedError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &unauthorized):
		return unauthorized.Error()
	case errors.Is(err, errs.ErrInvalidPlan):
		return "invalid plan"
	case errors.Is(err, errs.ErrUserNotFound):
		return "user not found"
	case errors.Is(err, errs.ErrNotFound):
		return "not found"
	case errors.Is(err, errs.ErrAlreadyExists):
		return "already exists"
	case errors.Is(err, errs.ErrConflict):
		return "record was modified concurrently, retry"
	}
	return fallback
}

// Bind декодирует JSON-тело в v и проверяет его тегами validate.
// Обе ошибки возвращаются как *errs.ValidationError.
func Bind(r *http.Request, v any, validate *validator.Validate) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Validation("", "invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			return errs.Validation("", ValidationMessage(vErrs))
		}
		return errs.Validation("", err.Error())
	}
	return nil
}

// ValidationMessage формирует человеко‑читаемый текст из ошибок валидации.
func ValidationMessage(vErrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(vErrs))
	for _, err := range vErrs {
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("field %s must be a valid url", err.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s characters", err.Field(), err.Param()))
		case "gt", "gte":
			msgs = append(msgs, fmt.Sprintf("field %s must be %s %s", err.Field(), err.ActualTag(), err.Param()))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("field %s must be a date in format %s", err.Field(), err.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}
