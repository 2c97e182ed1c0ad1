// Package password хеширует и сверяет пароли через bcrypt.
//
// Используется для учётных данных покупателей и пароля администратора из конфига.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch пароль не совпадает с хэшем.
var ErrMismatch = errors.New("password mismatch")

// MinLength минимальная длина пароля покупателя.
const MinLength = 8

// GetHash возвращает bcrypt‑хэш пароля.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Несовпадение возвращается как ErrMismatch, прочие ошибки (битый хэш) оборачиваются.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
