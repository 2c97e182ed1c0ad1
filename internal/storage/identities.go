package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// CreateIdentity сохраняет учётные данные покупателя.
func (s *Storage) CreateIdentity(ctx context.Context, userID, email, passwordHash string) error {
	const op = "storage.CreateIdentity"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx, `INSERT INTO identities (user_id, email, password_hash) VALUES ($1, $2, $3)`,
		userID, email, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err, errs.ErrUserNotFound))
	}
	return nil
}

// GetIdentityByEmail возвращает учётные данные по email.
func (s *Storage) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	const op = "storage.GetIdentityByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id models.Identity
	err := s.DB.QueryRowContext(ctx, `SELECT user_id, email, password_hash, created_at
			  FROM identities WHERE lower(email) = lower($1)`, email).
		Scan(&id.UserID, &id.Email, &id.PasswordHash, &id.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err, errs.ErrNotFound))
	}
	return &id, nil
}

// UpdatePasswordHash меняет хэш пароля.
func (s *Storage) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	const op = "storage.UpdatePasswordHash"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `UPDATE identities SET password_hash = $2 WHERE user_id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err, errs.ErrNotFound))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}

// DeleteIdentity удаляет учётные данные. Отсутствие записи возвращается как ErrNotFound.
func (s *Storage) DeleteIdentity(ctx context.Context, userID string) error {
	const op = "storage.DeleteIdentity"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM identities WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err, errs.ErrNotFound))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}
