package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// CreateAdminSession сохраняет сессию администратора.
func (s *Storage) CreateAdminSession(ctx context.Context, session models.AdminSession) error {
	const op = "storage.CreateAdminSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx, `INSERT INTO admin_sessions (token, username, expires_at) VALUES ($1, $2, $3)`,
		session.Token, session.Username, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetAdminSession возвращает сессию по токену, в том числе истёкшую.
func (s *Storage) GetAdminSession(ctx context.Context, token string) (*models.AdminSession, error) {
	const op = "storage.GetAdminSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var session models.AdminSession
	err := s.DB.QueryRowContext(ctx, `SELECT token, username, expires_at FROM admin_sessions WHERE token = $1`, token).
		Scan(&session.Token, &session.Username, &session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err, errs.ErrNotFound))
	}
	return &session, nil
}

// DeleteAdminSession удаляет сессию, отсутствие не считается ошибкой.
func (s *Storage) DeleteAdminSession(ctx context.Context, token string) error {
	const op = "storage.DeleteAdminSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteExpiredAdminSessions удаляет сессии, истёкшие к моменту now.
func (s *Storage) DeleteExpiredAdminSessions(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.DeleteExpiredAdminSessions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
