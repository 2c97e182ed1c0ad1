package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

const userColumns = `id, email, external_media_user_id, subscription_status, subscription_end,
	plan, duration, device_limit, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u        models.User
		mediaID  sql.NullString
		end      sql.NullTime
		plan     sql.NullString
		statusDB string
	)
	if err := row.Scan(&u.ID, &u.Email, &mediaID, &statusDB, &end,
		&plan, &u.Duration, &u.DeviceLimit, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.SubscriptionStatus = models.SubscriptionStatus(statusDB)
	if mediaID.Valid {
		u.ExternalMediaUserID = &mediaID.String
	}
	if end.Valid {
		t := end.Time.UTC()
		u.SubscriptionEnd = &t
	}
	if plan.Valid {
		u.Plan = &plan.String
	}
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]*models.User, error) {
	defer rows.Close()
	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// CreateUser создаёт пользователя со статусом inactive.
func (s *Storage) CreateUser(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, subscription_status)
			  VALUES ($1, $2)
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email, string(models.StatusInactive)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err, errs.ErrUserNotFound))
	}
	return u, nil
}

// GetUser возвращает пользователя по id.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err, errs.ErrUserNotFound))
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err, errs.ErrUserNotFound))
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	users, err := scanUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// DeleteUser удаляет пользователя вместе с квитанциями. Журнал транзакций остаётся.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err, errs.ErrUserNotFound))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrUserNotFound)
	}
	return nil
}

// SetExternalMediaUserID привязывает аккаунт медиасервера к пользователю.
func (s *Storage) SetExternalMediaUserID(ctx context.Context, id, externalID string) error {
	const op = "storage.SetExternalMediaUserID"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET external_media_user_id = $2, updated_at = NOW() WHERE id = $1`, id, externalID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err, errs.ErrUserNotFound))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrUserNotFound)
	}
	return nil
}

// FindExpiredSubscriptions возвращает не более limit активных подписок с датой окончания строго раньше now.
func (s *Storage) FindExpiredSubscriptions(ctx context.Context, now time.Time, limit int) ([]*models.User, error) {
	const op = "storage.FindExpiredSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE subscription_status = $1 AND subscription_end < $2
			  ORDER BY subscription_end, id
			  LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, string(models.StatusActive), now, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	users, err := scanUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// FindExpiringSubscriptions возвращает активные подписки, заканчивающиеся в [from, to).
func (s *Storage) FindExpiringSubscriptions(ctx context.Context, from, to time.Time, limit int) ([]*models.User, error) {
	const op = "storage.FindExpiringSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE subscription_status = $1 AND subscription_end >= $2 AND subscription_end < $3
			  ORDER BY subscription_end, id
			  LIMIT $4`
	rows, err := s.DB.QueryContext(ctx, query, string(models.StatusActive), from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	users, err := scanUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// ListLinkedUsers постранично возвращает пользователей с аккаунтом на медиасервере.
// Страницы идут по возрастанию id, afterID пустой для первой страницы.
func (s *Storage) ListLinkedUsers(ctx context.Context, afterID string, limit int) ([]*models.User, error) {
	const op = "storage.ListLinkedUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if afterID == "" {
		afterID = "00000000-0000-0000-0000-000000000000"
	}
	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE external_media_user_id IS NOT NULL AND id > $1
			  ORDER BY id
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	users, err := scanUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}
