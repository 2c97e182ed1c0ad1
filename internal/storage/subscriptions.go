package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// Методы ниже меняют поля подписки. Вызывать их должен только lifecycle.Manager,
// остальные сервисы получают хранилище через интерфейсы без этих методов.

// ApplyActivation в одной транзакции добавляет запись в журнал и переводит пользователя в active.
// Обновление выполняется только если статус всё ещё равен a.ExpectedStatus, иначе ErrConflict.
func (s *Storage) ApplyActivation(ctx context.Context, a models.Activation) (models.Transaction, error) {
	const op = "storage.ApplyActivation"
	select {
	case <-ctx.Done():
		return models.Transaction{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	t := a.Transaction
	t.Status = models.TransactionCompleted
	err = tx.QueryRowContext(ctx, `INSERT INTO transactions
			  (user_id, plan, duration, amount, type, previous_plan, date, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`,
		t.UserID, t.Plan, t.Duration, t.Amount, string(t.Type), t.PreviousPlan, t.Date, t.Status).Scan(&t.ID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, notFound(err, errs.ErrUserNotFound))
	}

	result, err := tx.ExecContext(ctx, `UPDATE users
			  SET subscription_status = $3, subscription_end = $4, plan = $5,
			      duration = $6, device_limit = $7, updated_at = NOW()
			  WHERE id = $1 AND subscription_status = $2`,
		a.UserID, string(a.ExpectedStatus), string(models.StatusActive), a.End, a.Plan, a.Duration, a.DeviceLimit)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.checkCAS(ctx, tx, result, a.UserID); err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// ResetSubscription выставляет статус и очищает дату окончания и тариф.
// Применяется при истечении и ручном отключении, повторный вызов безопасен.
func (s *Storage) ResetSubscription(ctx context.Context, id string, status models.SubscriptionStatus) error {
	const op = "storage.ResetSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `UPDATE users
			  SET subscription_status = $2, subscription_end = NULL, plan = NULL, updated_at = NOW()
			  WHERE id = $1`, id, string(status))
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

// SetSubscriptionStatus меняет только статус, если текущий равен from (compare-and-set).
// Дату окончания и тариф не трогает.
func (s *Storage) SetSubscriptionStatus(ctx context.Context, id string, from, to models.SubscriptionStatus) error {
	const op = "storage.SetSubscriptionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `UPDATE users
			  SET subscription_status = $3, updated_at = NOW()
			  WHERE id = $1 AND subscription_status = $2`, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err, errs.ErrUserNotFound))
	}
	if err := s.checkCAS(ctx, tx, result, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// checkCAS различает «пользователя нет» и «статус уже другой», когда UPDATE ничего не изменил.
func (s *Storage) checkCAS(ctx context.Context, tx *sql.Tx, result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}
	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if !exists {
		return errs.ErrUserNotFound
	}
	return errs.ErrConflict
}
