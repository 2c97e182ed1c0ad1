package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

const receiptColumns = `id, user_id, url, date, upload_date, amount, plan_name, status`

func scanReceipt(row rowScanner) (models.Receipt, error) {
	var (
		r      models.Receipt
		status string
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.URL, &r.Date, &r.UploadDate, &r.Amount, &r.PlanName, &status); err != nil {
		return models.Receipt{}, err
	}
	r.Status = models.ReceiptStatus(status)
	return r, nil
}

// CreateReceipt сохраняет квитанцию со статусом pending.
func (s *Storage) CreateReceipt(ctx context.Context, r models.Receipt) (*models.Receipt, error) {
	const op = "storage.CreateReceipt"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO receipts (user_id, url, date, amount, plan_name, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + receiptColumns
	created, err := scanReceipt(s.DB.QueryRowContext(ctx, query,
		r.UserID, r.URL, r.Date, r.Amount, r.PlanName, string(models.ReceiptPending)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err, errs.ErrUserNotFound))
	}
	return &created, nil
}

// GetReceipt возвращает квитанцию по id.
func (s *Storage) GetReceipt(ctx context.Context, id string) (*models.Receipt, error) {
	const op = "storage.GetReceipt"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	r, err := scanReceipt(s.DB.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err, errs.ErrNotFound))
	}
	return &r, nil
}

// ListReceiptsByUser возвращает квитанции пользователя, новые первыми.
func (s *Storage) ListReceiptsByUser(ctx context.Context, userID string) ([]models.Receipt, error) {
	byUser, err := s.ListReceiptsByUsers(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	return byUser[userID], nil
}

// ListReceiptsByUsers возвращает квитанции сразу для набора пользователей одним запросом.
func (s *Storage) ListReceiptsByUsers(ctx context.Context, userIDs []string) (map[string][]models.Receipt, error) {
	const op = "storage.ListReceiptsByUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result := make(map[string][]models.Receipt, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+receiptColumns+`
			  FROM receipts
			  WHERE user_id = ANY($1::uuid[])
			  ORDER BY upload_date DESC, id`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[r.UserID] = append(result[r.UserID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetReceiptStatus меняет статус квитанции после ручной проверки.
func (s *Storage) SetReceiptStatus(ctx context.Context, id string, status models.ReceiptStatus) error {
	const op = "storage.SetReceiptStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `UPDATE receipts SET status = $2 WHERE id = $1`, id, string(status))
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
