package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// ListTransactionsByUser возвращает журнал оплат пользователя, новые первыми.
func (s *Storage) ListTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	const op = "storage.ListTransactionsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, user_id, plan, duration, amount, type, previous_plan, date, status
			  FROM transactions
			  WHERE user_id = $1
			  ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.Transaction
	for rows.Next() {
		var (
			t        models.Transaction
			typ      string
			previous sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Plan, &t.Duration, &t.Amount, &typ, &previous, &t.Date, &t.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.Type = models.TransactionType(typ)
		if previous.Valid {
			t.PreviousPlan = &previous.String
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
