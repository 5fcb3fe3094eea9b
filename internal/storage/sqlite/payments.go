package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/streamsplit/internal/models"
	"github.com/mmynk/streamsplit/internal/storage"
)

// ListPayments retrieves all payments, most recently recorded first.
// Rows written before recorded_at existed sort last, by their date text.
func (s *SQLiteStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, member_id, month, period, date, recorded_at
		 FROM payments ORDER BY recorded_at DESC, date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		var period sql.NullString
		var recordedAt sql.NullInt64
		if err := rows.Scan(&p.ID, &p.MemberID, &p.Month, &period, &p.Date, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if period.Valid {
			if m, err := models.ParseMonthKey(period.String); err == nil {
				p.Period = m
			}
		}
		if recordedAt.Valid {
			p.RecordedAt = fromMillis(recordedAt.Int64)
		}
		storage.ResolvePeriod(&p)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// InsertPayment persists a new payment.
func (s *SQLiteStore) InsertPayment(ctx context.Context, draft models.PaymentDraft) (models.Payment, error) {
	p := models.Payment{
		ID:         uuid.New().String(),
		MemberID:   draft.MemberID,
		Month:      draft.Month,
		Period:     draft.Period,
		Date:       draft.Date,
		RecordedAt: fromMillis(toMillis(draft.RecordedAt)),
	}

	var period any
	if !p.Period.IsZero() {
		period = p.Period.Key()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, member_id, month, period, date, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.MemberID, p.Month, period, p.Date, toMillis(p.RecordedAt),
	)
	if isUniqueViolation(err) {
		return models.Payment{}, fmt.Errorf("payment for member %s in %q: %w", p.MemberID, p.Month, storage.ErrConflict)
	}
	if err != nil {
		return models.Payment{}, fmt.Errorf("failed to insert payment: %w", err)
	}

	return p, nil
}

// DeletePayment removes a payment by ID.
func (s *SQLiteStore) DeletePayment(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete payment", id, "DELETE FROM payments WHERE id = ?", id)
}
