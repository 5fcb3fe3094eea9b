// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface, for hosted deployments.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmynk/streamsplit/internal/models"
	"github.com/mmynk/streamsplit/internal/storage"
)

// Ensure PostgresStore implements storage.Store
var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store using a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New connects to databaseURL, runs migrations and returns the store.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) execOne(ctx context.Context, what, id, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	return nil
}

// ListMembers retrieves all members in creation order.
func (s *PostgresStore) ListMembers(ctx context.Context) ([]models.Member, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, created_at FROM members ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Member, error) {
		var m models.Member
		err := row.Scan(&m.ID, &m.Name, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan members: %w", err)
	}
	return members, nil
}

// InsertMember persists a new member.
func (s *PostgresStore) InsertMember(ctx context.Context, name string) (models.Member, error) {
	m := models.Member{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}

	_, err := s.pool.Exec(ctx,
		"INSERT INTO members (id, name, created_at) VALUES ($1, $2, $3)",
		m.ID, m.Name, m.CreatedAt,
	)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to insert member: %w", err)
	}
	return m, nil
}

// DeleteMember removes a member by ID.
func (s *PostgresStore) DeleteMember(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete member", id, "DELETE FROM members WHERE id = $1", id)
}

// ListServices retrieves all services in creation order.
func (s *PostgresStore) ListServices(ctx context.Context) ([]models.Service, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, cost, member_ids, created_at FROM services ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	services, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Service, error) {
		var svc models.Service
		err := row.Scan(&svc.ID, &svc.Name, &svc.Cost, &svc.MemberIDs, &svc.CreatedAt)
		if svc.MemberIDs == nil {
			svc.MemberIDs = []string{}
		}
		return svc, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan services: %w", err)
	}
	return services, nil
}

// InsertService persists a new service with an empty participant list.
func (s *PostgresStore) InsertService(ctx context.Context, name string, cost float64) (models.Service, error) {
	svc := models.Service{
		ID:        uuid.New().String(),
		Name:      name,
		Cost:      cost,
		MemberIDs: []string{},
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}

	_, err := s.pool.Exec(ctx,
		"INSERT INTO services (id, name, cost, member_ids, created_at) VALUES ($1, $2, $3, '{}', $4)",
		svc.ID, svc.Name, svc.Cost, svc.CreatedAt,
	)
	if err != nil {
		return models.Service{}, fmt.Errorf("failed to insert service: %w", err)
	}
	return svc, nil
}

// DeleteService removes a service by ID.
func (s *PostgresStore) DeleteService(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete service", id, "DELETE FROM services WHERE id = $1", id)
}

// UpdateServiceMembers replaces the participant list of a service.
func (s *PostgresStore) UpdateServiceMembers(ctx context.Context, id string, memberIDs []string) error {
	if memberIDs == nil {
		memberIDs = []string{}
	}
	return s.execOne(ctx, "update service members", id,
		"UPDATE services SET member_ids = $1 WHERE id = $2", memberIDs, id,
	)
}

// ListPayments retrieves all payments, most recently recorded first.
func (s *PostgresStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, member_id, month, period, date, recorded_at
		 FROM payments ORDER BY recorded_at DESC NULLS LAST, date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Payment, error) {
		var p models.Payment
		var period *string
		var recordedAt *time.Time
		if err := row.Scan(&p.ID, &p.MemberID, &p.Month, &period, &p.Date, &recordedAt); err != nil {
			return p, err
		}
		if period != nil {
			if m, err := models.ParseMonthKey(*period); err == nil {
				p.Period = m
			}
		}
		if recordedAt != nil {
			p.RecordedAt = recordedAt.UTC()
		}
		storage.ResolvePeriod(&p)
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payments: %w", err)
	}
	return payments, nil
}

// InsertPayment persists a new payment.
func (s *PostgresStore) InsertPayment(ctx context.Context, draft models.PaymentDraft) (models.Payment, error) {
	p := models.Payment{
		ID:         uuid.New().String(),
		MemberID:   draft.MemberID,
		Month:      draft.Month,
		Period:     draft.Period,
		Date:       draft.Date,
		RecordedAt: draft.RecordedAt.UTC().Truncate(time.Microsecond),
	}

	var period *string
	if !p.Period.IsZero() {
		key := p.Period.Key()
		period = &key
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO payments (id, member_id, month, period, date, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.MemberID, p.Month, period, p.Date, p.RecordedAt,
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
func (s *PostgresStore) DeletePayment(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete payment", id, "DELETE FROM payments WHERE id = $1", id)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
