// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/streamsplit/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a payment already exists for the same member and month.
	ErrConflict = errors.New("conflict")
)

// Store defines the persistence operations over the members, services and
// payments tables. Every list call returns a full snapshot of its table.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, memory)
// without changing the tracker.
type Store interface {
	// ListMembers returns all members ordered by creation time.
	ListMembers(ctx context.Context) ([]models.Member, error)

	// InsertMember persists a new member and returns it with its assigned ID.
	InsertMember(ctx context.Context, name string) (models.Member, error)

	// DeleteMember removes a member. Returns ErrNotFound for unknown IDs.
	DeleteMember(ctx context.Context, id string) error

	// ListServices returns all services ordered by creation time.
	ListServices(ctx context.Context) ([]models.Service, error)

	// InsertService persists a new service with no participants.
	InsertService(ctx context.Context, name string, cost float64) (models.Service, error)

	// DeleteService removes a service. Payments are not affected.
	DeleteService(ctx context.Context, id string) error

	// UpdateServiceMembers replaces the participant list of a service.
	UpdateServiceMembers(ctx context.Context, id string, memberIDs []string) error

	// ListPayments returns all payments, most recently recorded first.
	ListPayments(ctx context.Context) ([]models.Payment, error)

	// InsertPayment persists a payment. Returns ErrConflict when the member
	// already has a payment for the same month label.
	InsertPayment(ctx context.Context, draft models.PaymentDraft) (models.Payment, error)

	// DeletePayment removes a payment. Returns ErrNotFound for unknown IDs.
	DeletePayment(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// ResolvePeriod fills in the structured period of a payment read from a
// store, parsing the legacy label when no period was stored.
func ResolvePeriod(p *models.Payment) {
	if !p.Period.IsZero() {
		return
	}
	if m, err := models.ParseMonthLabel(p.Month); err == nil {
		p.Period = m
	}
}
