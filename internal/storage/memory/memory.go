// Package memory provides an in-process implementation of storage.Store for
// development and tests. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/streamsplit/internal/models"
	"github.com/mmynk/streamsplit/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps the three tables in slices guarded by a mutex.
type Store struct {
	mu       sync.Mutex
	members  []models.Member
	services []models.Service
	payments []models.Payment
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.members), nil
}

func (s *Store) InsertMember(ctx context.Context, name string) (models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := models.Member{ID: uuid.New().String(), Name: name, CreatedAt: s.now()}
	s.members = append(s.members, m)
	return m, nil
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.members, func(m models.Member) bool { return m.ID == id })
	if i < 0 {
		return fmt.Errorf("delete member %s: %w", id, storage.ErrNotFound)
	}
	s.members = slices.Delete(s.members, i, i+1)
	return nil
}

func (s *Store) ListServices(ctx context.Context) ([]models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Service, len(s.services))
	for i, svc := range s.services {
		out[i] = svc.Clone()
	}
	return out, nil
}

func (s *Store) InsertService(ctx context.Context, name string, cost float64) (models.Service, error) {
	if cost <= 0 {
		return models.Service{}, fmt.Errorf("failed to insert service: cost must be positive, got %v", cost)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	svc := models.Service{
		ID:        uuid.New().String(),
		Name:      name,
		Cost:      cost,
		MemberIDs: []string{},
		CreatedAt: s.now(),
	}
	s.services = append(s.services, svc)
	return svc.Clone(), nil
}

func (s *Store) DeleteService(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.serviceIndex(id)
	if i < 0 {
		return fmt.Errorf("delete service %s: %w", id, storage.ErrNotFound)
	}
	s.services = slices.Delete(s.services, i, i+1)
	return nil
}

func (s *Store) UpdateServiceMembers(ctx context.Context, id string, memberIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.serviceIndex(id)
	if i < 0 {
		return fmt.Errorf("update service members %s: %w", id, storage.ErrNotFound)
	}
	ids := slices.Clone(memberIDs)
	if ids == nil {
		ids = []string{}
	}
	s.services[i].MemberIDs = ids
	return nil
}

func (s *Store) serviceIndex(id string) int {
	return slices.IndexFunc(s.services, func(svc models.Service) bool { return svc.ID == id })
}

// ListPayments returns payments newest first.
func (s *Store) ListPayments(ctx context.Context) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.payments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	for i := range out {
		storage.ResolvePeriod(&out[i])
	}
	return out, nil
}

// InsertPayment enforces the same (member, month) uniqueness as the SQL schemas.
func (s *Store) InsertPayment(ctx context.Context, draft models.PaymentDraft) (models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.MemberID == draft.MemberID && p.Month == draft.Month {
			return models.Payment{}, fmt.Errorf("payment for member %s in %q: %w", draft.MemberID, draft.Month, storage.ErrConflict)
		}
	}

	p := models.Payment{
		ID:         uuid.New().String(),
		MemberID:   draft.MemberID,
		Month:      draft.Month,
		Period:     draft.Period,
		Date:       draft.Date,
		RecordedAt: draft.RecordedAt,
	}
	s.payments = append(s.payments, p)
	return p, nil
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.payments, func(p models.Payment) bool { return p.ID == id })
	if i < 0 {
		return fmt.Errorf("delete payment %s: %w", id, storage.ErrNotFound)
	}
	s.payments = slices.Delete(s.payments, i, i+1)
	return nil
}

// Seed replaces the store contents. Used to load fixtures, including legacy
// payments that carry only a label.
func (s *Store) Seed(snap models.Snapshot) {
	clone := snap.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = clone.Members
	s.services = clone.Services
	s.payments = clone.Payments
}
