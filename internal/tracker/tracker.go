// Package tracker owns the in-memory household snapshot and keeps it in sync
// with the store. Every mutation goes through a Tracker.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/streamsplit/internal/calculator"
	"github.com/mmynk/streamsplit/internal/events"
	"github.com/mmynk/streamsplit/internal/metrics"
	"github.com/mmynk/streamsplit/internal/models"
	"github.com/mmynk/streamsplit/internal/storage"
)

// Operation names used in errors, logs and metrics.
const (
	OpLoad                = "load"
	OpAddMember           = "add_member"
	OpRemoveMember        = "remove_member"
	OpAddService          = "add_service"
	OpRemoveService       = "remove_service"
	OpToggleServiceMember = "toggle_service_member"
	OpTogglePayment       = "toggle_payment"
)

// Tracker is the sole mutator of the snapshot. It is safe for concurrent use.
type Tracker struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	guard     *guard

	mu   sync.RWMutex
	snap models.Snapshot
	view viewState
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock used for payment dates and the initial month.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithPublisher sets where confirmed mutations are announced.
func WithPublisher(p events.Publisher) Option {
	return func(t *Tracker) { t.publisher = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New creates a Tracker with an empty snapshot. Call Load to fill it.
func New(store storage.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		publisher: events.Nop{},
		logger:    slog.Default(),
		now:       time.Now,
		guard:     newGuard(),
		snap: models.Snapshot{
			Members:  []models.Member{},
			Services: []models.Service{},
			Payments: []models.Payment{},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.view = viewState{
		month:  models.MonthOf(t.now()),
		filter: defaultFilter(t),
	}
	return t
}

// Snapshot returns a deep copy of the current state.
func (t *Tracker) Snapshot() models.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.Clone()
}

// Load replaces the snapshot with the store contents. Participant IDs that
// refer to members that no longer exist are dropped from the local view.
func (t *Tracker) Load(ctx context.Context) error {
	var (
		members  []models.Member
		services []models.Service
		payments []models.Payment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = timed(t, "list_members", func() ([]models.Member, error) { return t.store.ListMembers(gctx) })
		return err
	})
	g.Go(func() error {
		var err error
		services, err = timed(t, "list_services", func() ([]models.Service, error) { return t.store.ListServices(gctx) })
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = timed(t, "list_payments", func() ([]models.Payment, error) { return t.store.ListPayments(gctx) })
		return err
	})
	if err := g.Wait(); err != nil {
		t.metrics.Mutation(OpLoad, metrics.OutcomeFailed)
		return &PersistenceError{Op: OpLoad, Err: err}
	}

	known := make(map[string]bool, len(members))
	for _, m := range members {
		known[m.ID] = true
	}
	for i, svc := range services {
		var dangling []string
		kept := make([]string, 0, len(svc.MemberIDs))
		for _, id := range svc.MemberIDs {
			if known[id] {
				kept = append(kept, id)
			} else {
				dangling = append(dangling, id)
			}
		}
		if len(dangling) > 0 {
			t.logger.Warn("Dropping unknown members from service",
				"service_id", svc.ID,
				"member_ids", dangling)
		}
		services[i].MemberIDs = kept
	}

	t.mu.Lock()
	t.snap = models.Snapshot{Members: members, Services: services, Payments: payments}
	t.mu.Unlock()

	t.metrics.Mutation(OpLoad, metrics.OutcomeOK)
	t.logger.Debug("Snapshot loaded",
		"members", len(members),
		"services", len(services),
		"payments", len(payments))
	return nil
}

// AddMember creates a member. The snapshot changes only after the store confirms.
func (t *Tracker) AddMember(ctx context.Context, name string) (models.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		t.metrics.Mutation(OpAddMember, metrics.OutcomeRejected)
		return models.Member{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	m, err := timed(t, "insert_member", func() (models.Member, error) { return t.store.InsertMember(ctx, name) })
	if err != nil {
		return models.Member{}, t.failed(OpAddMember, err)
	}

	t.mu.Lock()
	t.snap.Members = append(t.snap.Members, m)
	t.mu.Unlock()

	t.succeeded(ctx, OpAddMember, events.Event{Type: events.MemberAdded, MemberID: m.ID, Name: m.Name})
	return m, nil
}

// RemoveMember deletes a member and then removes it from every service it
// belonged to, locally and in the store. Services whose update fails are
// reported in a *CascadeError; the member stays deleted either way.
func (t *Tracker) RemoveMember(ctx context.Context, id string) error {
	release, err := t.guard.acquire(ctx, memberKey(id))
	if err != nil {
		return err
	}
	defer release()

	if err := timedErr(t, "delete_member", func() error { return t.store.DeleteMember(ctx, id) }); err != nil {
		return t.failed(OpRemoveMember, err)
	}

	// Participant updates already in flight finish (or roll back) before the
	// affected services are decided, so none of them can put the member back.
	t.mu.RLock()
	held := make(map[string]bool, len(t.snap.Services))
	keys := make([]string, 0, len(t.snap.Services))
	for _, svc := range t.snap.Services {
		held[svc.ID] = true
		keys = append(keys, serviceKey(svc.ID))
	}
	t.mu.RUnlock()

	releaseServices, err := t.guard.acquireAll(context.WithoutCancel(ctx), keys)
	if err != nil {
		return err
	}
	defer releaseServices()

	var affected []string
	t.mu.Lock()
	t.snap.Members = slices.DeleteFunc(t.snap.Members, func(m models.Member) bool { return m.ID == id })
	for i, svc := range t.snap.Services {
		if svc.HasMember(id) {
			affected = append(affected, svc.ID)
			t.snap.Services[i].MemberIDs = svc.WithoutMember(id)
		}
	}
	t.mu.Unlock()

	failed := make(map[string]error)
	push := func(serviceID string) {
		if err := t.pushServiceMembers(ctx, serviceID); err != nil {
			t.logger.Warn("Failed to remove member from service",
				"member_id", id,
				"service_id", serviceID,
				"error", err)
			failed[serviceID] = err
		}
	}

	// Services created after the keys were taken are pushed once the held
	// keys are released, keeping the acquisition order sorted.
	var late []string
	for _, serviceID := range affected {
		if held[serviceID] {
			push(serviceID)
		} else {
			late = append(late, serviceID)
		}
	}
	releaseServices()
	for _, serviceID := range late {
		releaseLate, err := t.guard.acquire(ctx, serviceKey(serviceID))
		if err != nil {
			failed[serviceID] = err
			continue
		}
		push(serviceID)
		releaseLate()
	}

	if len(failed) > 0 {
		t.metrics.Mutation(OpRemoveMember, metrics.OutcomeFailed)
		t.publish(ctx, events.Event{Type: events.MemberRemoved, MemberID: id})
		return &CascadeError{MemberID: id, Failed: failed}
	}

	t.succeeded(ctx, OpRemoveMember, events.Event{Type: events.MemberRemoved, MemberID: id})
	return nil
}

// pushServiceMembers writes the local participant list of one service to the
// store. The caller holds the service key.
func (t *Tracker) pushServiceMembers(ctx context.Context, serviceID string) error {
	t.mu.RLock()
	svc, ok := t.snap.Service(serviceID)
	t.mu.RUnlock()
	if !ok {
		// Removed meanwhile; nothing left to fix.
		return nil
	}

	return timedErr(t, "update_service_members", func() error {
		return t.store.UpdateServiceMembers(ctx, serviceID, svc.MemberIDs)
	})
}

// AddService creates a service with no participants. cost accepts a decimal
// point or a decimal comma ("12.5", "12,5").
func (t *Tracker) AddService(ctx context.Context, name, cost string) (models.Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		t.metrics.Mutation(OpAddService, metrics.OutcomeRejected)
		return models.Service{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	amount, err := ParseCost(cost)
	if err != nil {
		t.metrics.Mutation(OpAddService, metrics.OutcomeRejected)
		return models.Service{}, err
	}

	svc, err := timed(t, "insert_service", func() (models.Service, error) { return t.store.InsertService(ctx, name, amount) })
	if err != nil {
		return models.Service{}, t.failed(OpAddService, err)
	}

	t.mu.Lock()
	t.snap.Services = append(t.snap.Services, svc.Clone())
	t.mu.Unlock()

	t.succeeded(ctx, OpAddService, events.Event{Type: events.ServiceAdded, ServiceID: svc.ID, Name: svc.Name})
	return svc, nil
}

// costPattern accepts plain decimal numbers with at most one separator.
var costPattern = regexp.MustCompile(`^(\d+([.,]\d*)?|[.,]\d+)$`)

// ParseCost parses a positive monthly cost.
func ParseCost(cost string) (float64, error) {
	cost = strings.TrimSpace(cost)
	if cost == "" {
		return 0, &ValidationError{Field: "cost", Reason: "must not be empty"}
	}
	if !costPattern.MatchString(cost) {
		return 0, &ValidationError{Field: "cost", Reason: fmt.Sprintf("%q is not a number", cost)}
	}
	v, err := strconv.ParseFloat(strings.Replace(cost, ",", ".", 1), 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, &ValidationError{Field: "cost", Reason: fmt.Sprintf("%q is not a number", cost)}
	}
	if v <= 0 {
		return 0, &ValidationError{Field: "cost", Reason: "must be positive"}
	}
	return v, nil
}

// RemoveService deletes a service. Payments are not affected.
func (t *Tracker) RemoveService(ctx context.Context, id string) error {
	release, err := t.guard.acquire(ctx, serviceKey(id))
	if err != nil {
		return err
	}
	defer release()

	if err := timedErr(t, "delete_service", func() error { return t.store.DeleteService(ctx, id) }); err != nil {
		return t.failed(OpRemoveService, err)
	}

	t.mu.Lock()
	t.snap.Services = slices.DeleteFunc(t.snap.Services, func(s models.Service) bool { return s.ID == id })
	t.mu.Unlock()

	t.succeeded(ctx, OpRemoveService, events.Event{Type: events.ServiceRemoved, ServiceID: id})
	return nil
}

// ToggleMemberInService adds memberID to the service or removes it when
// already present. The change is visible immediately and undone if the
// store rejects it.
func (t *Tracker) ToggleMemberInService(ctx context.Context, serviceID, memberID string) (models.Service, error) {
	release, err := t.guard.acquire(ctx, serviceKey(serviceID))
	if err != nil {
		return models.Service{}, err
	}
	defer release()

	var next []string
	err = runOptimistic(ctx, t, optimistic[models.Service]{
		op: OpToggleServiceMember,
		capture: func(s *models.Snapshot) (models.Service, error) {
			svc, ok := s.Service(serviceID)
			if !ok {
				return models.Service{}, fmt.Errorf("service %s: %w", serviceID, storage.ErrNotFound)
			}
			if _, ok := s.Member(memberID); !ok && !svc.HasMember(memberID) {
				return models.Service{}, &ValidationError{Field: "member_id", Reason: fmt.Sprintf("unknown member %s", memberID)}
			}
			next = svc.WithMemberToggled(memberID)
			return svc, nil
		},
		apply: func(s *models.Snapshot) {
			setServiceMembers(s, serviceID, slices.Clone(next))
		},
		persist: func(ctx context.Context) error {
			return timedErr(t, "update_service_members", func() error {
				return t.store.UpdateServiceMembers(ctx, serviceID, next)
			})
		},
		restore: func(s *models.Snapshot, prev models.Service) {
			restoreServiceMembers(s, prev)
		},
	})
	if err != nil {
		var pe *PersistenceError
		if errors.As(err, &pe) {
			t.metrics.Mutation(OpToggleServiceMember, metrics.OutcomeFailed)
		} else {
			t.metrics.Mutation(OpToggleServiceMember, metrics.OutcomeRejected)
		}
		return models.Service{}, err
	}

	t.mu.RLock()
	svc, _ := t.snap.Service(serviceID)
	t.mu.RUnlock()

	t.succeeded(ctx, OpToggleServiceMember, events.Event{
		Type:      events.ServiceMembersChanged,
		ServiceID: serviceID,
		MemberID:  memberID,
		MemberIDs: slices.Clone(next),
	})
	return svc, nil
}

// restoreServiceMembers puts back the participant list of prev. A member
// removed while the update was persisting stays out.
func restoreServiceMembers(s *models.Snapshot, prev models.Service) {
	ids := slices.DeleteFunc(slices.Clone(prev.MemberIDs), func(id string) bool {
		_, ok := s.Member(id)
		return !ok
	})
	setServiceMembers(s, prev.ID, ids)
}

func setServiceMembers(s *models.Snapshot, serviceID string, ids []string) {
	for i := range s.Services {
		if s.Services[i].ID == serviceID {
			s.Services[i].MemberIDs = ids
			return
		}
	}
}

// PaymentToggle is the outcome of TogglePayment.
type PaymentToggle struct {
	// Paid is the payment state after the toggle.
	Paid bool

	// Payment is the created payment when Paid, or the deleted one otherwise.
	Payment models.Payment
}

// TogglePayment marks memberID as paid for target, or unmarks it when a
// payment already exists. The payment date is the moment of the call, not
// the target month. Nothing changes locally until the store confirms.
func (t *Tracker) TogglePayment(ctx context.Context, memberID string, target models.Month) (PaymentToggle, error) {
	if target.IsZero() {
		t.metrics.Mutation(OpTogglePayment, metrics.OutcomeRejected)
		return PaymentToggle{}, &ValidationError{Field: "month", Reason: "must be set"}
	}

	// The member key keeps a removal from landing between the lookup and the insert.
	releaseMember, err := t.guard.acquire(ctx, memberKey(memberID))
	if err != nil {
		return PaymentToggle{}, err
	}
	defer releaseMember()

	release, err := t.guard.acquire(ctx, paymentKey(memberID, target.Key()))
	if err != nil {
		return PaymentToggle{}, err
	}
	defer release()

	t.mu.RLock()
	_, known := t.snap.Member(memberID)
	existing, paid := calculator.FindPayment(t.snap.Payments, memberID, target)
	t.mu.RUnlock()

	if paid {
		return t.unmarkPaid(ctx, existing)
	}
	if !known {
		t.metrics.Mutation(OpTogglePayment, metrics.OutcomeRejected)
		return PaymentToggle{}, &ValidationError{Field: "member_id", Reason: fmt.Sprintf("unknown member %s", memberID)}
	}
	return t.markPaid(ctx, memberID, target)
}

func (t *Tracker) markPaid(ctx context.Context, memberID string, target models.Month) (PaymentToggle, error) {
	draft := models.NewPaymentDraft(memberID, target, t.now())
	p, err := timed(t, "insert_payment", func() (models.Payment, error) { return t.store.InsertPayment(ctx, draft) })
	if err != nil {
		return PaymentToggle{}, t.failed(OpTogglePayment, err)
	}

	t.mu.Lock()
	t.snap.Payments = slices.Insert(t.snap.Payments, 0, p)
	t.mu.Unlock()

	t.succeeded(ctx, OpTogglePayment, events.Event{
		Type:      events.PaymentMarked,
		MemberID:  memberID,
		PaymentID: p.ID,
		Month:     p.Month,
	})
	return PaymentToggle{Paid: true, Payment: p}, nil
}

func (t *Tracker) unmarkPaid(ctx context.Context, p models.Payment) (PaymentToggle, error) {
	if err := timedErr(t, "delete_payment", func() error { return t.store.DeletePayment(ctx, p.ID) }); err != nil {
		return PaymentToggle{}, t.failed(OpTogglePayment, err)
	}

	t.mu.Lock()
	t.snap.Payments = slices.DeleteFunc(t.snap.Payments, func(x models.Payment) bool { return x.ID == p.ID })
	t.mu.Unlock()

	t.succeeded(ctx, OpTogglePayment, events.Event{
		Type:      events.PaymentUnmarked,
		MemberID:  p.MemberID,
		PaymentID: p.ID,
		Month:     p.Month,
	})
	return PaymentToggle{Paid: false, Payment: p}, nil
}

func (t *Tracker) failed(op string, err error) error {
	t.metrics.Mutation(op, metrics.OutcomeFailed)
	t.logger.Warn("Store call failed", "op", op, "error", err)
	return &PersistenceError{Op: op, Err: err}
}

func (t *Tracker) succeeded(ctx context.Context, op string, e events.Event) {
	t.metrics.Mutation(op, metrics.OutcomeOK)
	t.publish(ctx, e)
}

// publish is best effort: a confirmed mutation is never undone because the
// announcement failed.
func (t *Tracker) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = t.now()
	if err := t.publisher.Publish(ctx, e); err != nil {
		t.logger.Warn("Failed to publish event", "type", e.Type, "error", err)
	}
}

func timed[T any](t *Tracker, op string, call func() (T, error)) (T, error) {
	defer t.metrics.ObserveStoreCall(op, time.Now())
	return call()
}

func timedErr(t *Tracker, op string, call func() error) error {
	defer t.metrics.ObserveStoreCall(op, time.Now())
	return call()
}
