package tracker

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/streamsplit/internal/events"
	"github.com/mmynk/streamsplit/internal/models"
	"github.com/mmynk/streamsplit/internal/storage"
)

var testNow = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

var feb2026 = models.Month{Year: 2026, Month: time.February}

// newTestTracker returns a loaded tracker over a store holding two members
// (ana, beto) and three services: netflix (15, both), spotify (10, beto)
// and hbo (8, nobody).
func newTestTracker(t *testing.T) (*Tracker, *fakeStore, *events.Recorder) {
	t.Helper()

	store := newFakeStore()
	store.Seed(models.Snapshot{
		Members: []models.Member{
			{ID: "ana", Name: "Ana"},
			{ID: "beto", Name: "Beto"},
		},
		Services: []models.Service{
			{ID: "netflix", Name: "Netflix", Cost: 15, MemberIDs: []string{"ana", "beto"}},
			{ID: "spotify", Name: "Spotify", Cost: 10, MemberIDs: []string{"beto"}},
			{ID: "hbo", Name: "HBO", Cost: 8, MemberIDs: []string{}},
		},
	})

	rec := &events.Recorder{}
	tr := New(store, WithClock(func() time.Time { return testNow }), WithPublisher(rec))
	require.NoError(t, tr.Load(context.Background()))
	return tr, store, rec
}

func debtOf(t *testing.T, d Dashboard, memberID string) models.MemberDebt {
	t.Helper()
	for _, debt := range d.Debts {
		if debt.MemberID == memberID {
			return debt
		}
	}
	t.Fatalf("no debt for member %s", memberID)
	return models.MemberDebt{}
}

func serviceOf(t *testing.T, tr *Tracker, id string) models.Service {
	t.Helper()
	svc, ok := tr.Snapshot().Service(id)
	require.True(t, ok, "service %s not in snapshot", id)
	return svc
}

func TestLoad_DropsDanglingParticipants(t *testing.T) {
	store := newFakeStore()
	store.Seed(models.Snapshot{
		Members:  []models.Member{{ID: "ana", Name: "Ana"}},
		Services: []models.Service{{ID: "netflix", Name: "Netflix", Cost: 15, MemberIDs: []string{"ghost", "ana"}}},
	})

	tr := New(store, WithClock(func() time.Time { return testNow }))
	require.NoError(t, tr.Load(context.Background()))

	assert.Equal(t, []string{"ana"}, serviceOf(t, tr, "netflix").MemberIDs)
	assert.Equal(t, 1, store.callCount("ListMembers"))
	assert.Equal(t, 1, store.callCount("ListServices"))
	assert.Equal(t, 1, store.callCount("ListPayments"))
}

func TestLoad_FailureKeepsPreviousSnapshot(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	before := tr.Snapshot()

	store.setFail("ListPayments", errStoreDown)
	err := tr.Load(context.Background())

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, OpLoad, pe.Op)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, before, tr.Snapshot())
}

func TestDashboard_SplitsCostAmongParticipants(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	d := tr.Dashboard(feb2026)

	assert.Equal(t, "Febrero De 2026", d.MonthLabel)
	assert.Equal(t, 33.0, d.TotalCost)
	assert.Equal(t, 2, d.MemberCount)
	assert.Equal(t, 3, d.ServiceCount)
	assert.Equal(t, 0, d.PaidCount)

	ana := debtOf(t, d, "ana")
	assert.Equal(t, 7.5, ana.TotalDue)
	assert.Equal(t, "7.50", ana.TotalDueText)
	assert.False(t, ana.Paid)
	assert.Empty(t, ana.PaymentDate)

	beto := debtOf(t, d, "beto")
	assert.Equal(t, "17.50", beto.TotalDueText)

	require.Len(t, d.Services, 3)
	assert.Equal(t, 0, d.Services[2].MemberCount, "hbo has no participants")
	assert.Equal(t, 8.0, d.Services[2].Share, "its full cost is the share when nobody is in it")
}

func TestAddService(t *testing.T) {
	tests := []struct {
		name      string
		svcName   string
		cost      string
		wantCost  float64
		wantField string
	}{
		{name: "decimal point", svcName: "Disney+", cost: "12.5", wantCost: 12.5},
		{name: "decimal comma", svcName: "Disney+", cost: "12,5", wantCost: 12.5},
		{name: "surrounding spaces", svcName: "  Disney+ ", cost: " 99 ", wantCost: 99},
		{name: "empty name", svcName: "  ", cost: "10", wantField: "name"},
		{name: "empty cost", svcName: "Disney+", cost: "", wantField: "cost"},
		{name: "non-numeric cost", svcName: "Disney+", cost: "diez", wantField: "cost"},
		{name: "zero cost", svcName: "Disney+", cost: "0", wantField: "cost"},
		{name: "negative cost", svcName: "Disney+", cost: "-3", wantField: "cost"},
		{name: "infinite cost", svcName: "Disney+", cost: "Inf", wantField: "cost"},
		{name: "hex float cost", svcName: "Disney+", cost: "0x1p4", wantField: "cost"},
		{name: "exponent cost", svcName: "Disney+", cost: "1e3", wantField: "cost"},
		{name: "two separators", svcName: "Disney+", cost: "1.234,5", wantField: "cost"},
		{name: "signed cost", svcName: "Disney+", cost: "+12", wantField: "cost"},
		{name: "leading separator", svcName: "Disney+", cost: ",99", wantCost: 0.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, store, rec := newTestTracker(t)

			svc, err := tr.AddService(context.Background(), tt.svcName, tt.cost)
			if tt.wantField != "" {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
				assert.Equal(t, 0, store.callCount("InsertService"), "validation must not reach the store")
				assert.Len(t, tr.Snapshot().Services, 3)
				assert.Empty(t, rec.Events())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Disney+", svc.Name)
			assert.Equal(t, tt.wantCost, svc.Cost)
			assert.Equal(t, []string{}, svc.MemberIDs)

			services := tr.Snapshot().Services
			require.Len(t, services, 4)
			assert.Equal(t, svc.ID, services[3].ID)
			assert.Equal(t, []events.Type{events.ServiceAdded}, rec.Types())
		})
	}
}

func TestAddService_StoreFailureLeavesSnapshot(t *testing.T) {
	tr, store, rec := newTestTracker(t)
	store.setFail("InsertService", errStoreDown)

	_, err := tr.AddService(context.Background(), "Disney+", "10")

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, OpAddService, pe.Op)
	assert.Len(t, tr.Snapshot().Services, 3)
	assert.Empty(t, rec.Events())
}

func TestRemoveService_KeepsPayments(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.TogglePayment(ctx, "ana", feb2026)
	require.NoError(t, err)

	require.NoError(t, tr.RemoveService(ctx, "netflix"))

	snap := tr.Snapshot()
	assert.Len(t, snap.Services, 2)
	assert.Len(t, snap.Payments, 1)

	err = tr.RemoveService(ctx, "netflix")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddMember(t *testing.T) {
	tr, store, rec := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.AddMember(ctx, "   ")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, store.callCount("InsertMember"))

	m, err := tr.AddMember(ctx, "Carla")
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)

	members := tr.Snapshot().Members
	require.Len(t, members, 3)
	assert.Equal(t, "Carla", members[2].Name)
	assert.Equal(t, []events.Type{events.MemberAdded}, rec.Types())

	store.setFail("InsertMember", errStoreDown)
	_, err = tr.AddMember(ctx, "Dani")
	assert.ErrorIs(t, err, errStoreDown)
	assert.Len(t, tr.Snapshot().Members, 3)
}

func TestToggleMemberInService(t *testing.T) {
	tr, store, rec := newTestTracker(t)
	ctx := context.Background()

	svc, err := tr.ToggleMemberInService(ctx, "spotify", "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"beto", "ana"}, svc.MemberIDs)

	stored, err := store.Store.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beto", "ana"}, stored[1].MemberIDs)

	svc, err = tr.ToggleMemberInService(ctx, "spotify", "beto")
	require.NoError(t, err)
	assert.Equal(t, []string{"ana"}, svc.MemberIDs)

	assert.Equal(t, []events.Type{events.ServiceMembersChanged, events.ServiceMembersChanged}, rec.Types())
}

func TestToggleMemberInService_TwiceRestoresMembership(t *testing.T) {
	for _, serviceID := range []string{"netflix", "spotify", "hbo"} {
		for _, memberID := range []string{"ana", "beto"} {
			t.Run(serviceID+"/"+memberID, func(t *testing.T) {
				tr, store, _ := newTestTracker(t)
				ctx := context.Background()
				before := serviceOf(t, tr, serviceID).MemberIDs

				_, err := tr.ToggleMemberInService(ctx, serviceID, memberID)
				require.NoError(t, err)
				_, err = tr.ToggleMemberInService(ctx, serviceID, memberID)
				require.NoError(t, err)

				after := serviceOf(t, tr, serviceID).MemberIDs
				assert.ElementsMatch(t, before, after)
				assert.Equal(t, 2, store.updateCount(serviceID))
			})
		}
	}
}

func TestToggleMemberInService_RollsBackOnFailure(t *testing.T) {
	tr, store, rec := newTestTracker(t)
	ctx := context.Background()
	before := tr.Snapshot()

	store.setFail("UpdateServiceMembers", errStoreDown)
	_, err := tr.ToggleMemberInService(ctx, "netflix", "ana")

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, OpToggleServiceMember, pe.Op)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, before, tr.Snapshot())
	assert.Empty(t, rec.Events())
}

func TestToggleMemberInService_ShowsChangeBeforeStoreConfirms(t *testing.T) {
	tr, store, _ := newTestTracker(t)

	inFlight := make(chan struct{})
	proceed := make(chan struct{})
	store.before = func(op string) {
		if op == "UpdateServiceMembers" {
			close(inFlight)
			<-proceed
		}
	}
	store.setFail("UpdateServiceMembers", errStoreDown)

	done := make(chan error, 1)
	go func() {
		_, err := tr.ToggleMemberInService(context.Background(), "hbo", "ana")
		done <- err
	}()

	<-inFlight
	assert.Equal(t, []string{"ana"}, serviceOf(t, tr, "hbo").MemberIDs, "optimistic change is visible while persisting")
	close(proceed)

	require.Error(t, <-done)
	assert.Equal(t, []string{}, serviceOf(t, tr, "hbo").MemberIDs)
}

func TestToggleMemberInService_Unknown(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.ToggleMemberInService(ctx, "missing", "ana")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = tr.ToggleMemberInService(ctx, "netflix", "ghost")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "member_id", ve.Field)

	assert.Equal(t, 0, store.callCount("UpdateServiceMembers"))
}

func TestRemoveMember_StripsOnlyAffectedServices(t *testing.T) {
	tr, store, rec := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.RemoveMember(ctx, "ana"))

	snap := tr.Snapshot()
	require.Len(t, snap.Members, 1)
	assert.Equal(t, "beto", snap.Members[0].ID)
	for _, svc := range snap.Services {
		assert.False(t, svc.HasMember("ana"), "service %s still lists ana", svc.ID)
	}

	assert.Equal(t, 1, store.updateCount("netflix"))
	assert.Equal(t, 0, store.updateCount("spotify"), "unrelated services are not touched")
	assert.Equal(t, 0, store.updateCount("hbo"))

	stored, err := store.Store.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beto"}, stored[0].MemberIDs)
	assert.Equal(t, []string{"beto"}, stored[1].MemberIDs)

	assert.Equal(t, []events.Type{events.MemberRemoved}, rec.Types())

	d := tr.Dashboard(feb2026)
	assert.Equal(t, "25.00", debtOf(t, d, "beto").TotalDueText)
}

func TestRemoveMember_CascadeFailure(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.ToggleMemberInService(ctx, "spotify", "ana")
	require.NoError(t, err)

	store.mu.Lock()
	store.failService["spotify"] = errStoreDown
	store.mu.Unlock()

	err = tr.RemoveMember(ctx, "ana")

	var ce *CascadeError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "ana", ce.MemberID)
	assert.Equal(t, []string{"spotify"}, ce.ServiceIDs())
	assert.ErrorIs(t, err, errStoreDown)

	snap := tr.Snapshot()
	assert.Len(t, snap.Members, 1)
	for _, svc := range snap.Services {
		assert.False(t, svc.HasMember("ana"))
	}

	stored, err := store.Store.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beto"}, stored[0].MemberIDs, "netflix was updated")
	assert.Equal(t, []string{"beto", "ana"}, stored[1].MemberIDs, "spotify kept the stale id")
}

func TestRemoveMember_StoreFailureChangesNothing(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	before := tr.Snapshot()

	store.setFail("DeleteMember", errStoreDown)
	err := tr.RemoveMember(context.Background(), "ana")

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, before, tr.Snapshot())
	assert.Equal(t, 0, store.callCount("UpdateServiceMembers"))
}

func TestRemoveMember_WaitsForInFlightToggle(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	ctx := context.Background()

	inFlight := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	store.before = func(op string) {
		if op != "UpdateServiceMembers" {
			return
		}
		once.Do(func() {
			close(inFlight)
			<-proceed
			// Only the toggle's write fails.
			store.setFail("UpdateServiceMembers", nil)
		})
	}
	store.setFail("UpdateServiceMembers", errStoreDown)

	toggled := make(chan error, 1)
	go func() {
		_, err := tr.ToggleMemberInService(ctx, "netflix", "ana")
		toggled <- err
	}()
	<-inFlight

	removed := make(chan error, 1)
	go func() { removed <- tr.RemoveMember(ctx, "ana") }()
	require.Eventually(t, func() bool { return store.callCount("DeleteMember") == 1 }, time.Second, time.Millisecond)

	select {
	case err := <-removed:
		t.Fatalf("RemoveMember returned %v while a toggle on netflix was still persisting", err)
	case <-time.After(30 * time.Millisecond):
	}

	close(proceed)
	assert.ErrorIs(t, <-toggled, errStoreDown)
	require.NoError(t, <-removed)

	assert.Equal(t, []string{"beto"}, serviceOf(t, tr, "netflix").MemberIDs)
	stored, err := store.Store.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beto"}, stored[0].MemberIDs)
	assert.Equal(t, "25.00", debtOf(t, tr.Dashboard(feb2026), "beto").TotalDueText)
	assert.Equal(t, 0, tr.guard.size())
}

func TestToggleMemberInService_RollbackKeepsRemovedMemberOut(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	err := runOptimistic(context.Background(), tr, optimistic[models.Service]{
		op: OpToggleServiceMember,
		capture: func(s *models.Snapshot) (models.Service, error) {
			svc, _ := s.Service("netflix")
			return svc, nil
		},
		apply: func(s *models.Snapshot) {
			// ana leaves while the update is being persisted.
			s.Members = slices.DeleteFunc(s.Members, func(m models.Member) bool { return m.ID == "ana" })
			setServiceMembers(s, "netflix", []string{"beto"})
		},
		persist: func(context.Context) error { return errStoreDown },
		restore: restoreServiceMembers,
	})
	require.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, []string{"beto"}, serviceOf(t, tr, "netflix").MemberIDs)
}

func TestTogglePayment_WaitsForMemberRemoval(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	ctx := context.Background()

	deleting := make(chan struct{})
	proceed := make(chan struct{})
	store.before = func(op string) {
		if op == "DeleteMember" {
			close(deleting)
			<-proceed
		}
	}

	removed := make(chan error, 1)
	go func() { removed <- tr.RemoveMember(ctx, "ana") }()
	<-deleting

	toggled := make(chan error, 1)
	go func() {
		_, err := tr.TogglePayment(ctx, "ana", feb2026)
		toggled <- err
	}()

	select {
	case err := <-toggled:
		t.Fatalf("TogglePayment returned %v while ana was being removed", err)
	case <-time.After(30 * time.Millisecond):
	}

	close(proceed)
	require.NoError(t, <-removed)

	var ve *ValidationError
	require.ErrorAs(t, <-toggled, &ve)
	assert.Equal(t, "member_id", ve.Field)
	assert.Equal(t, 0, store.callCount("InsertPayment"))
	assert.Empty(t, tr.Snapshot().Payments)
}

func TestTogglePayment_MarkAndUnmark(t *testing.T) {
	tr, store, rec := newTestTracker(t)
	ctx := context.Background()

	res, err := tr.TogglePayment(ctx, "ana", feb2026)
	require.NoError(t, err)
	assert.True(t, res.Paid)
	assert.Equal(t, "febrero de 2026", res.Payment.Month)
	assert.Equal(t, "15/10/2026", res.Payment.Date, "the date is when the payment was marked")

	d := tr.Dashboard(feb2026)
	ana := debtOf(t, d, "ana")
	assert.True(t, ana.Paid)
	assert.Equal(t, "15/10/2026", ana.PaymentDate)
	assert.False(t, debtOf(t, d, "beto").Paid)
	assert.Equal(t, 1, d.PaidCount)

	assert.False(t, debtOf(t, tr.Dashboard(feb2026.Next()), "ana").Paid, "other months stay unpaid")

	res, err = tr.TogglePayment(ctx, "ana", feb2026)
	require.NoError(t, err)
	assert.False(t, res.Paid)
	assert.False(t, debtOf(t, tr.Dashboard(feb2026), "ana").Paid)
	assert.Empty(t, tr.Snapshot().Payments)
	assert.Equal(t, 1, store.callCount("DeletePayment"))

	assert.Equal(t, []events.Type{events.PaymentMarked, events.PaymentUnmarked}, rec.Types())
}

func TestTogglePayment_LegacyLabelIsUnmarked(t *testing.T) {
	store := newFakeStore()
	store.Seed(models.Snapshot{
		Members: []models.Member{{ID: "ana", Name: "Ana"}},
		Payments: []models.Payment{
			{ID: "old", MemberID: "ana", Month: "febrero de 2026", Date: "3/2/2026"},
		},
	})
	tr := New(store, WithClock(func() time.Time { return testNow }))
	require.NoError(t, tr.Load(context.Background()))

	assert.True(t, debtOf(t, tr.Dashboard(feb2026), "ana").Paid)

	res, err := tr.TogglePayment(context.Background(), "ana", feb2026)
	require.NoError(t, err)
	assert.False(t, res.Paid)
	assert.Equal(t, "old", res.Payment.ID)
}

func TestTogglePayment_Failures(t *testing.T) {
	t.Run("insert failure leaves member unpaid", func(t *testing.T) {
		tr, store, rec := newTestTracker(t)
		store.setFail("InsertPayment", errStoreDown)

		_, err := tr.TogglePayment(context.Background(), "ana", feb2026)

		var pe *PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, OpTogglePayment, pe.Op)
		assert.False(t, debtOf(t, tr.Dashboard(feb2026), "ana").Paid)
		assert.Empty(t, rec.Events())
	})

	t.Run("delete failure leaves member paid", func(t *testing.T) {
		tr, store, _ := newTestTracker(t)
		_, err := tr.TogglePayment(context.Background(), "ana", feb2026)
		require.NoError(t, err)

		store.setFail("DeletePayment", errStoreDown)
		_, err = tr.TogglePayment(context.Background(), "ana", feb2026)
		require.Error(t, err)
		assert.True(t, debtOf(t, tr.Dashboard(feb2026), "ana").Paid)
	})

	t.Run("unknown member", func(t *testing.T) {
		tr, store, _ := newTestTracker(t)
		_, err := tr.TogglePayment(context.Background(), "ghost", feb2026)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, 0, store.callCount("InsertPayment"))
	})

	t.Run("zero month", func(t *testing.T) {
		tr, _, _ := newTestTracker(t)
		_, err := tr.TogglePayment(context.Background(), "ana", models.Month{})

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "month", ve.Field)
	})
}

func TestTogglePayment_ConcurrentTogglesSerialize(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	store.before = func(op string) {
		if op == "InsertPayment" || op == "DeletePayment" {
			time.Sleep(10 * time.Millisecond)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.TogglePayment(context.Background(), "ana", feb2026)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.False(t, debtOf(t, tr.Dashboard(feb2026), "ana").Paid, "mark then unmark")
	assert.Equal(t, 1, store.callCount("InsertPayment"))
	assert.Equal(t, 1, store.callCount("DeletePayment"))
	assert.Equal(t, 0, tr.guard.size())
}

func TestPublishFailureDoesNotUndoMutation(t *testing.T) {
	store := newFakeStore()
	tr := New(store, WithClock(func() time.Time { return testNow }), WithPublisher(failingPublisher{}))

	m, err := tr.AddMember(context.Background(), "Ana")
	require.NoError(t, err)
	assert.Len(t, tr.Snapshot().Members, 1)
	assert.Equal(t, m.ID, tr.Snapshot().Members[0].ID)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error { return errors.New("broker down") }
func (failingPublisher) Close() error                                { return nil }

func TestSnapshotIsACopy(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	snap := tr.Snapshot()
	snap.Services[0].MemberIDs[0] = "mutated"
	snap.Members = nil

	assert.Equal(t, []string{"ana", "beto"}, serviceOf(t, tr, "netflix").MemberIDs)
	assert.Len(t, tr.Snapshot().Members, 2)
}
