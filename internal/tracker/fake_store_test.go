package tracker

import (
	"context"
	"errors"
	"sync"

	"github.com/mmynk/streamsplit/internal/models"
	"github.com/mmynk/streamsplit/internal/storage/memory"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore wraps the memory store with failure injection and call counting.
type fakeStore struct {
	*memory.Store

	mu sync.Mutex
	// fail makes every call to the named operation return the error.
	fail map[string]error
	// failService makes UpdateServiceMembers fail for one service.
	failService map[string]error
	calls       map[string]int
	updated     map[string]int
	// before runs ahead of every call, outside the lock.
	before func(op string)
}

func newFakeStore(opts ...memory.Option) *fakeStore {
	return &fakeStore{
		Store:       memory.New(opts...),
		fail:        make(map[string]error),
		failService: make(map[string]error),
		calls:       make(map[string]int),
		updated:     make(map[string]int),
	}
}

func (f *fakeStore) setFail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

func (f *fakeStore) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) updateCount(serviceID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updated[serviceID]
}

func (f *fakeStore) enter(op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	before := f.before
	f.mu.Unlock()

	if before != nil {
		before(op)
	}
	return err
}

func (f *fakeStore) ListMembers(ctx context.Context) ([]models.Member, error) {
	if err := f.enter("ListMembers"); err != nil {
		return nil, err
	}
	return f.Store.ListMembers(ctx)
}

func (f *fakeStore) InsertMember(ctx context.Context, name string) (models.Member, error) {
	if err := f.enter("InsertMember"); err != nil {
		return models.Member{}, err
	}
	return f.Store.InsertMember(ctx, name)
}

func (f *fakeStore) DeleteMember(ctx context.Context, id string) error {
	if err := f.enter("DeleteMember"); err != nil {
		return err
	}
	return f.Store.DeleteMember(ctx, id)
}

func (f *fakeStore) ListServices(ctx context.Context) ([]models.Service, error) {
	if err := f.enter("ListServices"); err != nil {
		return nil, err
	}
	return f.Store.ListServices(ctx)
}

func (f *fakeStore) InsertService(ctx context.Context, name string, cost float64) (models.Service, error) {
	if err := f.enter("InsertService"); err != nil {
		return models.Service{}, err
	}
	return f.Store.InsertService(ctx, name, cost)
}

func (f *fakeStore) DeleteService(ctx context.Context, id string) error {
	if err := f.enter("DeleteService"); err != nil {
		return err
	}
	return f.Store.DeleteService(ctx, id)
}

func (f *fakeStore) UpdateServiceMembers(ctx context.Context, id string, memberIDs []string) error {
	if err := f.enter("UpdateServiceMembers"); err != nil {
		return err
	}
	f.mu.Lock()
	f.updated[id]++
	err := f.failService[id]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.UpdateServiceMembers(ctx, id, memberIDs)
}

func (f *fakeStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	if err := f.enter("ListPayments"); err != nil {
		return nil, err
	}
	return f.Store.ListPayments(ctx)
}

func (f *fakeStore) InsertPayment(ctx context.Context, draft models.PaymentDraft) (models.Payment, error) {
	if err := f.enter("InsertPayment"); err != nil {
		return models.Payment{}, err
	}
	return f.Store.InsertPayment(ctx, draft)
}

func (f *fakeStore) DeletePayment(ctx context.Context, id string) error {
	if err := f.enter("DeletePayment"); err != nil {
		return err
	}
	return f.Store.DeletePayment(ctx, id)
}
