package tracker

import (
	"context"

	"github.com/mmynk/streamsplit/internal/models"
)

// optimistic describes a mutation that is shown locally before the store
// confirms it. T is whatever capture needs to hand back to restore.
type optimistic[T any] struct {
	op string

	// capture reads the state that apply will overwrite. A non-nil error
	// aborts the mutation before anything changes.
	capture func(s *models.Snapshot) (T, error)
	apply   func(s *models.Snapshot)
	persist func(ctx context.Context) error

	// restore must only touch what apply changed, so unrelated mutations that
	// landed while persist was running survive a rollback.
	restore func(s *models.Snapshot, prev T)
}

// runOptimistic applies o under the snapshot lock, persists it without the
// lock and restores the captured state if persisting fails.
func runOptimistic[T any](ctx context.Context, t *Tracker, o optimistic[T]) error {
	t.mu.Lock()
	prev, err := o.capture(&t.snap)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	o.apply(&t.snap)
	t.mu.Unlock()

	if err := o.persist(ctx); err != nil {
		t.mu.Lock()
		o.restore(&t.snap, prev)
		t.mu.Unlock()

		t.metrics.Rollback(o.op)
		t.logger.Warn("Rolled back optimistic update", "op", o.op, "error", err)
		return &PersistenceError{Op: o.op, Err: err}
	}
	return nil
}
