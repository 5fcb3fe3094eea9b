package tracker

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"
)

// guard hands out one in-flight slot per entity key. Slots are created on
// demand and dropped once nobody holds or waits for them.
type guard struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  *semaphore.Weighted
	refs int
}

func newGuard() *guard {
	return &guard{slots: make(map[string]*slot)}
}

// acquire blocks until key is free or ctx is done.
func (g *guard) acquire(ctx context.Context, key string) (release func(), err error) {
	g.mu.Lock()
	s, ok := g.slots[key]
	if !ok {
		s = &slot{sem: semaphore.NewWeighted(1)}
		g.slots[key] = s
	}
	s.refs++
	g.mu.Unlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		g.drop(key, s)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.sem.Release(1)
			g.drop(key, s)
		})
	}, nil
}

// acquireAll takes every key in sorted order so two callers locking
// overlapping sets cannot deadlock. The returned release is idempotent.
func (g *guard) acquireAll(ctx context.Context, keys []string) (release func(), err error) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	releases := make([]func(), 0, len(keys))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, key := range keys {
		r, err := g.acquire(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, r)
	}
	return releaseAll, nil
}

func (g *guard) drop(key string, s *slot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(g.slots, key)
	}
}

// size reports how many keys currently have a slot.
func (g *guard) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.slots)
}

func serviceKey(id string) string { return "service:" + id }
func memberKey(id string) string  { return "member:" + id }
func paymentKey(memberID, month string) string {
	return "payment:" + memberID + ":" + month
}
