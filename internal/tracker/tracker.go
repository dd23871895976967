// Package tracker holds the set of transaction identities the process has
// already seen.
//
// The set is rebuilt from the store on every start and only ever grows while
// the process runs. The store stays the source of truth; the tracker exists so
// the sync cycle can skip known records without a store round trip per
// candidate.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// IdentitySource lists stored identities dated at or after a point in time.
// *store.Store satisfies it.
type IdentitySource interface {
	IdentitiesSince(ctx context.Context, since time.Time) ([]string, error)
}

// Tracker is a grow-only set of identities.
//
// Thread-safety: all methods are safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	known map[string]struct{}
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{known: make(map[string]struct{})}
}

// Bootstrap loads every identity the source holds for dates at or after
// since. It returns the number of identities added.
func (t *Tracker) Bootstrap(ctx context.Context, src IdentitySource, since time.Time) (int, error) {
	ids, err := src.IdentitiesSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("bootstrap tracker: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	added := 0
	for _, id := range ids {
		if _, ok := t.known[id]; ok {
			continue
		}
		t.known[id] = struct{}{}
		added++
	}
	return added, nil
}

// Has reports whether identity was seen.
func (t *Tracker) Has(identity string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.known[identity]
	return ok
}

// Add records identity as seen. It reports false if it was already known.
func (t *Tracker) Add(identity string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.known[identity]; ok {
		return false
	}
	t.known[identity] = struct{}{}
	return true
}

// Len returns the number of known identities.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.known)
}

// Lookback returns the bootstrap window start for a fetch window of
// daysAgo days plus margin days, measured back from now.
//
// The window must cover everything the sync cycle can re-fetch, otherwise an
// old record would look new again and be inserted twice.
func Lookback(now time.Time, daysAgo, margin int) time.Time {
	return now.AddDate(0, 0, -(daysAgo + margin))
}
