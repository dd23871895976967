package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/roach88/bankwatch/internal/record"
	"github.com/roach88/bankwatch/internal/store"
)

// OpenStore opens a store in a temp directory, closed on cleanup.
func OpenStore(t *testing.T, now func() time.Time) *store.Store {
	t.Helper()
	opts := []store.Option{}
	if now != nil {
		opts = append(opts, store.WithClock(now))
	}
	st, err := store.Open(filepath.Join(t.TempDir(), "bankwatch.db"), opts...)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// FaultyStore wraps a real store and injects failures.
//
// A nil hook passes the call through. Hooks run before the real call; a
// non-nil error is returned without touching the store.
type FaultyStore struct {
	*store.Store

	mu            sync.Mutex
	InsertErr     func(rec record.Record) error
	PendingErr    func() error
	MarkErr       func(identity string) error
	IdentitiesErr func() error
}

// NewFaultyStore wraps st.
func NewFaultyStore(st *store.Store) *FaultyStore {
	return &FaultyStore{Store: st}
}

// Insert implements the engine store interface.
func (f *FaultyStore) Insert(ctx context.Context, rec record.Record) error {
	f.mu.Lock()
	hook := f.InsertErr
	f.mu.Unlock()
	if hook != nil {
		if err := hook(rec); err != nil {
			return err
		}
	}
	return f.Store.Insert(ctx, rec)
}

// Pending implements the engine store interface.
func (f *FaultyStore) Pending(ctx context.Context) ([]record.Record, error) {
	f.mu.Lock()
	hook := f.PendingErr
	f.mu.Unlock()
	if hook != nil {
		if err := hook(); err != nil {
			return nil, err
		}
	}
	return f.Store.Pending(ctx)
}

// MarkNotified implements the engine store interface.
func (f *FaultyStore) MarkNotified(ctx context.Context, identity string) error {
	f.mu.Lock()
	hook := f.MarkErr
	f.mu.Unlock()
	if hook != nil {
		if err := hook(identity); err != nil {
			return err
		}
	}
	return f.Store.MarkNotified(ctx, identity)
}

// IdentitiesSince implements the engine store interface.
func (f *FaultyStore) IdentitiesSince(ctx context.Context, since time.Time) ([]string, error) {
	f.mu.Lock()
	hook := f.IdentitiesErr
	f.mu.Unlock()
	if hook != nil {
		if err := hook(); err != nil {
			return nil, err
		}
	}
	return f.Store.IdentitiesSince(ctx, since)
}

// Set replaces hooks under the lock, for tests that flip failures between
// cycles while a scheduler is running.
func (f *FaultyStore) Set(fn func(f *FaultyStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}
