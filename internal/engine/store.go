package engine

import (
	"context"
	"time"

	"github.com/roach88/bankwatch/internal/record"
	"github.com/roach88/bankwatch/internal/tracker"
)

// Store is the durable store the engine drives. *store.Store satisfies it.
//
// Insert must fail with an error wrapping store.ErrDuplicateKey when the
// identity already exists. MarkNotified must be idempotent and must never
// revert the flag.
type Store interface {
	tracker.IdentitySource
	Insert(ctx context.Context, rec record.Record) error
	Pending(ctx context.Context) ([]record.Record, error)
	MarkNotified(ctx context.Context, identity string) error
}

// Default bounds for external calls.
const (
	DefaultFetchTimeout = 3 * time.Minute
	DefaultStoreTimeout = 10 * time.Second
	DefaultSendTimeout  = 30 * time.Second
)

// Timeouts bound every external call. Zero fields select the defaults.
type Timeouts struct {
	Fetch time.Duration
	Store time.Duration
	Send  time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Fetch <= 0 {
		t.Fetch = DefaultFetchTimeout
	}
	if t.Store <= 0 {
		t.Store = DefaultStoreTimeout
	}
	if t.Send <= 0 {
		t.Send = DefaultSendTimeout
	}
	return t
}

// detached returns a context that ignores ctx's cancellation but keeps its
// values, bounded by d. Calls already started run to completion on it.
func detached(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}
