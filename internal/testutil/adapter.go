package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/bankwatch/internal/record"
	"github.com/roach88/bankwatch/internal/source"
)

// Step is one scripted fetch result.
type Step struct {
	Observations []record.RawObservation
	Err          error

	// Do runs before the result is returned, e.g. to cancel the engine's
	// context mid-fetch.
	Do func(ctx context.Context)

	// Panic, if non-nil, is panicked with instead of returning.
	Panic any
}

// FetchCall records one Fetch invocation.
type FetchCall struct {
	Account  string
	Since    time.Time
	Deadline bool
}

// ScriptedAdapter is a source.Adapter returning scripted steps per account.
//
// Steps are consumed one per call; the last step repeats. Accounts without
// a script return no observations.
//
// Thread-safety: safe for concurrent use via internal mutex.
type ScriptedAdapter struct {
	mu      sync.Mutex
	scripts map[string][]Step
	calls   []FetchCall
}

// NewScriptedAdapter creates an adapter with no scripts.
func NewScriptedAdapter() *ScriptedAdapter {
	return &ScriptedAdapter{scripts: make(map[string][]Step)}
}

// On appends steps for the account with the given name (label or kind).
func (a *ScriptedAdapter) On(account string, steps ...Step) *ScriptedAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scripts[account] = append(a.scripts[account], steps...)
	return a
}

// Fetch implements source.Adapter.
func (a *ScriptedAdapter) Fetch(ctx context.Context, acct source.Account, since time.Time) ([]record.RawObservation, error) {
	_, hasDeadline := ctx.Deadline()

	a.mu.Lock()
	a.calls = append(a.calls, FetchCall{Account: acct.Name(), Since: since, Deadline: hasDeadline})
	var step Step
	if steps := a.scripts[acct.Name()]; len(steps) > 0 {
		step = steps[0]
		if len(steps) > 1 {
			a.scripts[acct.Name()] = steps[1:]
		}
	}
	a.mu.Unlock()

	if step.Do != nil {
		step.Do(ctx)
	}
	if step.Panic != nil {
		panic(step.Panic)
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Observations, nil
}

// Calls returns every Fetch invocation so far.
func (a *ScriptedAdapter) Calls() []FetchCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]FetchCall(nil), a.calls...)
}
