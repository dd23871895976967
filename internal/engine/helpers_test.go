package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/bankwatch/internal/notify"
	"github.com/roach88/bankwatch/internal/source"
	"github.com/roach88/bankwatch/internal/testutil"
	"github.com/roach88/bankwatch/internal/tracker"
)

var testNow = time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)

// env is one bankwatch installation: a store that survives restarts plus
// scripted collaborators. Each scheduler built from it is a new process.
type env struct {
	clock    *testutil.ManualClock
	store    *testutil.FaultyStore
	adapter  *testutil.ScriptedAdapter
	channel  *testutil.RecordingChannel
	renderer *notify.Renderer
	accounts []source.Account
	timeouts Timeouts
	ignore   []string
	waits    []time.Duration
}

func newEnv(t *testing.T, accounts ...string) *env {
	t.Helper()
	clock := testutil.NewManualClock(testNow)

	renderer, err := notify.NewRenderer(notify.RenderOptions{Location: time.UTC})
	require.NoError(t, err)

	e := &env{
		clock:    clock,
		store:    testutil.NewFaultyStore(testutil.OpenStore(t, clock.Now)),
		adapter:  testutil.NewScriptedAdapter(),
		channel:  testutil.NewRecordingChannel(),
		renderer: renderer,
	}
	for _, name := range accounts {
		e.accounts = append(e.accounts, source.Account{Kind: source.KindMax, Label: name})
	}
	return e
}

func (e *env) newScheduler(mode Mode, onCycle func(CycleResult)) *Scheduler {
	tr := tracker.New()
	sc := NewSyncCycle(e.adapter, e.store, tr, SyncConfig{
		Accounts: e.accounts,
		Ignore:   e.ignore,
		DaysAgo:  7,
		Timeouts: e.timeouts,
		Now:      e.clock.Now,
	})
	n := NewNotifier(e.store, e.renderer, e.channel, e.timeouts)
	return NewScheduler(e.store, tr, sc, n, SchedulerConfig{
		Mode:           mode,
		Interval:       time.Hour,
		LookbackMargin: 7,
		RunIDs:         testutil.NewSequentialIDs("run"),
		Now:            e.clock.Now,
		After:          e.after,
		OnCycle:        onCycle,
	})
}

// after never actually waits.
func (e *env) after(d time.Duration) <-chan time.Time {
	e.waits = append(e.waits, d)
	ch := make(chan time.Time, 1)
	ch <- e.clock.Now()
	return ch
}

// runOnce starts a fresh process in once mode.
func (e *env) runOnce(t *testing.T) (CycleResult, error) {
	t.Helper()
	var results []CycleResult
	s := e.newScheduler(ModeOnce, func(r CycleResult) { results = append(results, r) })

	err := s.Run(context.Background())
	require.Len(t, results, 1)
	return results[0], err
}

// runCycles starts a fresh continuous process and stops it after n cycles.
func (e *env) runCycles(t *testing.T, n int) []CycleResult {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var results []CycleResult
	s := e.newScheduler(ModeContinuous, func(r CycleResult) {
		results = append(results, r)
		if len(results) == n {
			cancel()
		}
	})

	require.NoError(t, s.Run(ctx))
	require.Len(t, results, n)
	return results
}

func (e *env) countPending(t *testing.T) int {
	t.Helper()
	n, err := e.store.CountPending(context.Background())
	require.NoError(t, err)
	return n
}

func (e *env) count(t *testing.T) int {
	t.Helper()
	n, err := e.store.Count(context.Background())
	require.NoError(t, err)
	return n
}

func sentDescriptions(ch *testutil.RecordingChannel) []string {
	var out []string
	for _, m := range ch.Sent() {
		out = append(out, m.Record.Description)
	}
	return out
}
