package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/bankwatch/internal/engine"
	"github.com/roach88/bankwatch/internal/notify"
	"github.com/roach88/bankwatch/internal/record"
	"github.com/roach88/bankwatch/internal/source"
	"github.com/roach88/bankwatch/internal/store"
	"github.com/roach88/bankwatch/internal/testutil"
	"github.com/roach88/bankwatch/internal/tracker"
)

var (
	errFetch    = errors.New("scripted fetch failure")
	errDelivery = errors.New("delivery refused")
	errMark     = errors.New("mark refused")
)

// Harness runs one scenario against the real engine. It owns the clock,
// the store and the scripted collaborators; a restart builds a new
// Scheduler over the same store.
type Harness struct {
	scenario *Scenario
	clock    *testutil.ManualClock
	store    *tracingStore
	adapter  *scriptAdapter
	channel  *tracingChannel
	renderer *notify.Renderer
	runIDs   *testutil.SequentialIDs

	cycle  int64
	plan   Cycle
	result *Result
}

// Run executes a scenario and returns its trace and assertion results.
//
// Each scenario runs in a fresh in-memory database for isolation.
// The manual clock and sequential run IDs make the trace reproducible.
func Run(scenario *Scenario) (*Result, error) {
	clock := testutil.NewManualClock(scenario.Start)

	st, err := store.Open(":memory:", store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	renderer, err := notify.NewRenderer(notify.RenderOptions{Location: time.UTC})
	if err != nil {
		return nil, err
	}

	h := &Harness{
		scenario: scenario,
		clock:    clock,
		renderer: renderer,
		runIDs:   testutil.NewSequentialIDs(scenario.Name),
		result:   NewResult(),
	}
	h.store = &tracingStore{Store: st, h: h}
	h.adapter = &scriptAdapter{h: h}
	h.channel = &tracingChannel{RecordingChannel: testutil.NewRecordingChannel(), h: h}
	h.channel.FailWith = h.refuseDelivery

	ctx := context.Background()
	if err := h.runCycles(ctx); err != nil {
		return nil, err
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) runCycles(ctx context.Context) error {
	var scheduler *engine.Scheduler
	for i, plan := range h.scenario.Cycles {
		h.cycle = int64(i + 1)
		h.plan = plan
		if i > 0 {
			h.clock.Advance(h.scenario.Interval)
		}

		if scheduler == nil || plan.Restart {
			if scheduler != nil {
				h.record(TraceEvent{Type: EventRestart})
			}
			scheduler = h.newScheduler()
			if err := scheduler.Bootstrap(ctx); err != nil {
				return fmt.Errorf("cycle %d: %w", h.cycle, err)
			}
		}

		res := scheduler.RunCycle(ctx)
		if res.Err != nil {
			h.record(TraceEvent{Type: EventCycleError, Detail: string(engine.CodeOf(res.Err))})
		}
	}
	return nil
}

// newScheduler wires a process: a fresh tracker over the shared store.
func (h *Harness) newScheduler() *engine.Scheduler {
	accounts := make([]source.Account, 0, len(h.scenario.Accounts))
	for _, label := range h.scenario.Accounts {
		accounts = append(accounts, account(label))
	}

	tr := tracker.New()
	sc := engine.NewSyncCycle(h.adapter, h.store, tr, engine.SyncConfig{
		Accounts: accounts,
		Ignore:   h.scenario.Ignore,
		DaysAgo:  h.scenario.DaysAgo,
		Now:      h.clock.Now,
	})
	n := engine.NewNotifier(h.store, h.renderer, h.channel, engine.Timeouts{})
	return engine.NewScheduler(h.store, tr, sc, n, engine.SchedulerConfig{
		Mode:           engine.ModeOnce,
		Interval:       h.scenario.Interval,
		LookbackMargin: h.scenario.LookbackMarginDays,
		RunIDs:         h.runIDs,
		Now:            h.clock.Now,
	})
}

func (h *Harness) record(e TraceEvent) {
	e.Cycle = h.cycle
	h.result.add(e)
}

func (h *Harness) refuseDelivery(msg notify.Message) error {
	if slices.Contains(h.plan.FailDelivery, msg.Record.Description) {
		return errDelivery
	}
	return nil
}

// scriptAdapter serves the current cycle's fetch plan.
type scriptAdapter struct {
	h *Harness
}

func (a *scriptAdapter) Fetch(ctx context.Context, acct source.Account, since time.Time) ([]record.RawObservation, error) {
	step := a.h.plan.Fetch[acct.Name()]
	if step.Error != "" {
		a.h.record(TraceEvent{Type: EventFetchFailed, Account: acct.Name(), Detail: step.Error})
		return nil, &source.FetchError{Kind: step.Error, Account: acct.Name(), Err: errFetch}
	}

	obs := make([]record.RawObservation, 0, len(step.Transactions))
	for _, tx := range step.Transactions {
		o, err := tx.Observation()
		if err != nil {
			return nil, &source.FetchError{Kind: source.FailureBadOutput, Account: acct.Name(), Err: err}
		}
		obs = append(obs, o)
	}
	return obs, nil
}

// tracingStore records successful inserts and injects mark failures.
type tracingStore struct {
	*store.Store
	h *Harness
}

func (s *tracingStore) Insert(ctx context.Context, rec record.Record) error {
	if err := s.Store.Insert(ctx, rec); err != nil {
		return err
	}
	s.h.record(TraceEvent{Type: EventStored, Description: rec.Description, Detail: string(rec.Status)})
	return nil
}

func (s *tracingStore) MarkNotified(ctx context.Context, identity string) error {
	rec, err := s.Store.Get(ctx, identity)
	if err == nil && slices.Contains(s.h.plan.FailMark, rec.Description) {
		s.h.record(TraceEvent{Type: EventMarkFailed, Description: rec.Description})
		return errMark
	}
	return s.Store.MarkNotified(ctx, identity)
}

// tracingChannel records every delivery attempt.
type tracingChannel struct {
	*testutil.RecordingChannel
	h *Harness
}

func (c *tracingChannel) Send(ctx context.Context, msg notify.Message) (notify.Receipt, error) {
	rcpt, err := c.RecordingChannel.Send(ctx, msg)
	if err != nil {
		c.h.record(TraceEvent{Type: EventDeliveryFailed, Description: msg.Record.Description})
		return rcpt, err
	}
	c.h.record(TraceEvent{Type: EventSent, Description: msg.Record.Description})
	return rcpt, nil
}
