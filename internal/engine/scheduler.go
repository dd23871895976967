package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/bankwatch/internal/logger"
	"github.com/roach88/bankwatch/internal/tracker"
)

// Mode selects how the Scheduler repeats cycles.
type Mode string

const (
	// ModeContinuous runs cycles forever with Interval between them.
	ModeContinuous Mode = "continuous"

	// ModeOnce runs a single cycle and returns its error.
	ModeOnce Mode = "once"
)

// ParseMode validates a mode name. The empty string selects ModeContinuous.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeContinuous:
		return ModeContinuous, nil
	case ModeOnce:
		return ModeOnce, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, ModeContinuous, ModeOnce)
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Mode Mode

	// Interval is the pause between the end of one cycle and the start of
	// the next.
	Interval time.Duration

	// LookbackMargin is added to the sync fetch window when bootstrapping
	// the tracker.
	LookbackMargin int

	// RunIDs defaults to UUIDv7Generator.
	RunIDs IDGenerator

	// Now defaults to time.Now.
	Now func() time.Time

	// After defaults to time.After. Tests replace it to skip the pause.
	After func(time.Duration) <-chan time.Time

	// OnCycle, if set, observes every finished cycle.
	OnCycle func(CycleResult)
}

// CycleResult is the outcome of one cycle.
type CycleResult struct {
	RunID  string       `json:"run_id"`
	Cycle  int64        `json:"cycle"`
	Sync   CycleReport  `json:"sync"`
	Notify NotifyReport `json:"notify"`
	Err    error        `json:"-"`
}

// Scheduler owns the tracker and runs sync then notify, once or forever.
// Cycles never overlap.
type Scheduler struct {
	store    Store
	tracker  *tracker.Tracker
	sync     *SyncCycle
	notifier *Notifier
	cfg      SchedulerConfig
	clock    *Clock
}

// NewScheduler creates a scheduler. tr must be the tracker sc was built with.
func NewScheduler(st Store, tr *tracker.Tracker, sc *SyncCycle, n *Notifier, cfg SchedulerConfig) *Scheduler {
	if cfg.Mode == "" {
		cfg.Mode = ModeContinuous
	}
	if cfg.RunIDs == nil {
		cfg.RunIDs = UUIDv7Generator{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.After == nil {
		cfg.After = time.After
	}
	return &Scheduler{
		store:    st,
		tracker:  tr,
		sync:     sc,
		notifier: n,
		cfg:      cfg,
		clock:    NewClock(),
	}
}

// Bootstrap loads the tracker with every stored identity the sync cycle can
// fetch again: the fetch window plus the lookback margin.
func (s *Scheduler) Bootstrap(ctx context.Context) error {
	since := tracker.Lookback(s.cfg.Now(), s.sync.daysAgo, s.cfg.LookbackMargin)

	bootCtx, cancel := context.WithTimeout(ctx, s.sync.timeouts.Store)
	n, err := s.tracker.Bootstrap(bootCtx, s.store, since)
	cancel()
	if err != nil {
		return &CycleError{Code: ErrCodeBootstrap, Message: "load known identities", Err: err}
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("identities", n).
		Time("since", since).
		Msg("tracker bootstrapped")
	return nil
}

// Run bootstraps the tracker and runs cycles until ctx is done (continuous)
// or one cycle finished (once).
//
// A bootstrap failure is returned in both modes. In continuous mode a failed
// cycle is logged and skipped. In once mode the cycle's error is returned.
// Shutdown through ctx is not an error.
func (s *Scheduler) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := s.Bootstrap(ctx); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			log.Info().Int64("cycles", s.Cycles()).Msg("shutdown requested, not starting a new cycle")
			return nil
		}

		res := s.RunCycle(ctx)
		shutdown := ctx.Err() != nil && errors.Is(res.Err, ctx.Err())

		if s.cfg.Mode == ModeOnce {
			if shutdown {
				return nil
			}
			return res.Err
		}

		if shutdown {
			log.Info().Int64("cycles", s.Cycles()).Msg("shutdown requested, stopping")
			return nil
		}
		if res.Err != nil {
			log.Error().
				Err(res.Err).
				Str(logger.FieldRunID, res.RunID).
				Str("code", string(CodeOf(res.Err))).
				Msg("cycle failed, skipping to next interval")
		}

		log.Info().Dur("interval", s.cfg.Interval).Msg("sleeping")
		select {
		case <-ctx.Done():
			log.Info().Int64("cycles", s.Cycles()).Msg("shutdown requested, stopping")
			return nil
		case <-s.cfg.After(s.cfg.Interval):
		}
	}
}

// Cycles reports how many cycles this scheduler has started.
func (s *Scheduler) Cycles() int64 {
	return s.clock.Current()
}

// RunCycle runs one sync phase followed by one notify phase.
// A panic inside the cycle is recovered into a PANIC CycleError.
func (s *Scheduler) RunCycle(ctx context.Context) (res CycleResult) {
	res.RunID = s.cfg.RunIDs.Generate()
	res.Cycle = s.clock.Next()

	log := logger.FromContext(ctx).With().
		Str(logger.FieldRunID, res.RunID).
		Int64(logger.FieldCycle, res.Cycle).
		Logger()
	ctx = logger.WithContext(ctx, log)
	started := s.cfg.Now()

	defer func() {
		if v := recover(); v != nil {
			res.Err = newPanicError(v)
			log.Error().Err(res.Err).Msg("cycle panicked")
		}
		var ce *CycleError
		if errors.As(res.Err, &ce) && ce.RunID == "" {
			ce.RunID = res.RunID
		}

		log.Info().
			Int("accounts", len(res.Sync.Accounts)).
			Int("failed_accounts", res.Sync.FailedAccounts()).
			Int("inserted", res.Sync.Inserted()).
			Int("selected", res.Notify.Selected).
			Int("sent", res.Notify.Sent).
			Int("delivery_failures", res.Notify.Failed).
			Dur("elapsed", s.cfg.Now().Sub(started)).
			Bool("ok", res.Err == nil).
			Msg("cycle finished")

		if s.cfg.OnCycle != nil {
			s.cfg.OnCycle(res)
		}
	}()

	log.Info().Int("known", s.tracker.Len()).Msg("cycle started")

	res.Sync, res.Err = s.sync.Run(ctx)
	if res.Err != nil {
		return res
	}
	res.Notify, res.Err = s.notifier.Run(ctx)
	return res
}
