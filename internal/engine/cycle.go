package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/bankwatch/internal/logger"
	"github.com/roach88/bankwatch/internal/record"
	"github.com/roach88/bankwatch/internal/source"
	"github.com/roach88/bankwatch/internal/store"
	"github.com/roach88/bankwatch/internal/tracker"
)

// SyncConfig configures a SyncCycle.
type SyncConfig struct {
	Accounts []source.Account

	// Ignore lists descriptions that are never stored (exact match).
	Ignore []string

	// DaysAgo is the fetch window: each fetch asks for transactions dated
	// at or after now minus DaysAgo days.
	DaysAgo int

	Timeouts Timeouts

	// Now defaults to time.Now.
	Now func() time.Time
}

// AccountReport summarizes one account in one cycle.
type AccountReport struct {
	Account string `json:"account"`

	Fetched    int `json:"fetched"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Known      int `json:"known"`
	Ignored    int `json:"ignored"`
	Invalid    int `json:"invalid"`
	Failed     int `json:"failed"`

	// FailureKind is set when the fetch failed.
	FailureKind string `json:"failure_kind,omitempty"`
	Err         error  `json:"-"`
}

// CycleReport summarizes the sync phase of a cycle.
type CycleReport struct {
	Accounts []AccountReport `json:"accounts"`
}

// Inserted returns the number of records inserted across all accounts.
func (r CycleReport) Inserted() int {
	n := 0
	for _, a := range r.Accounts {
		n += a.Inserted
	}
	return n
}

// FailedAccounts returns the number of accounts whose fetch failed.
func (r CycleReport) FailedAccounts() int {
	n := 0
	for _, a := range r.Accounts {
		if a.FailureKind != "" {
			n++
		}
	}
	return n
}

// SyncCycle fetches every account and stores the records not seen before.
type SyncCycle struct {
	adapter  source.Adapter
	store    Store
	tracker  *tracker.Tracker
	accounts []source.Account
	ignore   map[string]struct{}
	daysAgo  int
	timeouts Timeouts
	now      func() time.Time
}

// NewSyncCycle creates a sync cycle. The tracker is shared with the
// Scheduler that bootstraps it.
func NewSyncCycle(adapter source.Adapter, st Store, tr *tracker.Tracker, cfg SyncConfig) *SyncCycle {
	ignore := make(map[string]struct{}, len(cfg.Ignore))
	for _, d := range cfg.Ignore {
		ignore[d] = struct{}{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &SyncCycle{
		adapter:  adapter,
		store:    st,
		tracker:  tr,
		accounts: cfg.Accounts,
		ignore:   ignore,
		daysAgo:  cfg.DaysAgo,
		timeouts: cfg.Timeouts.withDefaults(),
		now:      now,
	}
}

// Run syncs every account in configuration order.
//
// A failed account is reported and skipped. Run only returns an error when
// ctx is done before all accounts were started; the report then covers the
// accounts that ran.
func (c *SyncCycle) Run(ctx context.Context) (CycleReport, error) {
	var report CycleReport
	_, err := Each(ctx, c.accounts, func(acct source.Account) error {
		rep := c.syncAccount(ctx, acct)
		report.Accounts = append(report.Accounts, rep)
		return rep.Err
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Info().
			Int("skipped_accounts", len(c.accounts)-len(report.Accounts)).
			Msg("shutdown requested, not starting further accounts")
	}
	return report, err
}

func (c *SyncCycle) syncAccount(ctx context.Context, acct source.Account) AccountReport {
	rep := AccountReport{Account: acct.Name()}
	log := logger.FromContext(ctx).With().Str(logger.FieldAccount, acct.Name()).Logger()
	since := c.now().AddDate(0, 0, -c.daysAgo)

	fetchCtx, cancel := detached(ctx, c.timeouts.Fetch)
	obs, err := c.adapter.Fetch(fetchCtx, acct, since)
	cancel()
	if err != nil {
		rep.FailureKind = source.FailureKind(err)
		rep.Err = err
		log.Warn().
			Err(err).
			Str(logger.FieldFailureKind, rep.FailureKind).
			Msg("fetch failed, skipping account")
		return rep
	}
	rep.Fetched = len(obs)
	log.Debug().Int("fetched", len(obs)).Time("since", since).Msg("fetched")

	// The account already started; finish its batch even after shutdown.
	inflight := context.WithoutCancel(ctx)
	_, _ = Each(inflight, obs, func(o record.RawObservation) error {
		return c.process(inflight, log, o, &rep)
	})

	log.Info().
		Int("fetched", rep.Fetched).
		Int("inserted", rep.Inserted).
		Int("known", rep.Known).
		Int("ignored", rep.Ignored).
		Int("duplicates", rep.Duplicates).
		Int("failed", rep.Failed+rep.Invalid).
		Msg("account synced")
	return rep
}

// process converts, filters and inserts one observation.
func (c *SyncCycle) process(ctx context.Context, log zerolog.Logger, o record.RawObservation, rep *AccountReport) error {
	rec, err := record.FromObservation(o)
	if err != nil {
		rep.Invalid++
		log.Warn().Err(err).Str("description", o.Description).Msg("invalid observation")
		return err
	}

	if c.tracker.Has(rec.Identity) {
		rep.Known++
		return nil
	}
	if _, ok := c.ignore[rec.Description]; ok {
		rep.Ignored++
		log.Debug().Str(logger.FieldIdentity, rec.Identity).Str("description", rec.Description).Msg("ignored")
		return nil
	}

	insertCtx, cancel := detached(ctx, c.timeouts.Store)
	err = c.store.Insert(insertCtx, rec)
	cancel()

	switch {
	case errors.Is(err, store.ErrDuplicateKey):
		// Stored by an earlier run outside the bootstrap window, or by a
		// concurrent writer.
		c.tracker.Add(rec.Identity)
		rep.Duplicates++
		log.Debug().Str(logger.FieldIdentity, rec.Identity).Msg("duplicate swallowed")
		return nil
	case err != nil:
		rep.Failed++
		log.Warn().Err(err).Str(logger.FieldIdentity, rec.Identity).Msg("insert failed")
		return err
	}

	c.tracker.Add(rec.Identity)
	rep.Inserted++
	log.Info().
		Str(logger.FieldIdentity, rec.Identity).
		Str("description", rec.Description).
		Str("amount", rec.OriginalAmount.String()).
		Msg("inserted")
	return nil
}
