package cli

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/roach88/bankwatch/internal/config"
	"github.com/roach88/bankwatch/internal/engine"
	"github.com/roach88/bankwatch/internal/notify"
	"github.com/roach88/bankwatch/internal/source"
	"github.com/roach88/bankwatch/internal/store"
	"github.com/roach88/bankwatch/internal/tracker"
)

// app is the set of components a run builds from the configuration.
type app struct {
	store     *store.Store
	channel   notify.Channel
	scheduler *engine.Scheduler
}

func (a *app) Close() error {
	return a.store.Close()
}

// buildApp wires store, adapter, renderer, channel and engine. The caller
// must Close the returned app.
func buildApp(cfg *config.Config, mode engine.Mode, log zerolog.Logger, onCycle func(engine.CycleResult)) (*app, error) {
	adapter, err := buildAdapter(cfg.Scraper)
	if err != nil {
		return nil, err
	}
	renderer, err := buildRenderer(cfg)
	if err != nil {
		return nil, err
	}
	channel, err := buildChannel(cfg.Notify, log)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	timeouts := cfg.EngineTimeouts()
	tr := tracker.New()
	cycle := engine.NewSyncCycle(adapter, st, tr, engine.SyncConfig{
		Accounts: cfg.Accounts,
		Ignore:   cfg.Ignore,
		DaysAgo:  cfg.DaysAgo,
		Timeouts: timeouts,
	})
	notifier := engine.NewNotifier(st, renderer, channel, timeouts)
	scheduler := engine.NewScheduler(st, tr, cycle, notifier, engine.SchedulerConfig{
		Mode:           mode,
		Interval:       cfg.Interval(),
		LookbackMargin: cfg.LookbackMargin(),
		OnCycle:        onCycle,
	})

	return &app{store: st, channel: channel, scheduler: scheduler}, nil
}

func buildAdapter(cfg config.Scraper) (source.Adapter, error) {
	if cfg.Fixture != "" {
		return source.LoadFixture(cfg.Fixture)
	}

	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return source.NewCommandAdapter(cfg.Command, env...)
}

func buildRenderer(cfg *config.Config) (*notify.Renderer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return notify.NewRenderer(notify.RenderOptions{
		FriendlyNames: cfg.FriendlyNames,
		Location:      loc,
		DateLayout:    cfg.Notify.DateLayout,
		PendingLabel:  cfg.Notify.StatusLabels.Pending,
		FinalLabel:    cfg.Notify.StatusLabels.Final,
		Currency:      cfg.Notify.Currency,
	})
}

func buildChannel(cfg config.Notify, log zerolog.Logger) (notify.Channel, error) {
	switch cfg.Channel {
	case config.ChannelSMTP:
		return notify.NewSMTPChannel(notify.SMTPConfig{
			Service:  cfg.SMTP.Service,
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Auth.User,
			Password: cfg.SMTP.Auth.Pass,
			From:     cfg.SMTP.From,
			To:       cfg.SMTP.To,
		})
	case config.ChannelNotion:
		return notify.NewNotionChannel(notify.NewNotionClient(cfg.Notion.Token), cfg.Notion.DatabaseID)
	case config.ChannelLog:
		return notify.NewLogChannel(log), nil
	}
	return nil, fmt.Errorf("unknown notification channel %q", cfg.Channel)
}
