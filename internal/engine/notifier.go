package engine

import (
	"context"

	"github.com/roach88/bankwatch/internal/logger"
	"github.com/roach88/bankwatch/internal/notify"
	"github.com/roach88/bankwatch/internal/record"
)

// Renderer turns a record into a message. *notify.Renderer satisfies it.
type Renderer interface {
	Render(rec record.Record) (notify.Message, error)
}

// NotifyReport summarizes the notify phase of a cycle.
type NotifyReport struct {
	Selected int `json:"selected"`
	Sent     int `json:"sent"`

	// Duplicates counts sends the channel recognised as already delivered.
	// They are included in Sent.
	Duplicates int `json:"duplicates"`

	Failed int `json:"failed"`

	// Skipped counts records not attempted because of shutdown or an abort.
	Skipped int `json:"skipped"`
}

// Notifier delivers every record not yet notified and marks it notified.
type Notifier struct {
	store    Store
	renderer Renderer
	channel  notify.Channel
	timeouts Timeouts
}

// NewNotifier creates a notifier.
func NewNotifier(st Store, r Renderer, ch notify.Channel, timeouts Timeouts) *Notifier {
	return &Notifier{
		store:    st,
		renderer: r,
		channel:  ch,
		timeouts: timeouts.withDefaults(),
	}
}

// Run dispatches pending records in insertion order.
//
// For each record: render, send, mark notified, then move on. A record is
// never marked before its send succeeded. A failed render or send leaves the
// record pending for the next cycle. A failed mark aborts the run with a
// STORE CycleError; the record stays pending and is sent again later.
func (n *Notifier) Run(ctx context.Context) (NotifyReport, error) {
	var report NotifyReport

	queryCtx, cancel := context.WithTimeout(ctx, n.timeouts.Store)
	pending, err := n.store.Pending(queryCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		return report, newStoreError("select pending", "", err)
	}
	report.Selected = len(pending)

	outcomes, err := Each(ctx, pending, func(rec record.Record) error {
		return n.deliver(ctx, rec, &report)
	})
	report.Failed = Failed(outcomes)
	report.Skipped = len(pending) - len(outcomes)

	log := logger.FromContext(ctx)
	if err != nil && ctx.Err() != nil {
		log.Info().Int("skipped", report.Skipped).Msg("shutdown requested, not starting further deliveries")
	}
	return report, err
}

func (n *Notifier) deliver(ctx context.Context, rec record.Record, report *NotifyReport) error {
	log := logger.FromContext(ctx).With().Str(logger.FieldIdentity, rec.Identity).Logger()

	msg, err := n.renderer.Render(rec)
	if err != nil {
		log.Warn().Err(err).Msg("render failed, will retry next cycle")
		return err
	}

	sendCtx, cancel := detached(ctx, n.timeouts.Send)
	receipt, err := n.channel.Send(sendCtx, msg)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("channel", n.channel.Name()).Msg("delivery failed, will retry next cycle")
		return err
	}

	markCtx, cancel := detached(ctx, n.timeouts.Store)
	err = n.store.MarkNotified(markCtx, rec.Identity)
	cancel()
	if err != nil {
		log.Error().Err(err).Str(logger.FieldReceipt, receipt.ID).Msg("delivered but not marked, will be delivered again")
		return Halt(newStoreError("mark notified", rec.Identity, err))
	}

	report.Sent++
	if receipt.Duplicate {
		report.Duplicates++
	}
	log.Info().
		Str("channel", n.channel.Name()).
		Str(logger.FieldReceipt, receipt.ID).
		Bool("duplicate", receipt.Duplicate).
		Msg("notified")
	return nil
}
