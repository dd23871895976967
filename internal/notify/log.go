package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/roach88/bankwatch/internal/logger"
)

// LogChannel writes messages to the log instead of delivering them.
type LogChannel struct {
	log zerolog.Logger
}

// NewLogChannel creates the channel.
func NewLogChannel(log zerolog.Logger) *LogChannel {
	return &LogChannel{log: log}
}

// Name implements Channel.
func (c *LogChannel) Name() string { return "log" }

// Send implements Channel. It never fails.
func (c *LogChannel) Send(_ context.Context, msg Message) (Receipt, error) {
	c.log.Info().
		Str(logger.FieldIdentity, msg.Identity).
		Str("subject", msg.Subject).
		Str("account", msg.Payload.Account).
		Str("date", msg.Payload.Date).
		Str("charged_amount", msg.Payload.ChargedAmount).
		Str("status", msg.Payload.Status).
		Str("memo", msg.Payload.Memo).
		Msg("notification")

	id := msg.Identity
	if len(id) > 12 {
		id = id[:12]
	}
	return Receipt{ID: "log-" + id}, nil
}
