package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/bankwatch/internal/notify"
)

// RecordingChannel is a notify.Channel that keeps every delivered message.
//
// Thread-safety: safe for concurrent use via internal mutex.
type RecordingChannel struct {
	mu       sync.Mutex
	sent     []notify.Message
	attempts int

	// FailWith, if set, is consulted before each delivery; a non-nil error
	// fails that delivery.
	FailWith func(msg notify.Message) error
}

// NewRecordingChannel creates a channel that accepts everything.
func NewRecordingChannel() *RecordingChannel {
	return &RecordingChannel{}
}

// Name implements notify.Channel.
func (c *RecordingChannel) Name() string { return "recording" }

// Send implements notify.Channel.
func (c *RecordingChannel) Send(ctx context.Context, msg notify.Message) (notify.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts++
	if c.FailWith != nil {
		if err := c.FailWith(msg); err != nil {
			return notify.Receipt{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return notify.Receipt{}, err
	}
	c.sent = append(c.sent, msg)
	return notify.Receipt{ID: fmt.Sprintf("rcpt-%d", len(c.sent))}, nil
}

// Sent returns the delivered messages in order.
func (c *RecordingChannel) Sent() []notify.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Message(nil), c.sent...)
}

// Attempts returns the number of Send calls, failed ones included.
func (c *RecordingChannel) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}
