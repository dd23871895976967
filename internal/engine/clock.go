package engine

import "sync/atomic"

// Clock numbers cycles with a strictly increasing sequence.
//
// Cycle numbers appear in every log line of a cycle. They restart at 1 with
// each process; the run ID is the globally unique handle.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
