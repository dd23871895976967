package engine

import (
	"context"
	"errors"
)

// Outcome is the result of processing one item.
type Outcome[T any] struct {
	Item T
	Err  error
}

// OK reports whether the item succeeded.
func (o Outcome[T]) OK() bool { return o.Err == nil }

type haltError struct {
	err error
}

func (h *haltError) Error() string { return h.err.Error() }
func (h *haltError) Unwrap() error { return h.err }

// Halt marks an item error as fatal: Each stops after it and returns err.
func Halt(err error) error {
	if err == nil {
		return nil
	}
	return &haltError{err: err}
}

// Each applies fn to items in order and records one Outcome per item.
//
// Item errors are recorded, never returned, so a failing item does not stop
// the rest. Each stops early in two cases only, returning the outcomes so
// far together with the reason:
//   - ctx is done before an item starts (ctx.Err() is returned; the item
//     in progress, if any, was allowed to finish)
//   - fn returned an error wrapped with Halt (the unwrapped error is
//     returned and also recorded on that item's Outcome)
func Each[T any](ctx context.Context, items []T, fn func(T) error) ([]Outcome[T], error) {
	outcomes := make([]Outcome[T], 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		err := fn(item)

		var h *haltError
		if errors.As(err, &h) {
			outcomes = append(outcomes, Outcome[T]{Item: item, Err: h.err})
			return outcomes, h.err
		}
		outcomes = append(outcomes, Outcome[T]{Item: item, Err: err})
	}
	return outcomes, nil
}

// Failed counts outcomes with an error.
func Failed[T any](outcomes []Outcome[T]) int {
	n := 0
	for _, o := range outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}
