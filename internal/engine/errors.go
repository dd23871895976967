package engine

import (
	"errors"
	"fmt"
)

// CycleError is a failure that abandons a whole cycle.
//
// Per-account, per-insert and per-delivery failures are isolated and
// reported in CycleReport / NotifyReport instead. A CycleError means the
// cycle could not continue at all: the store did not answer, or something
// panicked. Continuous mode logs it and waits for the next cycle; one-shot
// mode returns it.
type CycleError struct {
	// Code identifies the error category.
	Code CycleErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected cycle, when known.
	RunID string

	// Identity identifies the affected record (for STORE errors during dispatch).
	Identity string

	// Err is the underlying cause.
	Err error
}

// CycleErrorCode categorizes cycle errors.
type CycleErrorCode string

const (
	// ErrCodeBootstrap indicates the tracker could not be loaded from the store.
	ErrCodeBootstrap CycleErrorCode = "BOOTSTRAP"

	// ErrCodeStore indicates a store operation the cycle depends on failed.
	ErrCodeStore CycleErrorCode = "STORE"

	// ErrCodePanic indicates a panic was recovered inside the cycle.
	ErrCodePanic CycleErrorCode = "PANIC"
)

// Error implements the error interface.
func (e *CycleError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RunID != "" {
		msg += fmt.Sprintf(" (run=%s)", e.RunID)
	}
	if e.Identity != "" {
		msg += fmt.Sprintf(" (identity=%s)", e.Identity)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CycleError) Unwrap() error {
	return e.Err
}

// IsCycleError returns true if err is or wraps a CycleError.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}

// CodeOf returns the CycleErrorCode of err, or "" if it is not a CycleError.
func CodeOf(err error) CycleErrorCode {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// newStoreError creates a CycleError for a failed store operation.
func newStoreError(op, identity string, err error) *CycleError {
	return &CycleError{
		Code:     ErrCodeStore,
		Message:  op + " failed",
		Identity: identity,
		Err:      err,
	}
}

// newPanicError creates a CycleError for a recovered panic value.
func newPanicError(v any) *CycleError {
	err, ok := v.(error)
	if !ok {
		err = fmt.Errorf("%v", v)
	}
	return &CycleError{
		Code:    ErrCodePanic,
		Message: "panic recovered",
		Err:     err,
	}
}
