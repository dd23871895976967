package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/bankwatch/internal/record"
)

// Adapter fetches the transactions of one account, starting at since.
// Transactions the institution reports with an earlier date are returned too.
//
// Implementations must honor ctx: the engine bounds every call with a
// deadline. Failures should be returned as *FetchError.
type Adapter interface {
	Fetch(ctx context.Context, acct Account, since time.Time) ([]record.RawObservation, error)
}

// Failure kinds produced by this package. Scraper-reported kinds such as
// INVALID_PASSWORD are passed through unchanged.
const (
	FailureTimeout   = "TIMEOUT"
	FailureCanceled  = "CANCELED"
	FailureBadOutput = "BAD_OUTPUT"
	FailureCommand   = "COMMAND_FAILED"
	FailureNoFixture = "NO_FIXTURE"
	FailureGeneric   = "GENERIC"
)

// FetchError is a failed fetch for one account.
type FetchError struct {
	// Kind is the machine-readable failure kind.
	Kind string

	// Account is the account name (label or kind).
	Account string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Account, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Account, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// FailureKind extracts the failure kind from err.
// Uses errors.As to handle wrapped errors. Context errors that were not
// wrapped by an adapter map to TIMEOUT and CANCELED.
func FailureKind(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind != "" {
		return fe.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	}
	return FailureGeneric
}

// contextFailure maps a finished context to a FetchError, or nil if the
// context is still live.
func contextFailure(ctx context.Context, acct Account) *FetchError {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &FetchError{Kind: FailureTimeout, Account: acct.Name(), Err: ctx.Err()}
	case errors.Is(ctx.Err(), context.Canceled):
		return &FetchError{Kind: FailureCanceled, Account: acct.Name(), Err: ctx.Err()}
	}
	return nil
}
