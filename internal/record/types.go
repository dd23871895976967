package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the settlement state reported by a source.
type Status string

const (
	// StatusPending marks a transaction that is not settled yet.
	StatusPending Status = "pending"
	// StatusFinal marks a settled transaction.
	StatusFinal Status = "final"
)

// DefaultChargedCurrency is used when a source omits the charged currency.
const DefaultChargedCurrency = "₪"

// ParseStatus normalizes a status reported by a source adapter.
// Scrapers report settled transactions as "completed"; that maps to StatusFinal.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "final", "completed":
		return StatusFinal, nil
	default:
		return "", fmt.Errorf("unknown transaction status %q", s)
	}
}

// RawObservation is a transaction as returned by a source adapter.
// It is ephemeral: converted to a Record and discarded.
type RawObservation struct {
	Identifier       string
	Account          string
	Date             time.Time
	Description      string
	Memo             string
	OriginalAmount   decimal.Decimal
	OriginalCurrency string
	ChargedAmount    decimal.Decimal
	ChargedCurrency  string // empty means DefaultChargedCurrency
	Status           string
}

// Record is the durable unit stored once per Identity.
// Everything except Notified is immutable after creation.
type Record struct {
	Identity         string
	ExternalID       string
	Account          string
	Status           Status
	Date             time.Time
	OriginalAmount   decimal.Decimal
	OriginalCurrency string
	ChargedAmount    decimal.Decimal
	ChargedCurrency  string
	Description      string
	Memo             string
	Notified         bool
}
