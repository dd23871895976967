package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/bankwatch/internal/record"
)

var fixedNow = time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord builds a record with a real identity derived from its fields.
func createTestRecord(t *testing.T, identifier string, date time.Time, description string) record.Record {
	t.Helper()
	rec, err := record.FromObservation(record.RawObservation{
		Identifier:       identifier,
		Account:          "1111",
		Date:             date,
		Description:      description,
		OriginalAmount:   decimal.RequireFromString("-50.00"),
		OriginalCurrency: "ILS",
		ChargedAmount:    decimal.RequireFromString("-50.00"),
		Status:           "completed",
	})
	if err != nil {
		t.Fatalf("FromObservation() failed: %v", err)
	}
	return rec
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
