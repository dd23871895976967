package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/roach88/bankwatch/internal/record"
)

// FixtureAdapter serves canned scraper results.
//
// The fixture file is a JSON object mapping an account label or kind to a
// result document, for example:
//
//	{"max": {"success": true, "accounts": [{"accountNumber": "1111", "txns": [...]}]}}
//
// Lookup tries the label first, then the kind.
type FixtureAdapter struct {
	results map[string]scrapeResult
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*FixtureAdapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture JSON.
func ParseFixture(data []byte) (*FixtureAdapter, error) {
	var results map[string]scrapeResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &FixtureAdapter{results: results}, nil
}

// Fetch implements Adapter.
func (a *FixtureAdapter) Fetch(ctx context.Context, acct Account, since time.Time) ([]record.RawObservation, error) {
	if fe := contextFailure(ctx, acct); fe != nil {
		return nil, fe
	}

	res, ok := a.results[acct.Label]
	if !ok || acct.Label == "" {
		res, ok = a.results[string(acct.Kind)]
	}
	if !ok {
		return nil, &FetchError{Kind: FailureNoFixture, Account: acct.Name()}
	}
	return res.observations(acct)
}
