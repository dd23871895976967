package harness

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: ok
description: "minimal"
accounts: [max]
cycles:
  - fetch:
      max:
        transactions:
          - {id: X1, date: "2024-01-01", amount: "-50", description: Cafe, status: final}
assertions:
  - type: trace_count
    event: sent
    count: 1
`

func TestParseScenario_Defaults(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC), s.Start)
	assert.Equal(t, time.Hour, s.Interval)
	assert.Equal(t, 7, s.DaysAgo)
	assert.Equal(t, 7, s.LookbackMarginDays)
}

func TestParseScenario_Overrides(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: custom
description: "custom clock"
start: 2024-03-01T00:00:00Z
interval: 15m
days_ago: 3
lookback_margin_days: 1
accounts: [max]
cycles: [{}]
assertions:
  - {type: final_state, rows: 0}
`))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), s.Start.UTC())
	assert.Equal(t, 15*time.Minute, s.Interval)
	assert.Equal(t, 3, s.DaysAgo)
	assert.Equal(t, 1, s.LookbackMarginDays)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", validScenario + "assertion: []\n", "field assertion not found"},
		{"no name", "description: d\naccounts: [max]\ncycles: [{}]\nassertions: [{type: final_state, rows: 0}]\n", "name is required"},
		{"no description", "name: n\naccounts: [max]\ncycles: [{}]\nassertions: [{type: final_state, rows: 0}]\n", "description is required"},
		{"no accounts", "name: n\ndescription: d\ncycles: [{}]\nassertions: [{type: final_state, rows: 0}]\n", "accounts list is required"},
		{"no cycles", "name: n\ndescription: d\naccounts: [max]\nassertions: [{type: final_state, rows: 0}]\n", "cycles list is required"},
		{"no assertions", "name: n\ndescription: d\naccounts: [max]\ncycles: [{}]\n", "assertions list is required"},
		{"unknown account", "name: n\ndescription: d\naccounts: [max]\ncycles: [{fetch: {leumi: {error: TIMEOUT}}}]\nassertions: [{type: final_state, rows: 0}]\n", `unknown account "leumi"`},
		{"error and transactions", "name: n\ndescription: d\naccounts: [max]\ncycles: [{fetch: {max: {error: TIMEOUT, transactions: [{id: a, date: '2024-01-01', amount: '1', description: x, status: final}]}}}]\nassertions: [{type: final_state, rows: 0}]\n", "not both"},
		{"bad date", "name: n\ndescription: d\naccounts: [max]\ncycles: [{fetch: {max: {transactions: [{id: a, date: '01/01/2024', amount: '1', description: x, status: final}]}}}]\nassertions: [{type: final_state, rows: 0}]\n", "transaction a"},
		{"bad amount", "name: n\ndescription: d\naccounts: [max]\ncycles: [{fetch: {max: {transactions: [{id: a, date: '2024-01-01', amount: 'lots', description: x, status: final}]}}}]\nassertions: [{type: final_state, rows: 0}]\n", "amount"},
		{"assertion without type", "name: n\ndescription: d\naccounts: [max]\ncycles: [{}]\nassertions: [{event: sent}]\n", "type is required"},
		{"unknown assertion", "name: n\ndescription: d\naccounts: [max]\ncycles: [{}]\nassertions: [{type: trace_magic}]\n", "unknown assertion type"},
		{"contains without event", "name: n\ndescription: d\naccounts: [max]\ncycles: [{}]\nassertions: [{type: trace_contains}]\n", "event is required"},
		{"order without events", "name: n\ndescription: d\naccounts: [max]\ncycles: [{}]\nassertions: [{type: trace_order}]\n", "events list is required"},
		{"negative count", "name: n\ndescription: d\naccounts: [max]\ncycles: [{}]\nassertions: [{type: trace_count, event: sent, count: -1}]\n", "non-negative"},
		{"empty final_state", "name: n\ndescription: d\naccounts: [max]\ncycles: [{}]\nassertions: [{type: final_state}]\n", "expect or rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTransaction_Observation(t *testing.T) {
	obs, err := Transaction{
		ID:          "X1",
		Date:        "2024-01-01",
		Amount:      "-50.00",
		Description: "Cafe",
		Status:      "final",
	}.Observation()
	require.NoError(t, err)

	assert.Equal(t, "X1", obs.Identifier)
	assert.Equal(t, "1111", obs.Account)
	assert.Equal(t, "ILS", obs.OriginalCurrency)
	assert.Equal(t, "ILS", obs.ChargedCurrency)
	assert.True(t, obs.OriginalAmount.Equal(decimal.NewFromInt(-50)))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), obs.Date)
}
