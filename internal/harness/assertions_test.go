package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bankwatch/internal/record"
	"github.com/roach88/bankwatch/internal/testutil"
)

var sampleTrace = []TraceEvent{
	{Cycle: 1, Type: EventFetchFailed, Account: "leumi", Detail: "TIMEOUT"},
	{Cycle: 1, Type: EventStored, Description: "Cafe", Detail: "final"},
	{Cycle: 1, Type: EventDeliveryFailed, Description: "Cafe"},
	{Cycle: 2, Type: EventSent, Description: "Cafe"},
}

func TestAssertTraceContains(t *testing.T) {
	assert.NoError(t, assertTraceContains(sampleTrace, Assertion{
		Event: EventFetchFailed,
		Match: map[string]interface{}{"account": "leumi", "detail": "TIMEOUT"},
	}))
	assert.NoError(t, assertTraceContains(sampleTrace, Assertion{
		Event: EventSent,
		Match: map[string]interface{}{"cycle": 2},
	}))

	err := assertTraceContains(sampleTrace, Assertion{
		Event: EventSent,
		Match: map[string]interface{}{"cycle": 1},
	})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "[cycle 2] sent Cafe")
}

func TestAssertTraceOrder(t *testing.T) {
	assert.NoError(t, assertTraceOrder(sampleTrace, Assertion{
		Events: []string{"fetch_failed", "delivery_failed Cafe", "sent Cafe"},
	}))

	err := assertTraceOrder(sampleTrace, Assertion{Events: []string{"sent Cafe", "stored Cafe"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")

	err = assertTraceOrder(sampleTrace, Assertion{Events: []string{"sent Bakery"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing event: sent Bakery")
}

func TestAssertTraceCount(t *testing.T) {
	assert.NoError(t, assertTraceCount(sampleTrace, Assertion{Event: EventStored, Count: 1}))
	assert.NoError(t, assertTraceCount(sampleTrace, Assertion{Event: EventCycleError, Count: 0}))

	err := assertTraceCount(sampleTrace, Assertion{Event: EventSent, Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actual: 1 occurrences")
}

func TestAssertFinalState(t *testing.T) {
	st := testutil.OpenStore(t, nil)
	ctx := context.Background()
	for _, obs := range []record.RawObservation{
		testutil.Obs("X1", "2024-01-01", "-50", "Cafe", "", "final"),
		testutil.Obs("X1", "2024-01-01", "-50", "Cafe", "tip included", "final"),
	} {
		rec, err := record.FromObservation(obs)
		require.NoError(t, err)
		require.NoError(t, st.Insert(ctx, rec))
	}

	rows := func(n int) *int { return &n }

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"row count", Assertion{Where: map[string]interface{}{"description": "Cafe"}, Rows: rows(2)}, ""},
		{"row count mismatch", Assertion{Where: map[string]interface{}{"description": "Cafe"}, Rows: rows(1)}, "1 row(s)"},
		{"no rows", Assertion{Where: map[string]interface{}{"description": "Rent"}, Rows: rows(0)}, ""},
		{"single row", Assertion{
			Where:  map[string]interface{}{"memo": "tip included"},
			Expect: map[string]interface{}{"notified": false, "status": "final", "original_amount": "-50"},
		}, ""},
		{"bool mismatch", Assertion{
			Where:  map[string]interface{}{"memo": "tip included"},
			Expect: map[string]interface{}{"notified": true},
		}, `column "notified"`},
		{"ambiguous", Assertion{
			Where:  map[string]interface{}{"description": "Cafe"},
			Expect: map[string]interface{}{"status": "final"},
		}, "ambiguous"},
		{"not found", Assertion{
			Where:  map[string]interface{}{"description": "Rent"},
			Expect: map[string]interface{}{"status": "final"},
		}, "row not found"},
		{"unknown column", Assertion{
			Where:  map[string]interface{}{"memo": ""},
			Expect: map[string]interface{}{"colour": "blue"},
		}, "not present"},
		{"bad identifier", Assertion{
			Where: map[string]interface{}{"memo; DROP TABLE transactions": ""},
			Rows:  rows(0),
		}, "invalid column name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(ctx, st, tt.assertion)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEvaluateAssertions_RequiresStore(t *testing.T) {
	errs := EvaluateAssertions(&Result{Trace: sampleTrace}, []Assertion{
		{Type: AssertTraceCount, Event: EventStored, Count: 1},
		{Type: AssertFinalState, Rows: new(int)},
	}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")
}

func TestStateValuesEqual(t *testing.T) {
	assert.True(t, stateValuesEqual(true, int64(1)))
	assert.True(t, stateValuesEqual(false, int64(0)))
	assert.False(t, stateValuesEqual(true, "1"))
	assert.True(t, stateValuesEqual(1, int64(1)))
	assert.True(t, stateValuesEqual("Cafe", []byte("Cafe")))
	assert.True(t, stateValuesEqual(nil, nil))
	assert.False(t, stateValuesEqual("x", nil))
}
