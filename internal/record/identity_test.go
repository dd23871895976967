package record

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cafe() RawObservation {
	return RawObservation{
		Identifier:       "X1",
		Account:          "1111",
		Date:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Description:      "Cafe",
		Memo:             "",
		OriginalAmount:   decimal.RequireFromString("-50.00"),
		OriginalCurrency: "ILS",
		ChargedAmount:    decimal.RequireFromString("-50.00"),
		Status:           "completed",
	}
}

func TestIdentityDeterminism(t *testing.T) {
	id1, err := Identity(cafe())
	require.NoError(t, err)

	id2, err := Identity(cafe())
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "Identity must be deterministic")
	assert.Len(t, id1, IdentityLength, "SHA-256 hex is 64 characters")
}

func TestIdentityChangesWithEachField(t *testing.T) {
	base := MustIdentity(cafe())

	mutations := map[string]func(o *RawObservation){
		"identifier":  func(o *RawObservation) { o.Identifier = "X2" },
		"date":        func(o *RawObservation) { o.Date = o.Date.Add(time.Millisecond) },
		"amount":      func(o *RawObservation) { o.OriginalAmount = decimal.RequireFromString("-50.01") },
		"description": func(o *RawObservation) { o.Description = "Cafe Nero" },
		"memo":        func(o *RawObservation) { o.Memo = "tip included" },
		"status":      func(o *RawObservation) { o.Status = "pending" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			obs := cafe()
			mutate(&obs)
			assert.NotEqual(t, base, MustIdentity(obs))
		})
	}
}

func TestIdentityIgnoresNonIdentityFields(t *testing.T) {
	base := MustIdentity(cafe())

	obs := cafe()
	obs.Account = "2222"
	obs.ChargedAmount = decimal.RequireFromString("-12")
	obs.ChargedCurrency = "$"
	obs.OriginalCurrency = "USD"

	assert.Equal(t, base, MustIdentity(obs))
}

func TestIdentityAmountComparedByValue(t *testing.T) {
	a := cafe()
	b := cafe()
	b.OriginalAmount = decimal.RequireFromString("-50")

	assert.Equal(t, MustIdentity(a), MustIdentity(b))
}

func TestIdentityCompletedEqualsFinal(t *testing.T) {
	a := cafe()
	b := cafe()
	b.Status = "final"

	assert.Equal(t, MustIdentity(a), MustIdentity(b))
}

func TestIdentityDateZoneIndependent(t *testing.T) {
	loc := time.FixedZone("IST", 2*60*60)

	a := cafe()
	b := cafe()
	b.Date = a.Date.In(loc)

	assert.Equal(t, MustIdentity(a), MustIdentity(b))
}

func TestIdentityNFCNormalization(t *testing.T) {
	a := cafe()
	a.Description = "caf\u00e9"
	b := cafe()
	b.Description = "cafe\u0301"

	assert.Equal(t, MustIdentity(a), MustIdentity(b), "composed and decomposed forms must hash equally")
}

func TestIdentityFieldBoundaries(t *testing.T) {
	a := cafe()
	a.Description = "ab"
	a.Memo = "c"
	b := cafe()
	b.Description = "a"
	b.Memo = "bc"

	assert.NotEqual(t, MustIdentity(a), MustIdentity(b))
}

func TestIdentityRejectsUnknownStatus(t *testing.T) {
	obs := cafe()
	obs.Status = "reversed"

	_, err := Identity(obs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transaction status")
}

func TestMustIdentityPanics(t *testing.T) {
	obs := cafe()
	obs.Status = ""
	assert.Panics(t, func() { MustIdentity(obs) })
}
