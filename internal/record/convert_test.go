package record

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromObservation(t *testing.T) {
	obs := cafe()
	obs.Memo = "tip included"

	rec, err := FromObservation(obs)
	require.NoError(t, err)

	assert.Equal(t, MustIdentity(obs), rec.Identity)
	assert.Equal(t, "X1", rec.ExternalID)
	assert.Equal(t, "1111", rec.Account)
	assert.Equal(t, StatusFinal, rec.Status)
	assert.Equal(t, "tip included", rec.Memo)
	assert.True(t, rec.OriginalAmount.Equal(decimal.RequireFromString("-50")))
	assert.False(t, rec.Notified, "records start out not notified")
}

func TestFromObservationDefaultsChargedCurrency(t *testing.T) {
	rec, err := FromObservation(cafe())
	require.NoError(t, err)
	assert.Equal(t, DefaultChargedCurrency, rec.ChargedCurrency)

	obs := cafe()
	obs.ChargedCurrency = "$"
	rec, err = FromObservation(obs)
	require.NoError(t, err)
	assert.Equal(t, "$", rec.ChargedCurrency)
}

func TestFromObservationMemoOnlyDifference(t *testing.T) {
	a := cafe()
	b := cafe()
	b.Memo = "tip included"

	ra, err := FromObservation(a)
	require.NoError(t, err)
	rb, err := FromObservation(b)
	require.NoError(t, err)

	assert.NotEqual(t, ra.Identity, rb.Identity)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"completed", StatusFinal, false},
		{"final", StatusFinal, false},
		{" Pending ", StatusPending, false},
		{"", "", true},
		{"declined", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseStatus(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseStatus(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}
