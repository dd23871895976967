package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bankwatch/internal/notify"
	"github.com/roach88/bankwatch/internal/record"
	"github.com/roach88/bankwatch/internal/source"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	c := NewManualClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("")
	assert.Equal(t, "run-1", ids.Generate())
	assert.Equal(t, "run-2", ids.Generate())

	assert.Equal(t, "scn-1", NewSequentialIDs("scn").Generate())
}

func TestScriptedAdapter_StepsAdvanceAndLastRepeats(t *testing.T) {
	first := []record.RawObservation{Obs("a", "2024-01-01", "-1", "A", "", "final")}
	boom := errors.New("boom")

	a := NewScriptedAdapter().On("max", Step{Observations: first}, Step{Err: boom})
	acct := source.Account{Kind: source.KindMax}
	ctx := context.Background()

	got, err := a.Fetch(ctx, acct, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, first, got)

	for i := 0; i < 2; i++ {
		_, err = a.Fetch(ctx, acct, time.Time{})
		assert.ErrorIs(t, err, boom)
	}

	got, err = a.Fetch(ctx, source.Account{Kind: source.KindLeumi}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, got)

	calls := a.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "max", calls[0].Account)
	assert.False(t, calls[0].Deadline)
	assert.Equal(t, "leumi", calls[3].Account)
}

func TestScriptedAdapter_RecordsDeadlineAndPanics(t *testing.T) {
	a := NewScriptedAdapter().On("max", Step{Panic: "scraper exploded"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	assert.PanicsWithValue(t, "scraper exploded", func() {
		_, _ = a.Fetch(ctx, source.Account{Kind: source.KindMax}, time.Time{})
	})
	assert.True(t, a.Calls()[0].Deadline)
}

func TestRecordingChannel(t *testing.T) {
	ch := NewRecordingChannel()
	refused := errors.New("refused")
	ch.FailWith = func(msg notify.Message) error {
		if msg.Subject == "bad" {
			return refused
		}
		return nil
	}
	ctx := context.Background()

	rcpt, err := ch.Send(ctx, notify.Message{Subject: "good"})
	require.NoError(t, err)
	assert.Equal(t, "rcpt-1", rcpt.ID)

	_, err = ch.Send(ctx, notify.Message{Subject: "bad"})
	assert.ErrorIs(t, err, refused)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = ch.Send(canceled, notify.Message{Subject: "late"})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 3, ch.Attempts())
	require.Len(t, ch.Sent(), 1)
	assert.Equal(t, "good", ch.Sent()[0].Subject)
}

func TestFaultyStore(t *testing.T) {
	st := NewFaultyStore(OpenStore(t, nil))
	ctx := context.Background()
	rec, err := record.FromObservation(Obs("a", "2024-01-01", "-1", "A", "", "final"))
	require.NoError(t, err)

	injected := errors.New("disk full")
	st.Set(func(f *FaultyStore) { f.InsertErr = func(record.Record) error { return injected } })
	assert.ErrorIs(t, st.Insert(ctx, rec), injected)

	st.Set(func(f *FaultyStore) { f.InsertErr = nil })
	require.NoError(t, st.Insert(ctx, rec))

	st.Set(func(f *FaultyStore) { f.MarkErr = func(string) error { return injected } })
	assert.ErrorIs(t, st.MarkNotified(ctx, rec.Identity), injected)

	pending, err := st.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
