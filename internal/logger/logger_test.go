package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New(Options{Format: FormatJSON, Out: buf})
	require.NoError(t, err)

	log.Info().Str(FieldAccount, "max").Msg("fetched")
	log.Debug().Msg("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "exactly one JSON line expected, got %q", buf.String())
	assert.Equal(t, "fetched", entry["message"])
	assert.Equal(t, "max", entry["account"])
	assert.Contains(t, entry, "time")
}

func TestNew_Verbose(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New(Options{Format: FormatJSON, Verbose: true, Out: buf})
	require.NoError(t, err)

	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}

func TestNew_Console(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New(Options{Out: buf})
	require.NoError(t, err)

	log.Info().Msg("hello operator")
	assert.Contains(t, buf.String(), "hello operator")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := FromContext(ctx)
	log.Info().Msg("test")

	assert.NotZero(t, buf.Len())
}

func TestFromContext_Default(t *testing.T) {
	log := FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		FieldRunID: "run-1",
		FieldCycle: 3,
	})
	log.Info().Msg("cycle started")

	out := buf.String()
	assert.Contains(t, out, `"run_id":"run-1"`)
	assert.Contains(t, out, `"cycle":3`)
}
