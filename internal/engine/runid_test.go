package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	id := gen.Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err, "run id should be valid UUID")
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, id, gen.Generate())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("run-a", "run-b")

	assert.Equal(t, "run-a", gen.Generate())
	assert.Equal(t, "run-b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}
