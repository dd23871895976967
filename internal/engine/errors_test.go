package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCycleError_Error(t *testing.T) {
	err := &CycleError{
		Code:     ErrCodeStore,
		Message:  "mark notified failed",
		RunID:    "run-1",
		Identity: "abc",
		Err:      errors.New("database is locked"),
	}
	assert.Equal(t, "STORE: mark notified failed (run=run-1) (identity=abc): database is locked", err.Error())
}

func TestIsCycleError(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", newStoreError("select pending", "", errors.New("x")))

	assert.True(t, IsCycleError(wrapped))
	assert.Equal(t, ErrCodeStore, CodeOf(wrapped))

	assert.False(t, IsCycleError(errors.New("plain")))
	assert.Equal(t, CycleErrorCode(""), CodeOf(errors.New("plain")))
}

func TestCycleError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := newStoreError("insert", "id", cause)
	assert.ErrorIs(t, err, cause)
}

func TestNewPanicError(t *testing.T) {
	cause := errors.New("index out of range")
	assert.ErrorIs(t, newPanicError(cause), cause)
	assert.Contains(t, newPanicError(42).Error(), "42")
	assert.Equal(t, ErrCodePanic, newPanicError("x").Code)
}
