package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapAndCodes(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("wrap nil returns nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", Wrap(cause, CodeUnavailable, "ledger unavailable"))
		assert.True(t, HasCode(err, CodeUnavailable))
		assert.Equal(t, CodeUnavailable, GetCode(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, GetCode(cause))
		assert.False(t, HasCode(cause, CodeNotFound))
	})

	t.Run("message excludes code and cause", func(t *testing.T) {
		err := Wrap(cause, CodePaused, "token is paused")
		assert.Equal(t, "token is paused", Message(err))
		assert.Contains(t, err.Error(), "paused")
		assert.Contains(t, err.Error(), "connection refused")
	})
}
