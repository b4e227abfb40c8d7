package nonce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tollgate/pkg/platform/sentinel"
)

func TestMemoryClaim(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	ok, err := m.Claim(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Claim(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "replayed jti")

	now = now.Add(time.Minute)
	ok, err = m.Claim(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired jti can be claimed again")
}

func TestMemoryClaimValidation(t *testing.T) {
	m := NewMemory()
	_, err := m.Claim(context.Background(), "", time.Minute)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
	_, err = m.Claim(context.Background(), "a", 0)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
}
