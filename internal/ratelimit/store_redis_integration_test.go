//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tollgate/pkg/testutil/containers"
)

func TestRedisStore_SlidingWindow(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))
	store := NewRedisStore(rc.Client)

	for i := range 3 {
		result, err := store.AllowN(ctx, "write:signer:a", 1, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result, err := store.AllowN(ctx, "write:signer:a", 1, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Positive(t, result.RetryAfter)
	assert.LessOrEqual(t, result.RetryAfter, time.Minute)

	result, err = store.AllowN(ctx, "write:signer:b", 1, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisStore_WindowExpires(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))
	store := NewRedisStore(rc.Client)

	_, err := store.AllowN(ctx, "read:ip:10.0.0.1", 1, 1, 200*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		result, err := store.AllowN(ctx, "read:ip:10.0.0.1", 1, 1, 200*time.Millisecond)
		return err == nil && result.Allowed
	}, 2*time.Second, 50*time.Millisecond)
}
