//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tollgate/internal/platform/config"
	"tollgate/pkg/testutil/containers"
)

func TestClientHealth(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)

	c, err := New(context.Background(), config.RedisConfig{
		URL:         rc.Addr,
		PoolSize:    2,
		DialTimeout: time.Second,
		ReadTimeout: time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NoError(t, c.Health(context.Background()))

	require.NoError(t, c.Close())
	require.Error(t, c.Health(context.Background()))
}
