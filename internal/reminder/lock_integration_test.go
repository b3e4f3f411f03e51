//go:build integration

package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaldocs/internal/platform/config"
	platformredis "legaldocs/internal/platform/redis"
	"legaldocs/pkg/testutil/containers"
)

func TestRedisLocker(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	client, err := platformredis.New(config.RedisConfig{URL: rc.Addr, PoolSize: 2})
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client)

	t.Run("second acquire is refused until release", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		held, err := locker.Acquire(ctx, sweepLockKey, time.Minute)
		require.NoError(t, err)
		assert.True(t, held)

		held, err = locker.Acquire(ctx, sweepLockKey, time.Minute)
		require.NoError(t, err)
		assert.False(t, held)

		require.NoError(t, locker.Release(ctx, sweepLockKey))

		held, err = locker.Acquire(ctx, sweepLockKey, time.Minute)
		require.NoError(t, err)
		assert.True(t, held)
	})

	t.Run("lock expires with its ttl", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		held, err := locker.Acquire(ctx, sweepLockKey, 50*time.Millisecond)
		require.NoError(t, err)
		require.True(t, held)

		time.Sleep(100 * time.Millisecond)

		held, err = locker.Acquire(ctx, sweepLockKey, time.Minute)
		require.NoError(t, err)
		assert.True(t, held)
	})
}
