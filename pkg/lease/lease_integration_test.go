//go:build integration

package lease_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/pkg/lease"
	"github.com/dmitrymomot/outreach/pkg/redis"
)

const testRedisURL = "redis://localhost:6379/0"

func setupRedis(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = testRedisURL
	}

	client, err := redis.Open(context.Background(), redis.Config{URL: url, RetryAttempts: 1})
	require.NoError(t, err, "failed to connect to Redis")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClaimer_Exclusive(t *testing.T) {
	t.Parallel()

	client := setupRedis(t)
	c := lease.New(client, lease.WithPrefix("test:"+uuid.NewString()+":"))
	ctx := context.Background()

	release, ok, err := c.Claim(ctx, "contact-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.Claim(ctx, "contact-1", time.Minute)
	require.NoError(t, err)
	require.False(t, ok, "second claim must fail while held")

	require.NoError(t, release(ctx))

	release, ok, err = c.Claim(ctx, "contact-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "claim is free after release")
	require.NoError(t, release(ctx))
}

func TestClaimer_ExpiredClaimIsNotReleasedByOldHolder(t *testing.T) {
	t.Parallel()

	client := setupRedis(t)
	c := lease.New(client, lease.WithPrefix("test:"+uuid.NewString()+":"))
	ctx := context.Background()

	oldRelease, ok, err := c.Claim(ctx, "contact-2", 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	newRelease, ok, err := c.Claim(ctx, "contact-2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.ErrorIs(t, oldRelease(ctx), lease.ErrLost)

	_, ok, err = c.Claim(ctx, "contact-2", time.Minute)
	require.NoError(t, err)
	require.False(t, ok, "new holder keeps the claim")
	require.NoError(t, newRelease(ctx))
}
