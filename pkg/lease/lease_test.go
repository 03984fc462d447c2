package lease_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/pkg/lease"
)

func newClaimer(t *testing.T) (*lease.Claimer, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lease.New(client, lease.WithPrefix("test:")), mr
}

func TestClaim_Exclusive(t *testing.T) {
	t.Parallel()

	c, mr := newClaimer(t)
	ctx := context.Background()

	release, ok, err := c.Claim(ctx, "contact-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("test:contact-1"))
	assert.Equal(t, time.Minute, mr.TTL("test:contact-1"))

	_, ok, err = c.Claim(ctx, "contact-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second claim fails while held")

	// Other keys are independent.
	other, ok, err := c.Claim(ctx, "contact-2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("test:contact-1"))

	release, ok, err = c.Claim(ctx, "contact-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "claim is free after release")
	require.NoError(t, release(ctx))
}

func TestClaim_ReleaseAfterTakeover(t *testing.T) {
	t.Parallel()

	c, mr := newClaimer(t)
	ctx := context.Background()

	oldRelease, ok, err := c.Claim(ctx, "contact-3", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	newRelease, ok, err := c.Claim(ctx, "contact-3", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired claim can be taken")

	require.ErrorIs(t, oldRelease(ctx), lease.ErrLost)
	assert.True(t, mr.Exists("test:contact-3"), "old holder must not delete the new claim")

	_, ok, err = c.Claim(ctx, "contact-3", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, newRelease(ctx))
	assert.False(t, mr.Exists("test:contact-3"))
}

func TestClaim_ReleaseTwice(t *testing.T) {
	t.Parallel()

	c, _ := newClaimer(t)
	ctx := context.Background()

	release, ok, err := c.Claim(ctx, "contact-4", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, release(ctx))
	require.ErrorIs(t, release(ctx), lease.ErrLost)
}

func TestClaim_ServerDown(t *testing.T) {
	t.Parallel()

	c, mr := newClaimer(t)
	ctx := context.Background()

	release, ok, err := c.Claim(ctx, "contact-5", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.Close()

	_, _, err = c.Claim(ctx, "contact-6", time.Minute)
	require.ErrorIs(t, err, lease.ErrClaim)
	require.ErrorIs(t, release(ctx), lease.ErrRelease)
}
