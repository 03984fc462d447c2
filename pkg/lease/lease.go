// Package lease grants short exclusive claims on keys backed by Redis.
//
// The scheduler claims each contact for the duration of its step so that
// overlapping passes skip contacts already in flight. A claim expires on
// its own after the TTL; release only deletes the key while it still
// holds the token written by the matching Claim.
package lease

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrClaim   = errors.New("lease: failed to claim key")
	ErrRelease = errors.New("lease: failed to release key")
	ErrLost    = errors.New("lease: claim expired or taken over before release")
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Claimer issues claims with SET NX PX.
type Claimer struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Claimer.
type Option func(*Claimer)

// WithPrefix namespaces every key. Default "lease:".
func WithPrefix(prefix string) Option {
	return func(c *Claimer) {
		c.prefix = prefix
	}
}

// New creates a Claimer on client.
func New(client redis.UniversalClient, opts ...Option) *Claimer {
	c := &Claimer{client: client, prefix: "lease:"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Claim takes key for ttl. ok is false when someone else holds it.
// The returned release must be called once the work is done.
func (c *Claimer) Claim(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	full := c.prefix + key
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, false, errors.Join(ErrClaim, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, c.client, []string{full}, token).Int()
		if err != nil {
			return errors.Join(ErrRelease, err)
		}
		if n == 0 {
			return ErrLost
		}
		return nil
	}
	return release, true, nil
}
