package scheduler

import (
	"context"
	"log/slog"
	"maps"
	"time"
)

// DefaultBatchSize caps a pass when Run is called with maxBatch <= 0.
const DefaultBatchSize = 50

// DefaultClaimTTL bounds how long a claimed contact stays locked.
const DefaultClaimTTL = 5 * time.Minute

// Claimer grants short exclusive ownership of a key.
// ok is false when another holder has it.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithConcurrency processes up to n contacts of a pass at once. Default 1.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClaimer makes each contact exclusive for ttl while it is processed,
// so overlapping passes skip contacts already in flight.
func WithClaimer(c Claimer, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.claimer = c
		if ttl > 0 {
			s.claimTTL = ttl
		}
	}
}

// WithDefaults sets merge fallbacks, replacing the built-in ones.
func WithDefaults(values map[string]string) Option {
	return func(s *Scheduler) {
		s.defaults = maps.Clone(values)
	}
}

// WithReplyTo sets the Reply-To address of every step email.
func WithReplyTo(addr string) Option {
	return func(s *Scheduler) {
		s.replyTo = addr
	}
}

func defaultMergeValues() map[string]string {
	return map[string]string{
		"first_name":  "there",
		"publication": "your site",
	}
}
