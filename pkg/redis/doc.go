// Package redis opens the optional Redis connection behind the contact claimer.
//
// [Open] parses REDIS_URL (redis:// or rediss://), applies pool and timeout
// settings from [Config] and retries PING before giving up with
// [ErrConnectionFailed]. [Healthcheck] and [Shutdown] plug into the HTTP
// server's readiness checks and shutdown hooks.
//
//	if cfg.Redis.Enabled() {
//		client, err := redis.Open(ctx, cfg.Redis)
//		if err != nil {
//			return err
//		}
//		claimer := lease.New(client)
//	}
package redis
