// Package health serves the liveness and readiness probes of the outreach server.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"postgres": db.Healthcheck(pool),
//		"jobs":     job.Healthcheck(manager),
//	}, health.WithLogger(log)))
//
// Checks run in parallel under one timeout. Responses are plain text
// ("OK" or "Service Unavailable") unless the client asks for JSON with
// ?format=json or Accept: application/json:
//
//	{"status":"unhealthy","checks":{"postgres":{"status":"healthy"},"redis":{"status":"unhealthy","error":"..."}}}
package health
