// Package server runs the HTTP side of outreach: the inbound webhook and
// health probes behind chi's request id, real ip and recoverer middleware,
// with startup and shutdown hooks for the job queue and connection pools.
package server
