// Package logger builds the process-wide slog logger.
//
// It adds two things to log/slog: context extractors that inject
// per-call attributes (run id, contact id) and optional Sentry fan-out.
//
// # Usage
//
//	log := logger.New(cfg.Log,
//		logger.RunIDExtractor(),
//		logger.ContactIDExtractor(),
//	)
//
//	ctx = logger.WithRunID(ctx, runID)
//	log.InfoContext(ctx, "pass finished", slog.Int("sent", n))
//	// {"level":"INFO","msg":"pass finished","sent":3,"run_id":"..."}
//
// LOG_LEVEL (debug, info, warn, error) and LOG_FORMAT (json, text) pick the
// stdout handler. With SENTRY_DSN set, errors create Sentry issues and
// warnings are kept as Sentry logs. A failed Sentry init falls back to
// stdout only.
//
// Libraries in this module accept a *slog.Logger through options and
// default to [NewNope].
package logger
