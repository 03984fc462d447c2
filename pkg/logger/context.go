package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	contactIDKey
)

// WithRunID tags ctx with a scheduler pass identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithContactID tags ctx with the contact being processed.
func WithContactID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contactIDKey, id)
}

// RunID returns the run id stored in ctx, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// RunIDExtractor adds run_id to every record logged with a tagged context.
func RunIDExtractor() ContextExtractor {
	return stringExtractor(runIDKey, "run_id")
}

// ContactIDExtractor adds contact_id to every record logged with a tagged context.
func ContactIDExtractor() ContextExtractor {
	return stringExtractor(contactIDKey, "contact_id")
}

func stringExtractor(key ctxKey, name string) ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			return slog.String(name, v), true
		}
		return slog.Attr{}, false
	}
}
