package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/internal/server"
	"github.com/dmitrymomot/outreach/pkg/health"
)

func TestHandler_Routes(t *testing.T) {
	t.Parallel()

	s := server.New(
		server.WithHealthChecks(health.Checks{
			"store": func(context.Context) error { return errors.New("down") },
		}),
		server.WithRoutes(func(r chi.Router) {
			r.Post("/webhooks/inbound", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			})
			r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
		}),
	)
	h := s.Handler()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusServiceUnavailable},
		{http.MethodPost, "/webhooks/inbound", http.StatusAccepted},
		{http.MethodGet, "/webhooks/inbound", http.StatusMethodNotAllowed},
		{http.MethodGet, "/boom", http.StatusInternalServerError},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRun_HooksAndShutdown(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		calls []string
	)
	record := func(name string, err error) server.Hook {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, name)
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := server.New(
		server.WithAddr("127.0.0.1:0"),
		server.WithShutdownTimeout(time.Second),
		server.WithStartupHook(record("start", nil)),
		server.WithStartupHook(func(context.Context) error { cancel(); return nil }),
		server.WithShutdownHook(record("stop-jobs", nil)),
		server.WithShutdownHook(record("close-db", nil)),
	)

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, []string{"start", "stop-jobs", "close-db"}, calls)
}

func TestRun_StartupFailure(t *testing.T) {
	t.Parallel()

	startErr := errors.New("migrations pending")
	closed := false
	s := server.New(
		server.WithAddr("127.0.0.1:0"),
		server.WithStartupHook(func(context.Context) error { return startErr }),
		server.WithShutdownHook(func(context.Context) error { closed = true; return nil }),
	)

	err := s.Run(context.Background())
	require.ErrorIs(t, err, startErr)
	assert.True(t, closed)
}

func TestRun_ShutdownHookError(t *testing.T) {
	t.Parallel()

	hookErr := errors.New("pool close failed")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := server.New(
		server.WithAddr("127.0.0.1:0"),
		server.WithShutdownHook(func(context.Context) error { return hookErr }),
	)

	require.ErrorIs(t, s.Run(ctx), hookErr)
}
