package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/outreach/pkg/health"
	"github.com/dmitrymomot/outreach/pkg/logger"
)

const (
	defaultAddr              = ":8080"
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 30 * time.Second
)

// Hook runs on startup or shutdown.
type Hook func(context.Context) error

// Server is the HTTP runtime of the outreach process.
type Server struct {
	log             *slog.Logger
	checks          health.Checks
	addr            string
	routes          []func(chi.Router)
	startupHooks    []Hook
	shutdownHooks   []Hook
	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithRoutes mounts handlers on the root router.
func WithRoutes(fn func(chi.Router)) Option {
	return func(s *Server) {
		s.routes = append(s.routes, fn)
	}
}

// WithHealthChecks sets the readiness checks.
func WithHealthChecks(checks health.Checks) Option {
	return func(s *Server) {
		s.checks = checks
	}
}

// WithStartupHook runs fn before the listener accepts requests.
// A failing hook aborts Run.
func WithStartupHook(fn Hook) Option {
	return func(s *Server) {
		s.startupHooks = append(s.startupHooks, fn)
	}
}

// WithShutdownHook runs fn after the HTTP server stopped, in registration order.
func WithShutdownHook(fn Hook) Option {
	return func(s *Server) {
		s.shutdownHooks = append(s.shutdownHooks, fn)
	}
}

// New creates a Server.
func New(opts ...Option) *Server {
	s := &Server{
		addr:            defaultAddr,
		log:             logger.NewNope(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(s.checks, health.WithLogger(s.log)))

	for _, fn := range s.routes {
		fn(r)
	}
	return r
}

// Run serves until ctx is canceled or SIGINT/SIGTERM arrives, then shuts
// down gracefully and runs the shutdown hooks.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, hook := range s.startupHooks {
		if err := hook(ctx); err != nil {
			s.log.Error("startup hook failed", slog.String("error", err.Error()))
			return errors.Join(err, s.runShutdownHooks())
		}
	}

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return errors.Join(err, s.runShutdownHooks())
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer shutdownCancel()

	errs := []error{serveErr}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, s.runHooks(shutdownCtx, s.shutdownHooks))

	if err := errors.Join(errs...); err != nil {
		s.log.Error("shutdown completed with errors", slog.String("error", err.Error()))
		return err
	}
	s.log.Info("shutdown completed")
	return nil
}

func (s *Server) runShutdownHooks() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.runHooks(ctx, s.shutdownHooks)
}

func (s *Server) runHooks(ctx context.Context, hooks []Hook) error {
	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			s.log.Error("shutdown hook failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
