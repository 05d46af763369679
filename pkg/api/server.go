package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/0xmhha/hydrotrack/pkg/analytics"
	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/metrics"
)

// Server serves the HTTP API.
type Server struct {
	config  Config
	service *analytics.Service
	metrics *metrics.Metrics
	logger  logger.Logger

	handler http.Handler
	httpSrv *http.Server
}

// New creates a server. m may be nil, in which case /metrics is not served
// and requests are not instrumented.
func New(cfg Config, svc *analytics.Service, m *metrics.Metrics, log logger.Logger) *Server {
	defaults := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = defaults.IdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}

	s := &Server{
		config:  cfg,
		service: svc,
		metrics: m,
		logger:  log.With("component", "api"),
	}

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)
	s.handler = handlers.LoggingHandler(log.Writer(), recovery(s.routes()))

	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.config.Addr)

	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down within the configured
// shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Handle("/health", s.instrument("health", s.health)).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	users := r.PathPrefix("/v1/users/{userID}").Subrouter()
	users.Handle("/summary", s.instrument("summary", s.summary)).Methods(http.MethodGet)
	users.Handle("/trends", s.instrument("trends", s.trends)).Methods(http.MethodGet)
	users.Handle("/insights", s.instrument("insights", s.insights)).Methods(http.MethodGet)
	users.Handle("/consumptions", s.instrument("consumptions_create", s.createConsumption)).Methods(http.MethodPost)
	users.Handle("/consumptions/{id}", s.instrument("consumptions_update", s.updateConsumption)).Methods(http.MethodPut)
	users.Handle("/consumptions/{id}", s.instrument("consumptions_delete", s.deleteConsumption)).Methods(http.MethodDelete)
	users.Handle("/snapshots/{date}", s.instrument("snapshot", s.snapshot)).Methods(http.MethodGet)
	users.Handle("/snapshots/{date}/recompute", s.instrument("snapshot_recompute", s.recomputeSnapshot)).Methods(http.MethodPost)
	users.Handle("/profile", s.instrument("profile_get", s.getProfile)).Methods(http.MethodGet)
	users.Handle("/profile", s.instrument("profile_put", s.putProfile)).Methods(http.MethodPut)

	return r
}

func (s *Server) instrument(route string, fn http.HandlerFunc) http.Handler {
	return s.metrics.WrapHandler(route, fn)
}

// recoveryLogger routes recovered panics into the structured logger.
type recoveryLogger struct {
	log logger.Logger
}

func (r recoveryLogger) Println(v ...interface{}) {
	r.log.Error("panic recovered", "panic", fmt.Sprint(v...))
}
