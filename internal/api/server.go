// Package api serves the read API used by the dashboard, plus an endpoint
// that evaluates a signal on demand.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/processor"
	"github.com/rxtech-lab/signal-tracker/internal/store"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Config controls the HTTP server.
type Config struct {
	// Interval is the default chart interval.
	Interval marketdata.Interval
	// Now bounds chart windows. Defaults to time.Now.
	Now func() time.Time
}

// Server routes API requests to the store and the processor.
type Server struct {
	store     store.Store
	processor processor.SignalProcessor
	cfg       Config
	logger    *logger.Logger
	router    *mux.Router
}

// NewServer registers all routes.
func NewServer(st store.Store, proc processor.SignalProcessor, cfg Config, log *logger.Logger) *Server {
	if cfg.Interval == "" {
		cfg.Interval = marketdata.DefaultInterval
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		store:     st,
		processor: proc,
		cfg:       cfg,
		logger:    log.Named("api"),
		router:    mux.NewRouter(),
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	v1.HandleFunc("/channels", s.handleListChannels).Methods(http.MethodGet)
	v1.HandleFunc("/channels/rates", s.handleUpdateRates).Methods(http.MethodPost)
	v1.HandleFunc("/channels/{id:[0-9]+}/signals", s.handleListSignals).Methods(http.MethodGet)
	v1.HandleFunc("/channels/{id:[0-9]+}/stats", s.handleChannelStats).Methods(http.MethodGet)
	v1.HandleFunc("/signals/{id:[0-9]+}", s.handleGetSignal).Methods(http.MethodGet)
	v1.HandleFunc("/signals/{id:[0-9]+}/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	v1.HandleFunc("/signals/{id:[0-9]+}/chart", s.handleChart).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{Code: 0, Message: "route not found"}})
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve serves on listener until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(listener)
	}()

	s.logger.Info("API listening", zap.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.logger.Info("API stopped")

	return nil
}

// ListenAndServe listens on address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listener)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
