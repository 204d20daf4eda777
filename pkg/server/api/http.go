package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/StrathCole/oracle-rounds/pkg/logging"
	"github.com/StrathCole/oracle-rounds/pkg/server/aggregator"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Options configures the HTTP server.
type Options struct {
	Addr         string
	AdminToken   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TLSCert      string
	TLSKey       string

	// RateLimit applies to submission routes when RequestsPerSecond > 0.
	RequestsPerSecond float64
	Burst             int

	// WebSocketPath mounts the event stream when a hub is given.
	WebSocketPath string
}

// Server represents the HTTP API server.
type Server struct {
	opts    Options
	engine  *aggregator.Engine
	hub     *Hub
	router  *mux.Router
	limiter *RateLimiter
	server  *http.Server
	logger  *logging.Logger
}

// NewServer creates a new HTTP API server. hub may be nil.
func NewServer(opts Options, engine *aggregator.Engine, hub *Hub, logger *logging.Logger) *Server {
	s := &Server{
		opts:   opts,
		engine: engine,
		hub:    hub,
		logger: logger.With("component", "api"),
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = NewRateLimiter(opts.RequestsPerSecond, opts.Burst, s.logger)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(instrument)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.hub != nil {
		path := s.opts.WebSocketPath
		if path == "" {
			path = "/ws"
		}
		router.HandleFunc(path, s.hub.HandleWebSocket).Methods(http.MethodGet)
	}

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/feeds", s.handleListFeeds).Methods(http.MethodGet)

	feeds := v1.PathPrefix("/feeds/{feedID}").Subrouter()
	feeds.HandleFunc("", s.handleGetFeed).Methods(http.MethodGet)
	feeds.HandleFunc("/latest", s.handleLatest).Methods(http.MethodGet)
	feeds.HandleFunc("/rounds/{roundID}", s.handleRound).Methods(http.MethodGet)
	feeds.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	feeds.HandleFunc("/next-round", s.handleNextRound).Methods(http.MethodGet)
	feeds.HandleFunc("/stale", s.handleStale).Methods(http.MethodGet)
	feeds.HandleFunc("/operators", s.handleOperators).Methods(http.MethodGet)
	feeds.HandleFunc("/operators/{address}", s.handleIsOperator).Methods(http.MethodGet)

	submissions := feeds.PathPrefix("/submissions").Subrouter()
	if s.limiter != nil {
		submissions.Use(s.limiter.Handler)
	}
	submissions.HandleFunc("", s.handleSubmit).Methods(http.MethodPost)
	submissions.HandleFunc("/batch", s.handleSubmitBatch).Methods(http.MethodPost)

	resolve := feeds.PathPrefix("/resolve").Subrouter()
	resolve.Use(adminAuth(s.opts.AdminToken))
	resolve.HandleFunc("", s.handleResolve).Methods(http.MethodPost)

	compatRoutes := v1.PathPrefix("/compat/{feedID}").Subrouter()
	compatRoutes.HandleFunc("/latest", s.handleCompatLatest).Methods(http.MethodGet)
	compatRoutes.HandleFunc("/rounds/{roundID}", s.handleCompatRound).Methods(http.MethodGet)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(adminAuth(s.opts.AdminToken))
	admin.HandleFunc("/pause", s.handlePause).Methods(http.MethodPost)
	admin.HandleFunc("/unpause", s.handleUnpause).Methods(http.MethodPost)
	admin.HandleFunc("/feeds", s.handleCreateFeed).Methods(http.MethodPost)
	admin.HandleFunc("/feeds/{feedID}", s.handleUpdateFeed).Methods(http.MethodPut)
	admin.HandleFunc("/feeds/{feedID}/operators", s.handleAddOperator).Methods(http.MethodPost)
	admin.HandleFunc("/feeds/{feedID}/operators/{address}", s.handleRemoveOperator).Methods(http.MethodDelete)

	return router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.opts.Addr, "tls", s.opts.TLSCert != "")
	var err error
	if s.opts.TLSCert != "" {
		err = s.server.ListenAndServeTLS(s.opts.TLSCert, s.opts.TLSKey)
	} else {
		err = s.server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

// sendJSON sends a JSON response.
func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	sendJSON(w, statusFor(err), ErrorResponse{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}
