// Package server exposes the details view over HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go.infratographer.com/loadbalancer-details/internal/details"
	"go.infratographer.com/loadbalancer-details/internal/lbapi"
)

const (
	defaultListen   = ":8080"
	shutdownTimeout = 5 * time.Second
	readTimeout     = 10 * time.Second
	maxBodyBytes    = 1 << 16
)

type view interface {
	ID() string
	Current() (details.Snapshot, bool)
	OpenSystemModal(ctx context.Context, message string) error
	GoBack(ctx context.Context) error
}

// Server serves the latest snapshot and accepts the view actions
type Server struct {
	view   view
	listen string
	logger *zap.SugaredLogger
	router *mux.Router
}

// Option is a functional configuration option
type Option func(s *Server)

// WithListenAddress sets the address the server listens on
func WithListenAddress(addr string) Option {
	return func(s *Server) {
		s.listen = addr
	}
}

// WithLogger sets the server logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server for v
func New(v view, opts ...Option) *Server {
	s := &Server{
		view:   v,
		listen: defaultListen,
		logger: zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()

	return s
}

// Handler returns the http handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	lb := r.PathPrefix("/load-balancers/{id}").Subrouter()
	lb.Use(s.matchID)
	lb.HandleFunc("", s.getSnapshot).Methods(http.MethodGet)
	lb.HandleFunc("/modal", s.openModal).Methods(http.MethodPost)
	lb.HandleFunc("/back", s.goBack).Methods(http.MethodPost)

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.router,
		ReadHeaderTimeout: readTimeout,
	}

	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		s.logger.Errorw("failed to listen", "listen", s.listen, "error", err)
		return err
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Infow("starting http server", "listen", s.listen)

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)

	// a serve failure racing the cancellation must not be lost
	return errors.Join(err, <-errCh)
}

type snapshotResponse struct {
	ID        string         `json:"id"`
	Kind      details.Kind   `json:"kind"`
	FetchedAt time.Time      `json:"fetched_at"`
	Resource  lbapi.Resource `json:"resource"`
}

type modalRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) matchID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] != s.view.ID() {
			s.writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrUnknownID.Error()})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.view.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.writeJSON(w, http.StatusOK, snapshotResponse{
		ID:        snap.ID,
		Kind:      snap.Kind,
		FetchedAt: snap.FetchedAt,
		Resource:  snap.Resource,
	})
}

func (s *Server) openModal(w http.ResponseWriter, r *http.Request) {
	var req modalRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidBody.Error()})
		return
	}

	if err := s.view.OpenSystemModal(r.Context(), req.Message); err != nil {
		s.logger.Errorw("failed to forward modal request", "error", err)
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})

		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) goBack(w http.ResponseWriter, r *http.Request) {
	if err := s.view.GoBack(r.Context()); err != nil {
		s.logger.Errorw("failed to forward navigation request", "error", err)
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})

		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorw("failed to write response", "error", err)
	}
}
