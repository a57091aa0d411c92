package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/orchard/internal/logging"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/ports"
)

// pingInterval keeps idle SSE connections alive through proxies.
const pingInterval = 15 * time.Second

// Info describes the loaded pit.
type Info struct {
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Tests       []string `json:"tests"`
	StateModels []string `json:"state_models"`
	DataModels  []string `json:"data_models"`
}

// NewInfo summarizes dom.
func NewInfo(dom *domain.Dom, version string) Info {
	info := Info{Name: dom.Name, Version: version, Tests: []string{}, StateModels: []string{}, DataModels: []string{}}
	for _, t := range dom.Tests() {
		info.Tests = append(info.Tests, t.Name)
	}
	for _, sm := range dom.StateModels() {
		info.StateModels = append(info.StateModels, sm.Name)
	}
	for _, m := range dom.DataModels() {
		info.DataModels = append(info.DataModels, m.Name())
	}
	return info
}

// Server serves run records, engine events and metrics.
type Server struct {
	Store   ports.RunStore
	Streams *StreamManager
	Info    *Info

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts h (typically promhttp.HandlerFor) at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithInfo serves info at /info.
func WithInfo(info Info) Option {
	return func(s *Server) {
		s.Info = &info
	}
}

// WithStreams serves the events of sm at /events.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewServer creates a server reading records from store.
func NewServer(store ports.RunStore, opts ...Option) *Server {
	s := &Server{Store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s
}

// NewHandler creates the HTTP handler for store.
func NewHandler(store ports.RunStore, opts ...Option) http.Handler {
	return NewServer(store, opts...).Handler()
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Get("/{id}", s.GetRun)
		r.Delete("/{id}", s.DeleteRun)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	if s.Info == nil {
		http.Error(w, "no pit loaded", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Info)
}

// ListRuns handles GET /runs. Records vanishing between listing and loading are skipped.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("list error: %v", err), http.StatusInternalServerError)
		s.logger.Error("ListRuns failed", "err", err)
		return
	}

	runs := make([]*domain.RunRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Store.Load(r.Context(), id)
		if errors.Is(err, domain.ErrRunNotFound) {
			continue
		}
		if err != nil {
			http.Error(w, fmt.Sprintf("load error: %v", err), http.StatusInternalServerError)
			s.logger.Error("ListRuns: load failed", "run_id", id, "err", err)
			return
		}
		runs = append(runs, rec)
	}
	s.writeJSON(w, http.StatusOK, runs)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.Store.Load(r.Context(), id)
	if errors.Is(err, domain.ErrRunNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("GetRun failed", "run_id", id, "err", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Store.Delete(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("delete error: %v", err), http.StatusInternalServerError)
		s.logger.Error("DeleteRun failed", "run_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles GET /events (SSE). The run_id query parameter narrows the
// stream to one run.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	runID := r.URL.Query().Get("run_id")
	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "run_id", runID)
			return
		case <-ticker.C:
			fmt.Fprintf(w, "event: ping\ndata: keepalive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
