// Package api serves the read-only dashboard: discovered jobs, application
// attempts, and their audit trails.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/store"
)

// Server exposes the store over HTTP.
type Server struct {
	store  *store.Store
	logger *slog.Logger
	http   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a dashboard server listening on addr.
func New(st *store.Store, addr string, opts ...Option) *Server {
	s := &Server{
		store:  st,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the route table. Exposed separately so tests can drive it
// through httptest without binding a port.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		filter := store.JobFilter{
			Platform: jobs.Platform(r.URL.Query().Get("platform")),
			MinScore: queryInt(r, "min_score", 0),
			Limit:    queryInt(r, "limit", 100),
		}
		list, err := s.store.ListJobs(r.Context(), filter)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if list == nil {
			list = []*jobs.Listing{}
		}
		writeJSON(w, 200, list)
	})

	r.Get("/api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		job, err := s.store.GetJob(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, 404, err)
			return
		}
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, job)
	})

	r.Get("/api/applications", func(w http.ResponseWriter, r *http.Request) {
		status := jobs.Status(r.URL.Query().Get("status"))
		list, err := s.store.ListApplications(r.Context(), status, queryInt(r, "limit", 100))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if list == nil {
			list = []*jobs.Application{}
		}
		writeJSON(w, 200, list)
	})

	r.Get("/api/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		app, err := s.store.GetApplication(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, 404, err)
			return
		}
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, app)
	})

	r.Get("/api/applications/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := s.store.GetApplication(r.Context(), id); errors.Is(err, store.ErrNotFound) {
			writeError(w, 404, err)
			return
		} else if err != nil {
			writeError(w, 500, err)
			return
		}
		events, err := s.store.ListEvents(r.Context(), id)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if events == nil {
			events = []*jobs.Event{}
		}
		writeJSON(w, 200, events)
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.store.CountApplicationsByStatus(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		writeJSON(w, 200, map[string]any{
			"applications": total,
			"by_status":    counts,
		})
	})

	return r
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api: listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
