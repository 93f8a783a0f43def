// Package http exposes a chart's instances over a JSON API backed by a
// session manager. The surface is described by api/openapi.yaml; the
// handlers here are written against that contract and the tests hold
// them to it.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lanreath/strata/api"
	"github.com/lanreath/strata/internal/logging"
	"github.com/lanreath/strata/internal/presentation/graph"
	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/session"
)

// DispatchRequest is the body of POST /api/v1/instances/{id}/events.
type DispatchRequest struct {
	EventID uint16 `json:"event_id"`
	Payload []byte `json:"payload,omitempty"`
}

// DispatchResponse reports how one dispatched event resolved.
type DispatchResponse struct {
	Outcome string         `json:"outcome"`
	Current domain.StateID `json:"current"`
}

// InstanceList is the body of GET /api/v1/instances.
type InstanceList struct {
	Instances []string `json:"instances"`
}

// Server serves one chart's instances.
type Server struct {
	manager *session.Manager
	logger  *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler builds the HTTP handler for a session manager.
func NewHandler(manager *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		manager: manager,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return enableCORS(s.routes())
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/healthz", s.getHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", s.getSpec)
	r.Get("/swagger", s.getSwagger)

	r.Get("/api/v1/chart", s.getChart)
	r.Get("/api/v1/chart/diagram", s.getDiagram)
	r.Get("/api/v1/instances", s.listInstances)
	r.Post("/api/v1/instances", s.createInstance)
	r.Get("/api/v1/instances/{id}", s.getInstance)
	r.Delete("/api/v1/instances/{id}", s.deleteInstance)
	r.Post("/api/v1/instances/{id}/events", s.dispatchEvent)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(api.Spec)
}

func (s *Server) getSwagger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(swaggerHTML))
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.manager.Def())
}

func (s *Server) getDiagram(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.Overlay
	if instance := r.URL.Query().Get("instance"); instance != "" {
		snap, err := s.manager.Get(r.Context(), instance)
		if err != nil {
			s.writeError(w, r, err, "diagram overlay")
			return
		}
		overlay = &graph.Overlay{Current: snap.Current}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(graph.GenerateMermaid(s.manager.Def(), overlay)))
}

func (s *Server) createInstance(w http.ResponseWriter, r *http.Request) {
	id, err := s.manager.Create(r.Context())
	if err != nil {
		s.writeError(w, r, err, "create instance")
		return
	}
	snap, err := s.manager.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "create instance")
		return
	}
	s.writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) listInstances(w http.ResponseWriter, r *http.Request) {
	ids, err := s.manager.List(r.Context())
	if err != nil {
		s.writeError(w, r, err, "list instances")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, InstanceList{Instances: ids})
}

func (s *Server) getInstance(w http.ResponseWriter, r *http.Request) {
	snap, err := s.manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err, "get instance")
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) deleteInstance(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err, "delete instance")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) dispatchEvent(w http.ResponseWriter, r *http.Request) {
	var body DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("dispatch: invalid request body", "err", err)
		return
	}

	id := chi.URLParam(r, "id")
	ev := domain.NewEvent(domain.EventID(body.EventID), body.Payload)
	out, err := s.manager.Dispatch(r.Context(), id, ev)
	if err != nil {
		s.writeError(w, r, err, "dispatch event")
		return
	}

	snap, err := s.manager.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "dispatch event")
		return
	}
	s.writeJSON(w, http.StatusOK, DispatchResponse{
		Outcome: out.String(),
		Current: snap.Current,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps domain sentinels to status codes; anything unexpected
// is a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrInstanceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrDispatchInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.logger.Error(op+" failed", "path", r.URL.Path, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Strata API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`
