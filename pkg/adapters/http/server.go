package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/collision"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/hooks"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 4 << 20

// Server exposes a Builder over HTTP.
type Server struct {
	Builder ports.Builder
	Streams *StreamManager

	metrics http.Handler
	events  *hooks.Manager
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithEvents streams the element actions of hm on GET /events.
func WithEvents(hm *hooks.Manager) Option {
	return func(s *Server) {
		s.events = hm
	}
}

// NewHandler creates a new HTTP handler for the builder.
func NewHandler(b ports.Builder, opts ...Option) http.Handler {
	s := &Server{
		Builder: b,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/commands/*", s.RunCommand)
	r.Get("/document", s.GetDocument)
	r.Put("/document", s.PutDocument)
	r.Get("/elements", s.GetElements)
	r.Get("/elements/{id}", s.GetElement)
	r.Get("/history", s.GetHistory)
	r.Get("/stats", s.GetStats)
	r.Post("/collision/detect", s.DetectCollision)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	if s.events != nil {
		s.Streams.Attach(s.events)
		r.Get("/events", s.SubscribeEvents)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string       `json:"error"`
	Kind  command.Kind `json:"kind,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: command.KindOf(err)})
}

// statusFor maps command failures to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, command.ErrCommandNotFound):
		return http.StatusNotFound
	case errors.Is(err, command.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, command.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, command.ErrPrecondition):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// snapshot turns live elements into data read under the tree lock.
func (s *Server) snapshot(v any) any {
	if c, ok := v.(*domain.Container); ok && c != nil {
		if data, ok := s.Builder.ElementData(c.ID()); ok {
			return data
		}
		return map[string]any{"id": c.ID()}
	}
	return v
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":            "canopy-http",
		"version":        canopy.Version,
		"documentFormat": domain.DocumentVersion,
	})
}

// CommandResponse is the body of a successful command run.
type CommandResponse struct {
	Command string `json:"command"`
	Result  any    `json:"result"`
}

// RunCommand handles POST /commands/{name}. The body is the JSON args object.
func (s *Server) RunCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	args := command.Args{}
	if err := decodeBody(r, &args); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	opts := []command.RunOption{command.Source("http")}
	if silent, _ := strconv.ParseBool(r.URL.Query().Get("silent")); silent {
		opts = append(opts, command.Silent())
	}

	result, err := s.Builder.Run(r.Context(), name, args, opts...)
	if err != nil {
		s.logger.Debug("command failed", "command", name, "err", err)
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, CommandResponse{Command: name, Result: s.snapshot(result)})
}

// GetDocument handles GET /document.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Builder.Serialize())
}

// PutDocument handles PUT /document, replacing the live document.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := decodeBody(r, &doc); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid document: %w", err))
		return
	}
	if err := s.Builder.Deserialize(r.Context(), &doc); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Builder.Serialize())
}

// GetElements handles GET /elements: the element types offered to the user.
func (s *Server) GetElements(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Builder.AvailableElements(r.Context()))
}

// GetElement handles GET /elements/{id}: one live element and its subtree.
func (s *Server) GetElement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, ok := s.Builder.ElementData(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("element %s not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

// GetHistory handles GET /history?command=&success=&since=&limit=.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := command.HistoryFilter{Command: q.Get("command")}
	if v := q.Get("success"); v != "" {
		ok, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid success: %w", err))
			return
		}
		filter.Success = &ok
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid since: %w", err))
			return
		}
		filter.Since = since
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		filter.Limit = limit
	}

	history := s.Builder.History(filter)
	for i := range history {
		// Live elements in results are reduced to their id.
		if c, ok := history[i].Result.(*domain.Container); ok && c != nil {
			history[i].Result = map[string]any{"id": c.ID()}
		}
	}
	s.writeJSON(w, http.StatusOK, history)
}

// GetStats handles GET /stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Builder.Stats())
}

// DetectRequest is the body of POST /collision/detect.
type DetectRequest struct {
	DraggedID  string                `json:"draggedId"`
	Active     collision.Rect        `json:"active"`
	Candidates []collision.Candidate `json:"candidates"`
}

// DetectCollision handles POST /collision/detect. With ?debug=true every algorithm is reported.
func (s *Server) DetectCollision(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if debug, _ := strconv.ParseBool(r.URL.Query().Get("debug")); debug {
		s.writeJSON(w, http.StatusOK, s.Builder.DebugDrop(req.DraggedID, req.Active, req.Candidates))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"result": s.Builder.ResolveDrop(req.DraggedID, req.Active, req.Candidates),
	})
}
