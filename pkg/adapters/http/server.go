package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/lobster/internal/compiler"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

// maxBodyBytes bounds request bodies; pipeline text itself is limited by compiler.SanitizeInput.
const maxBodyBytes = 1 << 20

// Server exposes a PipelineRunner over HTTP.
type Server struct {
	Runner  ports.PipelineRunner
	Streams *StreamManager
	Logger  *slog.Logger
	Version string
}

// Option configures NewHandler.
type Option func(*config)

type config struct {
	streams  *StreamManager
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	version  string
	cors     bool
}

// WithStreams serves GET /v1/events from sm. Feed it with sm.Hooks().
func WithStreams(sm *StreamManager) Option {
	return func(c *config) { c.streams = sm }
}

// WithMetrics serves GET /metrics from g.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(c *config) { c.gatherer = g }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithVersion is reported by GET /v1/info.
func WithVersion(v string) Option {
	return func(c *config) { c.version = v }
}

// WithCORS allows cross-origin requests from any origin.
func WithCORS() Option {
	return func(c *config) { c.cors = true }
}

// NewHandler creates a new HTTP handler for the runner.
func NewHandler(runner ports.PipelineRunner, opts ...Option) http.Handler {
	cfg := &config{version: "dev"}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	server := &Server{
		Runner:  runner,
		Streams: cfg.streams,
		Logger:  cfg.logger,
		Version: cfg.version,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", server.GetHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/run", server.Run)
		r.Get("/commands", server.GetCommands)
		r.Get("/info", server.GetInfo)
		if server.Streams != nil {
			r.Get("/events", server.SubscribeEvents)
		}
	})
	if cfg.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
	}

	if cfg.cors {
		return enableCORS(r)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run handles the POST /v1/run request.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	var body ports.RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		s.Logger.Warn("Run: Invalid request body", "error", err)
		writeJSON(w, http.StatusBadRequest, domain.Envelope{
			Output: []domain.Item{},
			Error:  &domain.ErrorInfo{Type: "invalid_request", Message: fmt.Sprintf("invalid request body: %v", err)},
		})
		return
	}
	if strings.TrimSpace(body.Pipeline) == "" {
		writeJSON(w, http.StatusBadRequest, domain.Envelope{
			Output: []domain.Item{},
			Error:  &domain.ErrorInfo{Type: "invalid_request", Message: "pipeline is required"},
		})
		return
	}

	res, err := s.Runner.RunRequest(r.Context(), body)
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			s.Logger.Error("Run failed", "error", err)
		} else {
			s.Logger.Warn("Run rejected", "error", err)
		}
		writeJSON(w, status, domain.ErrorEnvelope(err))
		return
	}
	writeJSON(w, http.StatusOK, domain.NewEnvelope(res))
}

// GetCommands handles the GET /v1/commands request.
func (s *Server) GetCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Runner.Commands())
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /v1/info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lobster-http",
		"version": strings.TrimSpace(s.Version),
	})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var perr *domain.ParseError
	var uerr *domain.UnknownCommandError
	var serr *domain.StageError
	switch {
	case errors.As(err, &perr), errors.As(err, &uerr),
		errors.Is(err, compiler.ErrPipelineTooLarge), errors.Is(err, compiler.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.As(err, &serr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
