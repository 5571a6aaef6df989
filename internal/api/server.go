package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/distill/internal/config"
	"github.com/dgallion1/distill/internal/extract"
	"github.com/dgallion1/distill/internal/pipeline"
)

// Server is the HTTP API server for distill.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	claude       *extract.ClaudeClient
	validate     *validator.Validate
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. claude may be nil when
// the Claude fallback is not in use.
func NewServer(orch *pipeline.Orchestrator, claude *extract.ClaudeClient, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		orchestrator: orch,
		claude:       claude,
		validate:     validator.New(),
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DistillAPIKey, s.log))

		r.Post("/api/distill", s.handleDistill)
		r.Post("/api/distill/batch", s.handleBatchDistill)
		r.Get("/api/distill/{jobID}/status", s.handleStatus)
		r.Get("/api/distill/{jobID}/result", s.handleResult)

		r.Get("/api/books", s.handleListBooks)
		r.Get("/api/books/{hash}", s.handleGetBook)
		r.Delete("/api/books/{hash}", s.handleDeleteBook)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fallback := "none"
	if sum := s.orchestrator.Summarizer(); sum != nil {
		fallback = sum.FallbackName()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"fallback":    fallback,
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
