package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rsharda/personad/internal/config"
	"github.com/rsharda/personad/internal/llm"
	"github.com/rsharda/personad/internal/persona"
	"github.com/rsharda/personad/internal/session"
)

// ChatModel is the LLM surface the chat handlers need.
type ChatModel interface {
	Complete(ctx context.Context, system string, msgs []llm.Message) (string, error)
	Model() string
}

// Server is the HTTP API server for personad.
type Server struct {
	router   chi.Router
	engine   *persona.Engine
	model    ChatModel
	stats    *llm.Stats
	sessions *session.Manager
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(engine *persona.Engine, model ChatModel, stats *llm.Stats, sessions *session.Manager, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		engine:   engine,
		model:    model,
		stats:    stats,
		sessions: sessions,
		log:      log,
		cfg:      cfg,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/chat", s.handleChat)
		r.Post("/api/reset", s.handleReset)
		r.Get("/api/sessions/{sessionID}", s.handleSessionStatus)

		r.Get("/api/persona", s.handleGetPersona)
		r.Get("/api/persona/export", s.handleExportPersona)
		r.Post("/api/persona", s.handleUploadPersona)
		r.Post("/api/persona/refresh", s.handleRefreshSummary)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
