package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/copyedit/internal/catalog"
	"github.com/dgallion1/copyedit/internal/config"
	"github.com/dgallion1/copyedit/internal/metrics"
	"github.com/dgallion1/copyedit/internal/session"
)

// CatalogCache is the optional cache in front of the catalog source.
type CatalogCache interface {
	Invalidate(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Server is the HTTP API of the editing service.
type Server struct {
	router   chi.Router
	sessions *session.Store
	catalog  *catalog.Shared
	cache    CatalogCache
	latency  *metrics.Latency
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. cache may be nil.
func NewServer(sessions *session.Store, shared *catalog.Shared, cache CatalogCache, latency *metrics.Latency, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		sessions: sessions,
		catalog:  shared,
		cache:    cache,
		latency:  latency,
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
		r.Use(AuthMiddleware(s.cfg.CopyeditAPIKey, s.log))

		r.Get("/api/catalog", s.handleGetCatalog)
		r.Post("/api/catalog/refresh", s.handleRefreshCatalog)
		r.Get("/api/stats/validation", s.handleValidationStats)

		r.Post("/api/sessions", s.handleCreateSession)
		r.Get("/api/sessions", s.handleListSessions)
		r.Post("/api/sessions/import", s.handleImport)

		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleState)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/document", s.handleLoad)
			r.Get("/content", s.handleContent)
			r.Get("/stats", s.handleStats)
			r.Get("/report", s.handleReport)

			r.Post("/input", s.handleInput)
			r.Put("/live", s.handleReplaceContent)
			r.Put("/selection", s.handleSetSelection)
			r.Post("/paste", s.handlePaste)
			r.Post("/copy", s.handleCopy)
			r.Post("/format", s.handleFormat)
			r.Post("/find-replace", s.handleFindReplace)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Post("/reset", s.handleReset)
			r.Put("/mode", s.handleMode)
			r.Post("/navigate", s.handleNavigate)
			r.Post("/flush", s.handleFlush)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "sessions": s.sessions.Len()}
	if s.cache != nil {
		if err := s.cache.Ping(r.Context()); err != nil {
			status["cache"] = "unreachable"
		} else {
			status["cache"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, status)
}
