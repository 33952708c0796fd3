// Package server serves the post pages and keeps live page sessions that
// follow fragment changes over a websocket.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"adventune/folio/diffusion"
	"adventune/folio/events"
	"adventune/folio/highlight"
	"adventune/folio/popup"
	"adventune/folio/repository"
	"adventune/folio/router"
)

// DefaultShell is the page markup used when no shell file is configured.
const DefaultShell = `<section class="intro"><h2 class="diffuse-text">Posts</h2></section>
<section id="posts-section"><div id="` + router.PostsContainerID + `"></div></section>`

// Config holds server configuration.
type Config struct {
	Addr string
	// ContentDir is served under /posts and /public. Empty disables both.
	ContentDir     string
	Shell          string
	Title          string
	AllowedOrigins []string

	Pages     *router.Pages
	Animator  *diffusion.Animator
	Popups    *popup.Binder
	Highlight *highlight.Highlighter // nil disables highlighting
}

// Server routes requests to sessions over the current repository.
type Server struct {
	cfg        Config
	newRepo    func() *repository.Repository
	repo       atomic.Pointer[repository.Repository]
	sessions   atomic.Int64
	router     chi.Router
	httpServer *http.Server
}

// New creates a server whose repositories come from newRepo. A new one is
// made at start and on every Reload.
func New(cfg Config, newRepo func() *repository.Repository) *Server {
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}
	if cfg.Title == "" {
		cfg.Title = "Folio"
	}
	if cfg.Pages == nil {
		cfg.Pages = router.DefaultPages()
	}
	if cfg.Animator == nil {
		cfg.Animator = diffusion.NewAnimator()
	}
	if cfg.Popups == nil {
		cfg.Popups = popup.NewBinder(cfg.Pages.AssetRoot, cfg.Pages.ImageFormat, cfg.Pages.FallbackFormat)
	}

	s := &Server{cfg: cfg, newRepo: newRepo}
	s.repo.Store(newRepo())
	s.router = s.buildRouter()
	return s
}

// Repository returns the repository new sessions read from.
func (s *Server) Repository() *repository.Repository {
	return s.repo.Load()
}

// Reload replaces the repository, dropping everything cached. Open
// sessions keep the repository they started with.
func (s *Server) Reload() {
	s.repo.Store(s.newRepo())
	log.Info().Msg("Content reloaded")
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", s.handlePage)
		r.Get("/api/view", s.handleView)
		if s.cfg.Highlight != nil {
			r.Get("/highlight.css", s.handleHighlightCSS)
		}
		if s.cfg.ContentDir != "" {
			files := http.FileServer(http.Dir(s.cfg.ContentDir))
			r.Handle("/posts/*", files)
			r.Handle("/public/*", files)
		}
	})
	return r
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", s.cfg.Addr).Msg("Listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Load(),
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := s.newSession()
	ev := sess.navigate(r.Context(), "")
	page, err := renderPage(pageData{
		Title:     s.cfg.Title,
		Session:   sess.id,
		Content:   ev.HTML,
		Highlight: s.cfg.Highlight != nil,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

// handleView performs a single navigation and returns what a live session
// would have sent for it.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess := s.newSession()
	ev := sess.navigate(r.Context(), r.URL.Query().Get("fragment"))
	status := http.StatusOK
	if ev.Options != nil && ev.Options.Source == events.SourceNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, ev)
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	if err := s.cfg.Highlight.WriteCSS(w); err != nil {
		log.Error().Err(err).Msg("Failed to write highlight stylesheet")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request")
	})
}

func (s *Server) originAllowed(origin string) bool {
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}
