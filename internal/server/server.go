// Package server serves the exported site together with the search API and
// rewrites pages requested with a highlight parameter.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/f4ah6o/docsearch-go/internal/highlight"
	"github.com/f4ah6o/docsearch-go/internal/search"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	SiteDir  string // directory containing the static export
	AllowAll bool   // allow all CORS origins (dev mode)

	MaxResults     int
	HighlightColor string
	Highlight      highlight.Options
}

// Server serves search results and highlighted pages.
type Server struct {
	cfg        Config
	index      *search.Index
	linker     search.Linker
	router     chi.Router
	httpServer *http.Server
}

// New creates a server over index. linker resolves results to page URLs.
func New(cfg Config, index *search.Index, linker search.Linker) *Server {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = search.DefaultMaxResults
	}
	if cfg.HighlightColor == "" {
		cfg.HighlightColor = search.DefaultHighlightColor
	}
	s := &Server{cfg: cfg, index: index, linker: linker}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/typographyTexts.json", s.handleIndex)
	r.Get("/search", s.handleSearchHTML)
	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/toc", s.handleTOC)
	})

	r.Get("/*", s.handleStatic)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("docsearch server listening on %s", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
