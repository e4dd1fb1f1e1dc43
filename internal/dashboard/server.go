// Package dashboard serves the execution history web UI and its JSON API.
// It exposes paginated history listings, per-record detail, aggregate
// statistics and, when enabled, the files snippets produced.
package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/codefox-dev/codefox/internal/common/middleware"
	"github.com/codefox-dev/codefox/internal/config"
)

// apiTimeout bounds history queries so a slow database cannot hold a
// dashboard request open indefinitely.
const apiTimeout = 30 * time.Second

// Server is the dashboard HTTP server.
type Server struct {
	Router *chi.Mux

	store       Store
	outputDir   string
	fileServing bool
}

// CreateNewServer creates a dashboard server over the given history store.
// The store may be nil when no database is configured; history endpoints
// then report the condition instead of results.
func CreateNewServer(store Store) (*Server, error) {
	s := &Server{
		Router:      chi.NewRouter(),
		store:       store,
		outputDir:   config.Config().Executor.OutputDir,
		fileServing: config.Config().Dashboard.FileServingEnabled,
	}
	return s, nil
}

// MountHandlers sets up all HTTP routes and middleware for the server.
func (s *Server) MountHandlers() {
	s.Router.Use(middleware.RequestLogger)
	s.Router.Use(middleware.PanicHandler)
	if config.Config().Dashboard.HandleCORS {
		s.Router.Use(s.handleCORS)
	}
	s.mountResourceHandlers(s.Router)
}

func (s *Server) mountResourceHandlers(r chi.Router) {
	r.Get("/", s.getIndex)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.SetTimeout(apiTimeout))
		r.Get("/history", s.listHistory)
		r.Get("/detail/{id}", s.getDetail)
		r.Get("/statistics", s.getStatistics)
	})
	r.Get("/files/{name}", s.serveFile)
	r.Get("/version", s.getVersion)
	r.Get("/ready", s.getReadiness)
}

// handleCORS provides CORS middleware for cross-origin requests.
func (s *Server) handleCORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding"},
		ExposedHeaders:   []string{"Link", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(next)
}
