package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/faceswap/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/status", s.status.Get)
		r.Get("/events", s.status.Events)
	})
}
