package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/faceswap/internal/logger"
	"github.com/kozaktomas/faceswap/internal/web/handlers"
	"github.com/kozaktomas/faceswap/internal/web/middleware"
)

// Server relays the status of the tracked job over HTTP.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	status     *handlers.StatusHandler
	log        *logger.Logger
}

// NewServer creates a status relay listening on addr. resolveURL turns the
// output URL of a completed job into an absolute download address.
func NewServer(source handlers.StatusSource, resolveURL func(string) string, addr string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.GetDefault()
	}
	r := chi.NewRouter()

	s := &Server{
		router: r,
		status: handlers.NewStatusHandler(source, resolveURL),
		log:    log.Component("web"),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No write timeout, the event stream stays open until the job ends.
	}

	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.log.WithField(logger.FieldURL, "http://"+ln.Addr().String()).Info("status relay listening")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down status relay")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
