// Package server exposes the collected series and the on-demand trigger
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"listing-counter/utils"
)

type Server struct {
	httpServer *http.Server
	logger     *utils.Logger
}

// NewRouter builds the route table. It is separate from NewServer so tests
// can drive it with httptest.
func NewRouter(h *Handlers, logger *utils.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/regions", h.HandleRegions)
		r.Get("/series", h.HandleSeries)
	})
	r.Get("/data", h.HandleData)
	r.Get("/export", h.HandleExport)
	r.Get("/force-scrape", h.HandleForceScrape)
	r.Post("/force-scrape", h.HandleForceScrape)

	return r
}

func NewServer(addr string, h *Handlers, logger *utils.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("[server] Listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen on %s: %w", s.httpServer.Addr, err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("[server] Shutting down")
	return s.httpServer.Shutdown(ctx)
}
