package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"soccer-arena/internal/render"
)

// ServerOptions configure NewServer
type ServerOptions struct {
	CORSOrigins    []string
	RateLimit      RateLimitConfig
	AdminToken     string
	FrameWidth     int
	FrameHeight    int
	BroadcastHz    int
	AgentEnergy    float64
	AgentMaxEnergy float64

	// Hub is an optional pre-built hub, typically one already registered as
	// an outcome sink. If nil, a new one is created.
	Hub *WebSocketHub
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	arena       ArenaInterface
	opts        ServerOptions
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *ClientLimiter
	httpServer  *http.Server
}

// NewServer creates a new API server.
//
// IMPORTANT: The hub and broadcast workers do NOT start until Start() is
// called. Tests can construct the server and use Router() directly.
func NewServer(a ArenaInterface, opts ServerOptions) *Server {
	s := &Server{
		arena:       a,
		opts:        opts,
		wsHub:       opts.Hub,
		rateLimiter: NewClientLimiter(opts.RateLimit),
	}

	if s.wsHub == nil {
		s.wsHub = NewWebSocketHub()
	}

	var renderer *render.Renderer
	if opts.FrameWidth > 0 && opts.FrameHeight > 0 {
		renderer = render.New(opts.FrameWidth, opts.FrameHeight)
	}
	s.router = NewRouter(RouterConfig{
		Arena:          a,
		Renderer:       renderer,
		RateLimiter:    s.rateLimiter,
		CORSOrigins:    opts.CORSOrigins,
		AdminToken:     opts.AdminToken,
		AgentEnergy:    opts.AgentEnergy,
		AgentMaxEnergy: opts.AgentMaxEnergy,
	})

	// WebSocket routes need the hub instance, so they are not part of NewRouter
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Hub returns the WebSocket hub so it can be registered as an outcome sink
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Start begins the HTTP server AND starts background workers.
// It blocks until the server stops; a clean Stop returns nil.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.arena, s.opts.BroadcastHz)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Printf("🌐 API server starting on %s", addr)

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of the listener and background workers.
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Stop()
	return s.httpServer.Shutdown(ctx)
}
