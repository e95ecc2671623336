package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"soccer-arena/internal/arena"
	"soccer-arena/internal/evaluator"
	"soccer-arena/internal/league"
	"soccer-arena/internal/match"
	"soccer-arena/internal/participant"
	"soccer-arena/internal/render"
)

// ArenaInterface defines the orchestrator methods used by the API.
// Keep this minimal - only include methods the API layer actually calls.
type ArenaInterface interface {
	Stats() arena.Stats
	Recent(n int) []evaluator.Outcome
	Outcome(id string) (evaluator.Outcome, bool)
	// LeagueState is false when no league is running
	LeagueState() (league.LiveState, bool)
	// LiveSnapshot is false when no league match is in progress
	LiveSnapshot() (match.Snapshot, bool)
	Participants() []participant.Participant
	AddParticipant(p participant.Participant) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Arena: fakeArena,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	        AdminPerMinute:    1000,
//	        AdminBurst:        1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Arena is the orchestrator (required)
	Arena ArenaInterface

	// Renderer draws /api/match/frame.png. If nil, an 840x560 renderer is used.
	Renderer *render.Renderer

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *ClientLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, localhost on any port is allowed.
	CORSOrigins []string

	// AdminToken guards POST /api/participants. Empty disables the endpoint.
	AdminToken string

	// AgentEnergy and AgentMaxEnergy seed agents joined through the API.
	AgentEnergy    float64
	AgentMaxEnergy float64

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	arena       ArenaInterface
	frames      *render.FrameCache
	limiter     *ClientLimiter
	agentEnergy float64
	agentMax    float64
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE:
//   - No network listeners are opened
//   - No broadcast workers are launched
//   - No goroutines are started
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewClientLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Limit(ClassRead))

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", AdminTokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.New(840, 560)
	}
	h := &routerHandlers{
		arena:       cfg.Arena,
		frames:      render.NewFrameCache(renderer, render.DefaultMaxFrames),
		limiter:     rateLimiter,
		agentEnergy: cfg.AgentEnergy,
		agentMax:    cfg.AgentMaxEnergy,
	}
	if h.agentMax <= 0 {
		h.agentMax = 100
	}
	if h.agentEnergy <= 0 || h.agentEnergy > h.agentMax {
		h.agentEnergy = h.agentMax
	}
	auth := NewTokenAuth(cfg.AdminToken)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.handleGetStats)

		// League
		r.Get("/league", h.handleGetLeague)
		r.Get("/league/leaderboard", h.handleGetLeaderboard)

		// Finished and skipped matches
		r.Get("/outcomes", h.handleGetOutcomes)
		r.Get("/outcomes/{id}", h.handleGetOutcome)

		// Live league match
		r.Get("/match/live", h.handleGetLive)
		r.Get("/match/frame.png", h.handleGetFrame)

		// Population
		r.Get("/participants", h.handleGetParticipants)
		r.With(rateLimiter.Limit(ClassAdmin), auth.Middleware).Post("/participants", h.handleAddParticipant)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// requestMetrics records latency by route pattern so label values stay bounded
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
