package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"soccer-arena/internal/evaluator"
)

// Metrics with bounded cardinality (no per-participant labels)
var (
	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_frame_duration_seconds",
		Help:    "Time spent in one outer arena frame",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
	})

	matchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soccer_matches_total",
		Help: "Finished matches",
	}, []string{"kind", "result"}) // Bounded: scheduled|league x left|right|draw|none

	matchesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soccer_matches_skipped_total",
		Help: "Matches that could not start",
	}, []string{"kind", "reason"}) // Bounded: see skipReasonLabel

	goalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soccer_goals_total",
		Help: "Goals scored in finished matches",
	}, []string{"own_goal"})

	policyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soccer_policy_failures_total",
		Help: "Policy executions that failed and were absorbed",
	})

	participantCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_participant_count",
		Help: "Current population size",
	})

	leaderboardSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "league_leaderboard_size",
		Help: "Rows on the league leaderboard",
	})

	journalDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "journal_dropped_records",
		Help: "Journal records dropped by rate limiting or a full buffer",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit_read", "rate_limit_admin", "origin", "ws_total_limit", "ws_ip_limit", "unauthorized"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST be "127.0.0.1:6060" in production
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - NEVER expose externally
	}
}

// StartDebugServer starts the internal observability server
// CRITICAL: This MUST bind to localhost only to prevent pprof-based DoS
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost for security")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	var handler http.Handler = debugMux()
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, handler)
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

func debugMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordFrame records outer frame timing
func RecordFrame(duration time.Duration) {
	frameDuration.Observe(duration.Seconds())
}

// RecordPolicyFailure counts an absorbed policy failure. The signature
// matches the match layer's failure hook.
func RecordPolicyFailure(_ string, _ error) {
	policyFailures.Inc()
}

// UpdateParticipantCount updates the population gauge
func UpdateParticipantCount(count int) {
	participantCount.Set(float64(count))
}

// UpdateLeaderboardSize updates the leaderboard gauge
func UpdateLeaderboardSize(rows int) {
	leaderboardSize.Set(float64(rows))
}

// UpdateJournalDropped mirrors the journal's dropped counter
func UpdateJournalDropped(dropped uint64) {
	journalDropped.Set(float64(dropped))
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// MetricsSink counts drained outcomes. It plugs into the orchestrator as an
// outcome sink.
type MetricsSink struct{}

// RecordOutcome implements arena.OutcomeSink.
func (MetricsSink) RecordOutcome(o evaluator.Outcome) {
	if o.Skipped() {
		matchesSkipped.WithLabelValues(o.Kind(), skipReasonLabel(o.SkipReason())).Inc()
		return
	}
	result := string(o.Result())
	if result == "" {
		result = "none"
	}
	matchesTotal.WithLabelValues(o.Kind(), result).Inc()
	for _, g := range o.Goals() {
		own := "false"
		if g.Goal != nil && g.Goal.OwnGoal {
			own = "true"
		}
		goalsTotal.WithLabelValues(own).Inc()
	}
}

// skipReasonLabel folds free-form reasons into a bounded label set.
func skipReasonLabel(reason string) string {
	switch reason {
	case "insufficient_candidates", "uneven_teams", "insolvent", "duplicate_pick":
		return reason
	}
	return "error"
}
