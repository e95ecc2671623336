package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"soccer-arena/internal/api"
	"soccer-arena/internal/arena"
	"soccer-arena/internal/config"
	"soccer-arena/internal/journal"
	"soccer-arena/internal/policy"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("⚽ ================================")
	log.Println("⚽  SOCCER ARENA")
	log.Println("⚽ ================================")

	appConfig := config.Load()
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	sim := appConfig.Simulation
	serverCfg := appConfig.Server

	exec, err := loadPolicy(sim.PolicyScript)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if exec != nil {
		log.Printf("📜 Policy script: %s", sim.PolicyScript)
	}

	world := buildPopulation(sim, exec)
	log.Printf("⚽ Population: %d agents over %d teams (seed %d)", world.Len(), sim.Teams, sim.SeedBase)

	registry := policy.NewRegistry()
	hooks, err := buildHooks(appConfig, registry, api.RecordPolicyFailure)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if hooks.Scheduler == nil {
		log.Println("⚠️ Scheduler disabled")
	}
	if hooks.League == nil {
		log.Println("⚠️ League disabled")
	}

	// Journal is optional; outcomes still reach metrics and viewers without it
	jr := journal.New()
	sinks := []arena.OutcomeSink{api.MetricsSink{}}
	if err := jr.Start(serverCfg.JournalPath); err != nil {
		log.Printf("⚠️ Journal disabled: %v", err)
	} else {
		if serverCfg.JournalPath != "" {
			log.Printf("📝 Journal: %s", serverCfg.JournalPath)
		}
		sinks = append(sinks, jr)
	}

	hub := api.NewWebSocketHub()
	sinks = append(sinks, hub)

	orch := arena.New(world, hooks, arena.Options{
		SeedBase: sim.SeedBase,
		Registry: registry,
		Sinks:    sinks,
		OnFrame:  api.RecordFrame,
	})

	// Start debug server
	obs := appConfig.Observability
	if err := api.StartDebugServer(api.ObservabilityConfig{
		Enabled:       obs.Enabled,
		ListenAddr:    obs.ListenAddr,
		BasicAuthUser: obs.BasicAuthUser,
		BasicAuthPass: obs.BasicAuthPass,
	}); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	server := api.NewServer(orch, api.ServerOptions{
		CORSOrigins: serverCfg.CORSOrigins,
		RateLimit: api.RateLimitConfig{
			RequestsPerSecond: serverCfg.RateLimitRPS,
			Burst:             serverCfg.RateLimitBurst,
			AdminPerMinute:    serverCfg.AdminPerMinute,
		},
		AdminToken:     serverCfg.AdminToken,
		FrameWidth:     serverCfg.FrameWidth,
		FrameHeight:    serverCfg.FrameHeight,
		BroadcastHz:    serverCfg.BroadcastHz,
		AgentEnergy:    sim.InitialEnergy,
		AgentMaxEnergy: sim.MaxEnergy,
		Hub:            hub,
	})
	if serverCfg.AdminToken == "" {
		log.Println("⚠️ ADMIN_TOKEN not set - POST /api/participants disabled")
	}

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan struct{})
	done := make(chan struct{})
	go runFrames(orch, jr, sim.FPS, stop, done)
	log.Printf("✅ Arena running at %d FPS", sim.FPS)

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	close(stop)
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	jr.Stop()

	st := orch.Stats()
	log.Printf("📊 Final: %d frames, %d played, %d skipped, %d goals", st.Frames, st.Played, st.Skipped, st.Goals)
	log.Println("👋 Goodbye!")
}

// runFrames drives the orchestrator at fps until stop is closed. Gauges are
// refreshed about once per second.
func runFrames(orch *arena.Orchestrator, jr *journal.Journal, fps int, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		orch.Frame()
		if frame := orch.FrameCount(); frame%fps == 0 {
			api.UpdateParticipantCount(len(orch.Participants()))
			if st, ok := orch.LeagueState(); ok {
				api.UpdateLeaderboardSize(len(st.Leaderboard))
			}
			api.UpdateJournalDropped(jr.Dropped())
		}
	}
}
