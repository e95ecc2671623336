// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for arena, match and server settings.
//
// Physics constants are not configured here; soccer.DefaultParams owns them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// SIMULATION
// =============================================================================

// SimulationConfig controls the outer frame loop and the seeded population.
type SimulationConfig struct {
	FPS           int   // Outer frames per second
	SeedBase      int64 // Root of every derived seed
	Population    int   // Agents created at startup
	Teams         int   // Team names the population is spread over
	InitialEnergy float64
	MaxEnergy     float64
	PolicyScript  string // Optional JS policy file run by every agent
}

// DefaultSimulation returns the default simulation configuration.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		FPS:           10,
		SeedBase:      42,
		Population:    12,
		Teams:         4,
		InitialEnergy: 60,
		MaxEnergy:     100,
	}
}

// SimulationFromEnv returns simulation configuration with environment overrides.
func SimulationFromEnv() SimulationConfig {
	cfg := DefaultSimulation()

	if fps := getEnvInt("SIM_FPS", 0); fps > 0 {
		cfg.FPS = fps
	}
	if v := os.Getenv("SEED_BASE"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.SeedBase = seed
		}
	}
	if n := getEnvInt("POPULATION", -1); n >= 0 {
		cfg.Population = n
	}
	if n := getEnvInt("TEAMS", 0); n > 0 {
		cfg.Teams = n
	}
	if e := getEnvFloat("INITIAL_ENERGY", -1); e >= 0 {
		cfg.InitialEnergy = e
	}
	if e := getEnvFloat("MAX_ENERGY", 0); e > 0 {
		cfg.MaxEnergy = e
	}
	cfg.PolicyScript = os.Getenv("POLICY_SCRIPT")

	return cfg
}

// =============================================================================
// MATCH
// =============================================================================

// MatchConfig holds settings shared by every match.
type MatchConfig struct {
	Observation string // Observation builder name
	Noise       bool   // Physics noise on/off
}

// DefaultMatch returns the default match configuration.
func DefaultMatch() MatchConfig {
	return MatchConfig{Observation: "soccer_v1", Noise: true}
}

// MatchFromEnv returns match configuration with environment overrides.
func MatchFromEnv() MatchConfig {
	cfg := DefaultMatch()
	if v := os.Getenv("OBSERVATION"); v != "" {
		cfg.Observation = v
	}
	cfg.Noise = getEnvBool("PHYSICS_NOISE", cfg.Noise)
	return cfg
}

// =============================================================================
// SCHEDULER
// =============================================================================

// SchedulerConfig controls one-shot scheduled matches.
type SchedulerConfig struct {
	Enabled          bool
	MatchEveryFrames int
	MatchesPerTick   int
	NumPlayers       int
	DurationFrames   int
	CooldownMatches  int
	EntryFee         float64
	Strategy         string
	AllowRepeat      bool
	RewardMode       string
	RewardMultiplier float64
	CreditAward      float64
}

// DefaultScheduler returns the default scheduler configuration.
func DefaultScheduler() SchedulerConfig {
	return SchedulerConfig{
		Enabled:          true,
		MatchEveryFrames: 300,
		MatchesPerTick:   1,
		NumPlayers:       4,
		DurationFrames:   600,
		CooldownMatches:  1,
		EntryFee:         5,
		Strategy:         "stratified",
		RewardMode:       "pot_payout",
		RewardMultiplier: 1,
		CreditAward:      1,
	}
}

// SchedulerFromEnv returns scheduler configuration with environment overrides.
func SchedulerFromEnv() SchedulerConfig {
	cfg := DefaultScheduler()

	cfg.Enabled = getEnvBool("SCHEDULER_ENABLED", cfg.Enabled)
	if n := getEnvInt("SCHEDULER_EVERY_FRAMES", 0); n > 0 {
		cfg.MatchEveryFrames = n
	}
	if n := getEnvInt("SCHEDULER_MATCHES_PER_TICK", -1); n >= 0 {
		cfg.MatchesPerTick = n
	}
	if n := getEnvInt("SCHEDULER_PLAYERS", 0); n > 0 {
		cfg.NumPlayers = n
	}
	if n := getEnvInt("SCHEDULER_DURATION_FRAMES", 0); n > 0 {
		cfg.DurationFrames = n
	}
	if n := getEnvInt("SCHEDULER_COOLDOWN_MATCHES", -1); n >= 0 {
		cfg.CooldownMatches = n
	}
	if f := getEnvFloat("SCHEDULER_ENTRY_FEE", -1); f >= 0 {
		cfg.EntryFee = f
	}
	if v := os.Getenv("SCHEDULER_STRATEGY"); v != "" {
		cfg.Strategy = v
	}
	cfg.AllowRepeat = getEnvBool("SCHEDULER_ALLOW_REPEAT", cfg.AllowRepeat)
	if v := os.Getenv("SCHEDULER_REWARD_MODE"); v != "" {
		cfg.RewardMode = v
	}
	if f := getEnvFloat("SCHEDULER_REWARD_MULTIPLIER", -1); f >= 0 {
		cfg.RewardMultiplier = f
	}
	if f := getEnvFloat("SCHEDULER_CREDIT_AWARD", -1); f >= 0 {
		cfg.CreditAward = f
	}

	return cfg
}

// =============================================================================
// LEAGUE
// =============================================================================

// LeagueConfig controls the continuous tournament.
type LeagueConfig struct {
	Enabled          bool
	MatchEveryFrames int
	CyclesPerFrame   int
	PlayersPerSide   int
	DurationFrames   int
	EntryFee         float64
	MinTeams         int
	MaxLeaderboard   int
	RewardMode       string
	RewardMultiplier float64
	CreditAward      float64
}

// DefaultLeague returns the default league configuration.
func DefaultLeague() LeagueConfig {
	return LeagueConfig{
		Enabled:          true,
		MatchEveryFrames: 30,
		CyclesPerFrame:   1,
		PlayersPerSide:   2,
		DurationFrames:   600,
		EntryFee:         5,
		MinTeams:         4,
		MaxLeaderboard:   32,
		RewardMode:       "pot_payout",
		RewardMultiplier: 1,
		CreditAward:      1,
	}
}

// LeagueFromEnv returns league configuration with environment overrides.
func LeagueFromEnv() LeagueConfig {
	cfg := DefaultLeague()

	cfg.Enabled = getEnvBool("LEAGUE_ENABLED", cfg.Enabled)
	if n := getEnvInt("LEAGUE_EVERY_FRAMES", 0); n > 0 {
		cfg.MatchEveryFrames = n
	}
	if n := getEnvInt("LEAGUE_CYCLES_PER_FRAME", 0); n > 0 {
		cfg.CyclesPerFrame = n
	}
	if n := getEnvInt("LEAGUE_PLAYERS_PER_SIDE", 0); n > 0 {
		cfg.PlayersPerSide = n
	}
	if n := getEnvInt("LEAGUE_DURATION_FRAMES", 0); n > 0 {
		cfg.DurationFrames = n
	}
	if f := getEnvFloat("LEAGUE_ENTRY_FEE", -1); f >= 0 {
		cfg.EntryFee = f
	}
	if n := getEnvInt("LEAGUE_MIN_TEAMS", -1); n >= 0 {
		cfg.MinTeams = n
	}
	if n := getEnvInt("LEAGUE_MAX_LEADERBOARD", -1); n >= 0 {
		cfg.MaxLeaderboard = n
	}
	if v := os.Getenv("LEAGUE_REWARD_MODE"); v != "" {
		cfg.RewardMode = v
	}
	if f := getEnvFloat("LEAGUE_REWARD_MULTIPLIER", -1); f >= 0 {
		cfg.RewardMultiplier = f
	}
	if f := getEnvFloat("LEAGUE_CREDIT_AWARD", -1); f >= 0 {
		cfg.CreditAward = f
	}

	return cfg
}

// =============================================================================
// SERVER
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	AdminPerMinute float64 // POST /api/participants budget per client
	FrameWidth     int     // PNG frame size served by /api/match/frame.png
	FrameHeight    int
	BroadcastHz    int // WebSocket broadcast rate
	JournalPath    string
	AdminToken     string // Bearer token guarding write endpoints; empty disables them
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		RateLimitRPS:   20,
		RateLimitBurst: 40,
		AdminPerMinute: 6,
		FrameWidth:     840,
		FrameHeight:    560,
		BroadcastHz:    10,
		JournalPath:    "soccer-journal.jsonl",
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.AdminToken = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	if f := getEnvFloat("RATE_LIMIT_RPS", 0); f > 0 {
		cfg.RateLimitRPS = f
	}
	if n := getEnvInt("RATE_LIMIT_BURST", 0); n > 0 {
		cfg.RateLimitBurst = n
	}
	if f := getEnvFloat("ADMIN_RATE_PER_MIN", 0); f > 0 {
		cfg.AdminPerMinute = f
	}
	if w := getEnvInt("FRAME_WIDTH", 0); w > 0 {
		cfg.FrameWidth = w
	}
	if h := getEnvInt("FRAME_HEIGHT", 0); h > 0 {
		cfg.FrameHeight = h
	}
	if hz := getEnvInt("BROADCAST_HZ", 0); hz > 0 {
		cfg.BroadcastHz = hz
	}
	if v, ok := os.LookupEnv("JOURNAL_PATH"); ok {
		cfg.JournalPath = v
	}

	return cfg
}

// =============================================================================
// OBSERVABILITY
// =============================================================================

// ObservabilityConfig configures the localhost debug server.
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST stay on localhost in production
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultObservability returns safe defaults.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{Enabled: true, ListenAddr: "127.0.0.1:6060"}
}

// ObservabilityFromEnv returns observability configuration with environment overrides.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservability()
	cfg.Enabled = getEnvBool("DEBUG_SERVER_ENABLED", cfg.Enabled)
	if v := os.Getenv("DEBUG_SERVER_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	cfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	cfg.BasicAuthPass = os.Getenv("DEBUG_PASS")
	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Simulation    SimulationConfig
	Match         MatchConfig
	Scheduler     SchedulerConfig
	League        LeagueConfig
	Server        ServerConfig
	Observability ObservabilityConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Simulation:    SimulationFromEnv(),
		Match:         MatchFromEnv(),
		Scheduler:     SchedulerFromEnv(),
		League:        LeagueFromEnv(),
		Server:        ServerFromEnv(),
		Observability: ObservabilityFromEnv(),
	}
}

// Validate reports settings that cannot produce a working arena.
func (c AppConfig) Validate() error {
	var errs []error
	if c.Simulation.FPS <= 0 {
		errs = append(errs, fmt.Errorf("simulation fps must be positive, got %d", c.Simulation.FPS))
	}
	if c.Simulation.MaxEnergy <= 0 {
		errs = append(errs, fmt.Errorf("max energy must be positive, got %f", c.Simulation.MaxEnergy))
	}
	if c.Scheduler.Enabled && c.Scheduler.NumPlayers%2 != 0 {
		errs = append(errs, fmt.Errorf("scheduler players must be even, got %d", c.Scheduler.NumPlayers))
	}
	if c.League.Enabled && c.League.PlayersPerSide <= 0 {
		errs = append(errs, fmt.Errorf("league players per side must be positive, got %d", c.League.PlayersPerSide))
	}
	return errors.Join(errs...)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
