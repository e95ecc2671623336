package config

import "testing"

// TestDefaultsValidate verifies the defaults form a working configuration
func TestDefaultsValidate(t *testing.T) {
	if err := Load().Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

// TestEnvOverrides verifies environment variables take precedence
func TestEnvOverrides(t *testing.T) {
	t.Setenv("SEED_BASE", "-7")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("LEAGUE_CYCLES_PER_FRAME", "5")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("SCHEDULER_ENTRY_FEE", "0")
	t.Setenv("PHYSICS_NOISE", "0")
	t.Setenv("ADMIN_RATE_PER_MIN", "2.5")

	cfg := Load()
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"seed", cfg.Simulation.SeedBase, int64(-7)},
		{"scheduler", cfg.Scheduler.Enabled, false},
		{"cycles", cfg.League.CyclesPerFrame, 5},
		{"cors", len(cfg.Server.CORSOrigins), 2},
		{"fee", cfg.Scheduler.EntryFee, 0.0},
		{"noise", cfg.Match.Noise, false},
		{"admin rate", cfg.Server.AdminPerMinute, 2.5},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

// TestInvalidEnvIgnored verifies unparsable values fall back to defaults
func TestInvalidEnvIgnored(t *testing.T) {
	t.Setenv("SIM_FPS", "fast")
	t.Setenv("LEAGUE_ENABLED", "maybe")
	cfg := Load()
	if cfg.Simulation.FPS != DefaultSimulation().FPS {
		t.Errorf("Expected default fps, got %d", cfg.Simulation.FPS)
	}
	if !cfg.League.Enabled {
		t.Error("Expected league to stay enabled")
	}
}

// TestValidate verifies broken settings are reported
func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.Simulation.FPS = 0
	cfg.Scheduler.NumPlayers = 3
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation errors")
	}
}
