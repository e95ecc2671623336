package main

import (
	"fmt"
	"os"

	"soccer-arena/internal/arena"
	"soccer-arena/internal/config"
	"soccer-arena/internal/league"
	"soccer-arena/internal/participant"
	"soccer-arena/internal/policy"
	"soccer-arena/internal/policy/script"
	"soccer-arena/internal/rewards"
	"soccer-arena/internal/scheduler"
	"soccer-arena/internal/selection"
	"soccer-arena/internal/soccer"
)

// loadPolicy compiles the optional policy script. No path means agents use
// the built-in fallback.
func loadPolicy(path string) (policy.Executor, error) {
	if path == "" {
		return nil, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy script: %w", err)
	}
	exec, err := script.New(string(src))
	if err != nil {
		return nil, fmt.Errorf("compile policy script %s: %w", path, err)
	}
	return exec, nil
}

// buildPopulation spreads the seeded agents round-robin over the team names.
func buildPopulation(sim config.SimulationConfig, exec policy.Executor) *participant.Roster {
	world := participant.NewRoster()
	teams := max(sim.Teams, 1)
	for i := 0; i < sim.Population; i++ {
		id := fmt.Sprintf("agent-%03d", i)
		team := fmt.Sprintf("team-%d", i%teams)
		// Ids are unique by construction
		_ = world.Add(participant.NewAgent(id, team, sim.InitialEnergy, sim.MaxEnergy, exec))
	}
	return world
}

func matchParams(m config.MatchConfig) soccer.Params {
	p := soccer.DefaultParams()
	p.Noise = m.Noise
	return p
}

func schedulerConfig(app config.AppConfig, reg *policy.Registry, onFailure func(string, error)) (scheduler.Config, error) {
	sc := app.Scheduler
	strategy, err := selection.ParseStrategy(sc.Strategy)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("scheduler: %w", err)
	}
	mode, err := rewards.ParseMode(sc.RewardMode)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("scheduler: %w", err)
	}
	return scheduler.Config{
		MatchEveryFrames: sc.MatchEveryFrames,
		MatchesPerTick:   sc.MatchesPerTick,
		NumPlayers:       sc.NumPlayers,
		DurationFrames:   sc.DurationFrames,
		CooldownMatches:  sc.CooldownMatches,
		EntryFee:         sc.EntryFee,
		Strategy:         strategy,
		AllowRepeat:      sc.AllowRepeat,
		RewardMode:       mode,
		RewardMultiplier: sc.RewardMultiplier,
		CreditAward:      sc.CreditAward,
		Params:           matchParams(app.Match),
		Registry:         reg,
		Observation:      app.Match.Observation,
		OnPolicyFailure:  onFailure,
	}, nil
}

func leagueConfig(app config.AppConfig, reg *policy.Registry, onFailure func(string, error)) (league.Config, error) {
	lc := app.League
	mode, err := rewards.ParseMode(lc.RewardMode)
	if err != nil {
		return league.Config{}, fmt.Errorf("league: %w", err)
	}
	return league.Config{
		MatchEveryFrames: lc.MatchEveryFrames,
		CyclesPerFrame:   lc.CyclesPerFrame,
		PlayersPerSide:   lc.PlayersPerSide,
		DurationFrames:   lc.DurationFrames,
		EntryFee:         lc.EntryFee,
		MinTeams:         lc.MinTeams,
		MaxLeaderboard:   lc.MaxLeaderboard,
		Interactive:      true,
		RewardMode:       mode,
		RewardMultiplier: lc.RewardMultiplier,
		CreditAward:      lc.CreditAward,
		Params:           matchParams(app.Match),
		Registry:         reg,
		Observation:      app.Match.Observation,
		OnPolicyFailure:  onFailure,
	}, nil
}

// buildHooks creates the enabled components. The observation name is checked
// here so a typo fails at startup rather than on every decision.
func buildHooks(app config.AppConfig, reg *policy.Registry, onFailure func(string, error)) (arena.Hooks, error) {
	if _, ok := reg.Get(app.Match.Observation); !ok {
		return arena.Hooks{}, fmt.Errorf("unknown observation builder %q (have %v)", app.Match.Observation, reg.Names())
	}

	var hooks arena.Hooks
	if app.Scheduler.Enabled {
		sc, err := schedulerConfig(app, reg, onFailure)
		if err != nil {
			return arena.Hooks{}, err
		}
		hooks.Scheduler = scheduler.New(sc)
	}
	if app.League.Enabled {
		lc, err := leagueConfig(app, reg, onFailure)
		if err != nil {
			return arena.Hooks{}, err
		}
		hooks.League = league.New(lc)
	}
	return hooks, nil
}
