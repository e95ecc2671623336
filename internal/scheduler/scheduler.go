// Package scheduler runs one-shot soccer matches on a fixed frame cadence.
package scheduler

import (
	"log"

	"soccer-arena/internal/evaluator"
	"soccer-arena/internal/match"
	"soccer-arena/internal/participant"
	"soccer-arena/internal/policy"
	"soccer-arena/internal/rewards"
	"soccer-arena/internal/selection"
	"soccer-arena/internal/soccer"
)

// Config controls cadence, match shape and payouts.
type Config struct {
	MatchEveryFrames int
	MatchesPerTick   int
	NumPlayers       int
	DurationFrames   int
	CooldownMatches  int
	EntryFee         float64
	Strategy         selection.Strategy
	AllowRepeat      bool

	RewardMode       rewards.Mode
	RewardMultiplier float64
	CreditAward      float64

	Params      soccer.Params
	Registry    *policy.Registry
	Observation string

	// OnPolicyFailure observes policy errors absorbed during play.
	OnPolicyFailure func(playerID string, err error)
}

// DefaultConfig returns a 2v2 match every 300 frames.
func DefaultConfig() Config {
	return Config{
		MatchEveryFrames: 300,
		MatchesPerTick:   1,
		NumPlayers:       4,
		DurationFrames:   600,
		CooldownMatches:  1,
		EntryFee:         5,
		Strategy:         selection.Stratified,
		RewardMode:       rewards.PotPayout,
		RewardMultiplier: 1,
		Params:           soccer.DefaultParams(),
	}
}

// Scheduler owns the match counter and the cooldown map. It is not safe
// for concurrent use.
type Scheduler struct {
	cfg      Config
	counter  int
	cooldown map[string]int // participant id -> last match counter it is barred from
}

// New creates a scheduler.
func New(cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg, cooldown: make(map[string]int)}
}

// Counter returns the next match counter.
func (s *Scheduler) Counter() int { return s.counter }

// Cooling reports whether id is barred from the next match.
func (s *Scheduler) Cooling(id string) bool {
	until, ok := s.cooldown[id]
	return ok && until >= s.counter
}

// Tick runs the matches due on this frame to completion. It never fails;
// infeasible slots come back as skipped outcomes.
func (s *Scheduler) Tick(world participant.World, seedBase int64, cycle int) []evaluator.Outcome {
	if s.cfg.MatchEveryFrames <= 0 || s.cfg.MatchesPerTick <= 0 || cycle%s.cfg.MatchEveryFrames != 0 {
		return nil
	}

	var outcomes []evaluator.Outcome
	for i := 0; i < s.cfg.MatchesPerTick; i++ {
		outcomes = append(outcomes, s.runOne(world, seedBase))
	}
	return outcomes
}

func (s *Scheduler) runOne(world participant.World, seedBase int64) evaluator.Outcome {
	counter := s.counter
	s.counter++
	s.prune(counter)

	pending, err := evaluator.CreateSoccerMatch(evaluator.SoccerRequest{
		Candidates:   world.Participants(),
		NumPlayers:   s.cfg.NumPlayers,
		SeedBase:     seedBase,
		MatchCounter: counter,
		Strategy:     s.cfg.Strategy,
		EntryFee:     s.cfg.EntryFee,
		Cooldown:     s.barred(counter),
		AllowRepeat:  s.cfg.AllowRepeat,
		Kind:         evaluator.KindScheduled,
		Game: evaluator.GameOptions{
			Params:          s.cfg.Params,
			Cycles:          s.cfg.DurationFrames,
			Registry:        s.cfg.Registry,
			Observation:     s.cfg.Observation,
			OnPolicyFailure: s.cfg.OnPolicyFailure,
		},
	})
	if err != nil {
		reason := evaluator.SkipReason(err)
		log.Printf("⏭️ Scheduled match %d skipped: %s", counter, reason)
		return evaluator.Skipped(evaluator.KindScheduled, seedBase, counter, reason)
	}

	match.RunToEnd(pending.Game)
	out := evaluator.FinalizeSoccerMatch(pending, evaluator.FinalizeOptions{
		Mode:        s.cfg.RewardMode,
		Multiplier:  s.cfg.RewardMultiplier,
		CreditAward: s.cfg.CreditAward,
	})

	for _, p := range pending.Game.Participants() {
		s.cooldown[p.ID()] = counter + s.cfg.CooldownMatches
	}
	score := out.Score()
	log.Printf("⚽ Scheduled match %d finished %d-%d (%s)", counter, score.Left, score.Right, out.Result())
	return out
}

func (s *Scheduler) barred(counter int) map[string]bool {
	out := make(map[string]bool, len(s.cooldown))
	for id, until := range s.cooldown {
		if until >= counter {
			out[id] = true
		}
	}
	return out
}

func (s *Scheduler) prune(counter int) {
	for id, until := range s.cooldown {
		if until < counter {
			delete(s.cooldown, id)
		}
	}
}
