// Package evaluator creates soccer matches from candidates or explicit teams
// and finalizes them into immutable outcomes.
package evaluator

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"soccer-arena/internal/match"
	"soccer-arena/internal/participant"
	"soccer-arena/internal/policy"
	"soccer-arena/internal/rewards"
	"soccer-arena/internal/seeding"
	"soccer-arena/internal/selection"
	"soccer-arena/internal/soccer"
)

var (
	ErrInsufficientCandidates = errors.New("not enough eligible candidates")
	ErrUnevenTeams            = errors.New("selected players cannot form two even teams")
	ErrInsolvent              = errors.New("participant cannot pay the entry fee")
	ErrDuplicatePick          = errors.New("participant selected more than once")
)

// SkipReason maps a creation error to the reason string stored in skipped
// outcomes.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientCandidates):
		return "insufficient_candidates"
	case errors.Is(err, ErrUnevenTeams):
		return "uneven_teams"
	case errors.Is(err, ErrInsolvent):
		return "insolvent"
	case errors.Is(err, ErrDuplicatePick):
		return "duplicate_pick"
	}
	return "error: " + err.Error()
}

// Match kinds recorded in outcomes and ids.
const (
	KindScheduled = "scheduled"
	KindLeague    = "league"
)

// SourceEntryFee tags fee debits in participant ledgers.
const SourceEntryFee = "soccer_entry_fee"

var matchNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("soccer-arena/match"))

// MatchID is a deterministic UUIDv5 for (seedBase, counter, kind).
func MatchID(seedBase int64, counter int, kind string) string {
	return uuid.NewSHA1(matchNamespace, []byte(fmt.Sprintf("%d|%d|%s", seedBase, counter, kind))).String()
}

// GameOptions configure the match built for a pending game.
type GameOptions struct {
	Params      soccer.Params
	Cycles      int
	Interactive bool // Match with half-time instead of a headless Runner
	Registry    *policy.Registry
	Observation string
	Fitness     match.FitnessWeights

	OnPolicyFailure func(playerID string, err error)
}

// SoccerRequest asks for a match sampled from candidates.
type SoccerRequest struct {
	Candidates   []participant.Participant
	NumPlayers   int
	SeedBase     int64
	MatchCounter int
	Strategy     selection.Strategy
	EntryFee     float64
	Cooldown     map[string]bool
	AllowRepeat  bool
	Kind         string
	Game         GameOptions
}

// TeamsRequest asks for a match between explicit rosters.
type TeamsRequest struct {
	Left, Right         []participant.Participant
	LeftName, RightName string
	SeedBase            int64
	MatchCounter        int
	EntryFee            float64
	Kind                string
	Game                GameOptions
}

// Pending is a created, running or finished match awaiting finalization.
type Pending struct {
	Game          match.Game
	ID            string
	Kind          string
	Counter       int
	SeedBase      int64
	SelectionSeed int64
	MatchSeed     int64
	EntryFee      float64
	Fees          map[string]float64
	TeamNames     map[soccer.Side]string

	runner *match.Runner
}

// Runner returns the headless runner, or nil for interactive matches.
func (p *Pending) Runner() *match.Runner { return p.runner }

// Match returns the interactive match, or nil for headless ones.
func (p *Pending) Match() *match.Match {
	m, _ := p.Game.(*match.Match)
	return m
}

// CreateSoccerMatch selects participants, charges entry fees and builds the
// match. Errors are only returned here, never at finalize.
func CreateSoccerMatch(req SoccerRequest) (*Pending, error) {
	selectionSeed := seeding.MatchSeed(req.SeedBase, req.MatchCounter, "selection")
	if req.NumPlayers%2 != 0 {
		return nil, fmt.Errorf("%w: %d players", ErrUnevenTeams, req.NumPlayers)
	}

	picked := selection.Select(req.Candidates, selection.Request{
		NumPlayers:  req.NumPlayers,
		Strategy:    req.Strategy,
		Cooldown:    req.Cooldown,
		Seed:        selectionSeed,
		AllowRepeat: req.AllowRepeat,
		EntryFee:    req.EntryFee,
	})
	if len(picked) < req.NumPlayers || len(picked) == 0 {
		return nil, fmt.Errorf("%w: wanted %d", ErrInsufficientCandidates, req.NumPlayers)
	}
	if len(picked)%2 != 0 {
		return nil, fmt.Errorf("%w: %d selected", ErrUnevenTeams, len(picked))
	}
	seen := make(map[string]bool, len(picked))
	for _, p := range picked {
		if seen[p.ID()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePick, p.ID())
		}
		seen[p.ID()] = true
	}

	var left, right []participant.Participant
	for i, p := range picked {
		if i%2 == 0 {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}

	kind := req.Kind
	if kind == "" {
		kind = KindScheduled
	}
	pending, err := build(left, right, req.SeedBase, req.MatchCounter, req.EntryFee, kind, req.Game)
	if err != nil {
		return nil, err
	}
	pending.SelectionSeed = selectionSeed
	return pending, nil
}

// CreateFromTeams builds a match between explicit rosters, charging fees.
func CreateFromTeams(req TeamsRequest) (*Pending, error) {
	if len(req.Left) == 0 || len(req.Right) == 0 {
		return nil, ErrInsufficientCandidates
	}
	if len(req.Left) != len(req.Right) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrUnevenTeams, len(req.Left), len(req.Right))
	}
	kind := req.Kind
	if kind == "" {
		kind = KindLeague
	}
	pending, err := build(req.Left, req.Right, req.SeedBase, req.MatchCounter, req.EntryFee, kind, req.Game)
	if err != nil {
		return nil, err
	}
	pending.TeamNames = map[soccer.Side]string{soccer.Left: req.LeftName, soccer.Right: req.RightName}
	return pending, nil
}

func build(left, right []participant.Participant, seedBase int64, counter int, fee float64, kind string, opts GameOptions) (*Pending, error) {
	all := append(append([]participant.Participant(nil), left...), right...)

	// Check everyone before charging anyone.
	if fee > 0 {
		for _, p := range all {
			if l := p.EnergyLedger(); l != nil && l.Energy() < fee {
				return nil, fmt.Errorf("%w: %s has %.2f, fee %.2f", ErrInsolvent, p.ID(), l.Energy(), fee)
			}
		}
	}

	matchSeed := seeding.MatchSeed(seedBase, counter, "match")
	cfg := match.Config{
		Params:          opts.Params,
		Seed:            matchSeed,
		Cycles:          opts.Cycles,
		Left:            left,
		Right:           right,
		Registry:        opts.Registry,
		Observation:     opts.Observation,
		OnPolicyFailure: opts.OnPolicyFailure,
	}
	pending := &Pending{
		ID:        MatchID(seedBase, counter, kind),
		Kind:      kind,
		Counter:   counter,
		SeedBase:  seedBase,
		MatchSeed: matchSeed,
		EntryFee:  fee,
		Fees:      make(map[string]float64, len(all)),
	}
	if opts.Interactive {
		m, err := match.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("create match: %w", err)
		}
		pending.Game = m
	} else {
		weights := opts.Fitness
		if weights == (match.FitnessWeights{}) {
			weights = match.DefaultFitnessWeights()
		}
		r, err := match.NewRunner(cfg, weights)
		if err != nil {
			return nil, fmt.Errorf("create runner: %w", err)
		}
		pending.Game = r
		pending.runner = r
	}

	for _, p := range all {
		paid := 0.0
		if l := p.EnergyLedger(); l != nil && fee > 0 {
			paid = -l.ModifyEnergy(-fee, SourceEntryFee)
		}
		pending.Fees[p.ID()] = paid
	}
	return pending, nil
}

// FinalizeOptions choose how winners are paid.
type FinalizeOptions struct {
	Mode        rewards.Mode
	Multiplier  float64
	CreditAward float64
}

// FinalizeSoccerMatch pays winners and builds the immutable outcome. It
// never fails: without a winner the reward maps stay empty.
func FinalizeSoccerMatch(p *Pending, opts FinalizeOptions) Outcome {
	g := p.Game
	result := g.Result()

	var winners []participant.Participant
	if side, ok := result.Winner(); ok {
		winners = g.Roster(side)
	}
	multiplier := opts.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}
	paid := rewards.Apply(rewards.Input{
		Mode:        opts.Mode,
		Fees:        p.Fees,
		Winners:     winners,
		Multiplier:  multiplier,
		CreditAward: opts.CreditAward,
	})

	deltas := make(map[string]float64, len(p.Fees))
	for _, part := range g.Participants() {
		deltas[part.ID()] = -p.Fees[part.ID()] + paid.Energy[part.ID()]
	}

	out := Outcome{
		matchID:       p.ID,
		kind:          p.Kind,
		counter:       p.Counter,
		seedBase:      p.SeedBase,
		selectionSeed: p.SelectionSeed,
		matchSeed:     p.MatchSeed,
		result:        result,
		score:         g.Score(),
		frames:        g.Cycle(),
		goals:         g.GoalEvents(),
		rewardMode:    string(opts.Mode),
		rewards:       paid.Energy,
		entryFees:     copyMap(p.Fees),
		energyDeltas:  deltas,
		creditDeltas:  paid.Credits,
		left:          participant.IDs(g.Roster(soccer.Left)),
		right:         participant.IDs(g.Roster(soccer.Right)),
		teams:         p.TeamNames,
	}
	if p.runner != nil {
		out.episodeHash = match.EpisodeHash(out.goals, p.runner.Engine().Players())
	} else if m := p.Match(); m != nil {
		out.episodeHash = match.EpisodeHash(out.goals, m.Engine().Players())
	}
	return out
}

// StripRewards returns o as if nobody had been paid. Used when a winning
// side turns out to be bots only.
func StripRewards(o Outcome) Outcome {
	return o.withoutRewards()
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
