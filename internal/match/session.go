// Package match drives soccer engines with policies, either interactively
// (Match, with half-time and render snapshots) or headless (Runner, with
// per-player fitness).
package match

import (
	"errors"
	"fmt"
	"math/rand"

	"soccer-arena/internal/participant"
	"soccer-arena/internal/policy"
	"soccer-arena/internal/seeding"
	"soccer-arena/internal/soccer"
)

var ErrEmptySide = errors.New("each side needs at least one player")

// Config describes one match.
type Config struct {
	Params soccer.Params
	Seed   int64
	Cycles int

	Left  []participant.Participant
	Right []participant.Participant

	Registry    *policy.Registry
	Observation string          // observation builder name, default soccer_v1
	Fallback    policy.Executor // used for participants without a policy

	// OnPolicyFailure is forwarded to the policy adapter.
	OnPolicyFailure func(playerID string, err error)
}

// Game is the common surface of Match and Runner.
type Game interface {
	Step() (soccer.StepResult, bool)
	Finished() bool
	Result() Result
	Score() soccer.Score
	Cycle() int
	TotalCycles() int
	Seed() int64
	Roster(side soccer.Side) []participant.Participant
	Participants() []participant.Participant
	GoalEvents() []soccer.Event
	Telemetry() soccer.Telemetry
}

// Result is the outcome of a finished match.
type Result string

const (
	ResultNone  Result = ""
	ResultLeft  Result = "left"
	ResultRight Result = "right"
	ResultDraw  Result = "draw"
)

// Winner returns the winning side, if any.
func (r Result) Winner() (soccer.Side, bool) {
	switch r {
	case ResultLeft:
		return soccer.Left, true
	case ResultRight:
		return soccer.Right, true
	}
	return "", false
}

// session holds what Match and Runner share.
type session struct {
	engine    *soccer.Engine
	adapter   *policy.Adapter
	collector *soccer.Collector
	rng       *rand.Rand

	members map[string]participant.Participant
	sides   map[soccer.Side][]participant.Participant
	goals   []soccer.Event
	total   int
	seed    int64
}

func newSession(cfg Config) (*session, error) {
	if len(cfg.Left) == 0 || len(cfg.Right) == 0 {
		return nil, ErrEmptySide
	}
	if cfg.Cycles <= 0 {
		return nil, fmt.Errorf("match needs a positive cycle count, got %d", cfg.Cycles)
	}
	if cfg.Params == (soccer.Params{}) {
		cfg.Params = soccer.DefaultParams()
	}
	if cfg.Observation == "" {
		cfg.Observation = policy.DefaultObservation
	}

	s := &session{
		engine:    soccer.NewEngine(cfg.Params, cfg.Seed),
		adapter:   policy.NewAdapter(cfg.Registry, cfg.Observation, cfg.Fallback),
		collector: soccer.NewCollector(),
		rng:       seeding.Child(cfg.Seed, "episode"),
		members:   make(map[string]participant.Participant),
		sides:     make(map[soccer.Side][]participant.Participant),
		total:     cfg.Cycles,
		seed:      cfg.Seed,
	}
	s.adapter.OnFailure = cfg.OnPolicyFailure

	for _, side := range []soccer.Side{soccer.Left, soccer.Right} {
		list := cfg.Left
		if side == soccer.Right {
			list = cfg.Right
		}
		slots := soccer.Formation(cfg.Params, side, len(list))
		for i, p := range list {
			if err := s.engine.AddPlayer(p.ID(), side, slots[i].Pos, slots[i].Angle); err != nil {
				return nil, fmt.Errorf("add player %s: %w", p.ID(), err)
			}
			s.members[p.ID()] = p
		}
		s.sides[side] = append([]participant.Participant(nil), list...)
	}
	s.collector.Sync(s.engine)
	return s, nil
}

// step queries every policy against the same pre-cycle state, then advances
// the engine once. Each player draws from its own child of one fork of the
// episode stream, so iteration order cannot leak into any stream.
func (s *session) step() soccer.StepResult {
	forks := seeding.NewForkSet(s.rng)
	for _, id := range s.engine.PlayerIDs() {
		var exec policy.Executor
		if p := s.members[id]; p != nil {
			exec = p.Policy()
		}
		if cmd, ok := s.adapter.Decide(s.engine, id, exec, forks.For(id)); ok {
			s.engine.QueueCommand(id, cmd)
		}
	}

	res := s.engine.StepCycle()
	s.collector.Observe(s.engine, res)
	for _, ev := range res.Events {
		if ev.Type == soccer.EventTypeGoal {
			s.goals = append(s.goals, ev)
		}
	}
	return res
}

func (s *session) Finished() bool { return s.engine.Cycle() >= s.total }

func (s *session) Score() soccer.Score { return s.engine.Score() }

func (s *session) Cycle() int { return s.engine.Cycle() }

func (s *session) TotalCycles() int { return s.total }

func (s *session) Seed() int64 { return s.seed }

// Engine exposes the underlying engine for read access.
func (s *session) Engine() *soccer.Engine { return s.engine }

// Roster returns the participants that started on side.
func (s *session) Roster(side soccer.Side) []participant.Participant {
	return append([]participant.Participant(nil), s.sides[side]...)
}

// Participants returns every participant, left side first.
func (s *session) Participants() []participant.Participant {
	out := append([]participant.Participant(nil), s.sides[soccer.Left]...)
	return append(out, s.sides[soccer.Right]...)
}

// SideOf returns the starting side of a participant.
func (s *session) SideOf(id string) (soccer.Side, bool) {
	p, ok := s.engine.Player(id)
	return p.Team, ok
}

// GoalEvents returns every goal so far in order.
func (s *session) GoalEvents() []soccer.Event {
	return append([]soccer.Event(nil), s.goals...)
}

func (s *session) Telemetry() soccer.Telemetry { return s.collector.Snapshot() }

// PolicyFailures returns how many policy calls were absorbed.
func (s *session) PolicyFailures() int { return s.adapter.TotalFailures() }

// Result compares final scores once the configured duration is reached.
func (s *session) Result() Result {
	if !s.Finished() {
		return ResultNone
	}
	score := s.engine.Score()
	switch {
	case score.Left > score.Right:
		return ResultLeft
	case score.Right > score.Left:
		return ResultRight
	}
	return ResultDraw
}

// StepN advances g by at most n cycles and returns how many ran.
func StepN(g Game, n int) int {
	ran := 0
	for ran < n {
		if _, ok := g.Step(); !ok {
			break
		}
		ran++
	}
	return ran
}

// RunToEnd steps g until it finishes.
func RunToEnd(g Game) {
	for !g.Finished() {
		if _, ok := g.Step(); !ok {
			return
		}
	}
}
