// Package policy connects external decision makers to the soccer engine.
//
// An Executor receives a team-normalized Observation (its own side always
// attacks +x) and returns an Action. The Adapter builds observations,
// converts actions back into engine commands and absorbs executor failures.
package policy

import (
	"errors"
	"math/rand"

	"soccer-arena/internal/soccer"
)

// CycleDT is the notional duration of one cycle in seconds.
const CycleDT = 0.1

var ErrEmptyAction = errors.New("action has no command")

// Observation is the JSON-like view an executor decides on.
type Observation map[string]any

// Action is one of {dash:[power,dir]}, {turn:[moment]} or {kick:[power,dir]}.
// When several are set, kick wins over dash, and dash over turn.
type Action struct {
	Dash []float64 `json:"dash,omitempty"`
	Turn []float64 `json:"turn,omitempty"`
	Kick []float64 `json:"kick,omitempty"`
}

// IsZero reports whether no command is set.
func (a Action) IsZero() bool {
	return len(a.Dash) == 0 && len(a.Turn) == 0 && len(a.Kick) == 0
}

// Executor decides one action per cycle.
type Executor interface {
	Execute(obs Observation, rng *rand.Rand, dt float64) (Action, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(obs Observation, rng *rand.Rand, dt float64) (Action, error)

func (f ExecutorFunc) Execute(obs Observation, rng *rand.Rand, dt float64) (Action, error) {
	return f(obs, rng, dt)
}

// ToCommand converts a normalized action into an engine command. mirrored
// is true when the acting side attacks -x, in which case relative
// directions and moments flip sign.
func ToCommand(a Action, mirrored bool) (soccer.Command, error) {
	sign := 1.0
	if mirrored {
		sign = -1
	}
	switch {
	case len(a.Kick) > 0:
		return soccer.Kick(arg(a.Kick, 0), sign*arg(a.Kick, 1)), nil
	case len(a.Dash) > 0:
		return soccer.Dash(arg(a.Dash, 0), sign*arg(a.Dash, 1)), nil
	case len(a.Turn) > 0:
		return soccer.Turn(sign * arg(a.Turn, 0)), nil
	}
	return soccer.Command{}, ErrEmptyAction
}

func arg(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}
