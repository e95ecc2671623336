package policy

import (
	"fmt"
	"math/rand"

	"soccer-arena/internal/soccer"
)

// Adapter turns executor decisions into engine commands. Executor errors and
// panics never escape: the player simply gets no command that cycle.
type Adapter struct {
	registry *Registry
	builder  string
	fallback Executor

	// OnFailure, when set, is told about every absorbed failure.
	OnFailure func(playerID string, err error)

	failures map[string]int
}

// NewAdapter creates an adapter using the named observation builder. An
// unknown name falls back to the default builder.
func NewAdapter(registry *Registry, builder string, fallback Executor) *Adapter {
	if registry == nil {
		registry = NewRegistry()
	}
	if _, ok := registry.Get(builder); !ok {
		builder = DefaultObservation
	}
	if fallback == nil {
		fallback = ChaseBall{}
	}
	return &Adapter{
		registry: registry,
		builder:  builder,
		fallback: fallback,
		failures: make(map[string]int),
	}
}

// Observe builds the normalized observation of one player.
func (a *Adapter) Observe(e *soccer.Engine, playerID string) (Observation, error) {
	build, ok := a.registry.Get(a.builder)
	if !ok {
		return nil, fmt.Errorf("observation builder %q not registered", a.builder)
	}
	return build(e, playerID)
}

// Decide queries exec (or the fallback when exec is nil) for playerID and
// returns the resulting command. ok is false when there is nothing to queue.
func (a *Adapter) Decide(e *soccer.Engine, playerID string, exec Executor, rng *rand.Rand) (cmd soccer.Command, ok bool) {
	p, found := e.Player(playerID)
	if !found {
		return soccer.Command{}, false
	}
	if exec == nil {
		exec = a.fallback
	}
	obs, err := a.Observe(e, playerID)
	if err != nil {
		a.fail(playerID, err)
		return soccer.Command{}, false
	}

	action, err := safeExecute(exec, obs, rng)
	if err != nil {
		a.fail(playerID, err)
		return soccer.Command{}, false
	}
	if action.IsZero() {
		return soccer.Command{}, false
	}
	cmd, err = ToCommand(action, Mirrored(e, p.Team))
	if err != nil {
		return soccer.Command{}, false
	}
	return cmd, true
}

// Failures returns how many failures were absorbed for playerID.
func (a *Adapter) Failures(playerID string) int {
	return a.failures[playerID]
}

// TotalFailures returns the number of absorbed failures across all players.
func (a *Adapter) TotalFailures() int {
	n := 0
	for _, c := range a.failures {
		n += c
	}
	return n
}

func (a *Adapter) fail(playerID string, err error) {
	a.failures[playerID]++
	if a.OnFailure != nil {
		a.OnFailure(playerID, err)
	}
}

func safeExecute(exec Executor, obs Observation, rng *rand.Rand) (action Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("policy panic: %v", r)
		}
	}()
	return exec.Execute(obs, rng, CycleDT)
}
