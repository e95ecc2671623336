// Package arena composes the soccer components around one population and
// advances them one outer frame at a time.
package arena

import (
	"sync"
	"time"

	"soccer-arena/internal/evaluator"
	"soccer-arena/internal/league"
	"soccer-arena/internal/match"
	"soccer-arena/internal/participant"
	"soccer-arena/internal/policy"
)

// ScheduleHook runs one-shot matches on a cadence.
type ScheduleHook interface {
	Tick(world participant.World, seedBase int64, cycle int) []evaluator.Outcome
}

// LeagueHook runs the continuous tournament.
type LeagueHook interface {
	Tick(world participant.World, seedBase int64, frame int)
	DrainOutcomes() []evaluator.Outcome
	LiveState() league.LiveState
	ActiveSnapshot() (match.Snapshot, bool)
}

// Hooks holds one optional component per concern. Nil hooks are skipped.
type Hooks struct {
	Scheduler ScheduleHook
	League    LeagueHook
}

// OutcomeSink receives every drained outcome, in order.
type OutcomeSink interface {
	RecordOutcome(o evaluator.Outcome)
}

// Options configure an Orchestrator.
type Options struct {
	SeedBase    int64
	RecentLimit int
	Registry    *policy.Registry
	Sinks       []OutcomeSink
	OnFrame     func(d time.Duration)
}

// Stats are running totals since start.
type Stats struct {
	Frames       int `json:"frames"`
	Played       int `json:"matches_played"`
	Skipped      int `json:"matches_skipped"`
	Goals        int `json:"goals"`
	Participants int `json:"participants"`
}

// Orchestrator owns the world and the hooks. Frame must be called from one
// goroutine; readers may call the accessors concurrently.
type Orchestrator struct {
	mu       sync.RWMutex
	world    *participant.Roster
	hooks    Hooks
	registry *policy.Registry
	opts     Options

	frame  int
	recent []evaluator.Outcome
	stats  Stats
}

// New creates an orchestrator. A nil registry gets the default builders.
func New(world *participant.Roster, hooks Hooks, opts Options) *Orchestrator {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 50
	}
	reg := opts.Registry
	if reg == nil {
		reg = policy.NewRegistry()
	}
	return &Orchestrator{world: world, hooks: hooks, registry: reg, opts: opts}
}

// Frame advances every present hook by one frame and returns the outcomes
// drained during it.
func (o *Orchestrator) Frame() []evaluator.Outcome {
	start := time.Now()
	o.mu.Lock()

	var drained []evaluator.Outcome
	if h := o.hooks.Scheduler; h != nil {
		drained = append(drained, h.Tick(o.world, o.opts.SeedBase, o.frame)...)
	}
	if h := o.hooks.League; h != nil {
		h.Tick(o.world, o.opts.SeedBase, o.frame)
		drained = append(drained, h.DrainOutcomes()...)
	}
	o.frame++
	o.stats.Frames = o.frame
	o.stats.Participants = o.world.Len()

	for _, out := range drained {
		if out.Skipped() {
			o.stats.Skipped++
		} else {
			o.stats.Played++
			o.stats.Goals += len(out.Goals())
		}
		o.recent = append(o.recent, out)
	}
	if extra := len(o.recent) - o.opts.RecentLimit; extra > 0 {
		o.recent = append([]evaluator.Outcome(nil), o.recent[extra:]...)
	}
	o.mu.Unlock()

	for _, out := range drained {
		for _, s := range o.opts.Sinks {
			s.RecordOutcome(out)
		}
	}
	if o.opts.OnFrame != nil {
		o.opts.OnFrame(time.Since(start))
	}
	return drained
}

// FrameCount returns the number of frames run.
func (o *Orchestrator) FrameCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.frame
}

// Recent returns up to n of the latest outcomes, newest last (n <= 0 = all kept).
func (o *Orchestrator) Recent(n int) []evaluator.Outcome {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if n <= 0 || n > len(o.recent) {
		n = len(o.recent)
	}
	return append([]evaluator.Outcome(nil), o.recent[len(o.recent)-n:]...)
}

// Outcome looks up a recent outcome by match id.
func (o *Orchestrator) Outcome(id string) (evaluator.Outcome, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for i := len(o.recent) - 1; i >= 0; i-- {
		if o.recent[i].MatchID() == id {
			return o.recent[i], true
		}
	}
	return evaluator.Outcome{}, false
}

// LeagueState returns the league live state if a league is running.
func (o *Orchestrator) LeagueState() (league.LiveState, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.hooks.League == nil {
		return league.LiveState{}, false
	}
	return o.hooks.League.LiveState(), true
}

// LiveSnapshot returns the render snapshot of the active league match.
func (o *Orchestrator) LiveSnapshot() (match.Snapshot, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.hooks.League == nil {
		return match.Snapshot{}, false
	}
	return o.hooks.League.ActiveSnapshot()
}

// Stats returns running totals.
func (o *Orchestrator) Stats() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st := o.stats
	st.Participants = o.world.Len()
	return st
}

// Participants returns the population sorted by id.
func (o *Orchestrator) Participants() []participant.Participant {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.world.Participants()
}

// AddParticipant joins the population between frames.
func (o *Orchestrator) AddParticipant(p participant.Participant) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.world.Add(p)
}

// Registry returns the observation registry shared by the hooks.
func (o *Orchestrator) Registry() *policy.Registry { return o.registry }
