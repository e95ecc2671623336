package match

import (
	"soccer-arena/internal/soccer"
)

// FitnessWeights shape the per-player fitness of a headless episode.
type FitnessWeights struct {
	Goal       float64 `json:"goal"`
	Assist     float64 `json:"assist"`
	Possession float64 `json:"possession"`
	Touch      float64 `json:"touch"`
	Progress   float64 `json:"progress"`
	WinBonus   float64 `json:"winBonus"`
}

// DefaultFitnessWeights are the training defaults.
func DefaultFitnessWeights() FitnessWeights {
	return FitnessWeights{
		Goal:       100,
		Assist:     50,
		Possession: 0.1,
		Touch:      1.0,
		Progress:   0.5,
		WinBonus:   25,
	}
}

// PlayerStats is the fitness breakdown of one player.
type PlayerStats struct {
	Side        soccer.Side `json:"side"`
	Goals       int         `json:"goals"`
	OwnGoals    int         `json:"ownGoals"`
	Assists     int         `json:"assists"`
	Possessions int         `json:"possessions"`
	Touches     int         `json:"touches"`
	Progress    float64     `json:"progress"`
	Won         bool        `json:"won"`
	Fitness     float64     `json:"fitness"`
}

// RunResult is what a finished headless episode produced.
type RunResult struct {
	Seed        int64                  `json:"seed"`
	Cycles      int                    `json:"cycles"`
	Score       soccer.Score           `json:"score"`
	Result      Result                 `json:"result"`
	Players     map[string]PlayerStats `json:"players"`
	Goals       []soccer.Event         `json:"goals"`
	Telemetry   soccer.Telemetry       `json:"telemetry"`
	EpisodeHash string                 `json:"episodeHash"`
}

// Runner is the headless batch wrapper used for training. It never swaps
// sides and never renders.
type Runner struct {
	*session
	weights FitnessWeights
}

// NewRunner builds a headless episode.
func NewRunner(cfg Config, weights FitnessWeights) (*Runner, error) {
	s, err := newSession(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{session: s, weights: weights}, nil
}

// Step advances one cycle. Returns false once the episode is over.
func (r *Runner) Step() (soccer.StepResult, bool) {
	if r.Finished() {
		return soccer.StepResult{Score: r.Score()}, false
	}
	return r.step(), true
}

// Run plays the episode to the end and returns its result.
func (r *Runner) Run() RunResult {
	RunToEnd(r)
	return r.Summary()
}

// Snapshot returns a render snapshot of the current state.
func (r *Runner) Snapshot() Snapshot {
	return buildSnapshot(r.session, 1)
}

// Summary computes fitness from the state reached so far.
func (r *Runner) Summary() RunResult {
	tel := r.collector.Snapshot()
	result := r.Result()
	winner, decided := result.Winner()

	stats := make(map[string]PlayerStats)
	for p := range r.engine.IterPlayers() {
		pt := tel.Players[p.ID]
		st := PlayerStats{Side: p.Team, Won: decided && p.Team == winner}
		if pt != nil {
			st.Possessions = pt.PossessionFrames
			st.Touches = pt.Touches
			st.Progress = pt.BallProgress
		}
		stats[p.ID] = st
	}
	for _, ev := range r.goals {
		g := ev.Goal
		if g == nil || g.ScorerID == "" {
			continue
		}
		if st, ok := stats[g.ScorerID]; ok {
			if g.OwnGoal {
				st.OwnGoals++
			} else {
				st.Goals++
			}
			stats[g.ScorerID] = st
		}
		if st, ok := stats[g.AssistID]; ok && g.AssistID != "" {
			st.Assists++
			stats[g.AssistID] = st
		}
	}
	for id, st := range stats {
		st.Fitness = r.fitness(st)
		stats[id] = st
	}

	return RunResult{
		Seed:        r.seed,
		Cycles:      r.Cycle(),
		Score:       r.Score(),
		Result:      result,
		Players:     stats,
		Goals:       r.GoalEvents(),
		Telemetry:   tel,
		EpisodeHash: EpisodeHash(r.goals, r.engine.Players()),
	}
}

func (r *Runner) fitness(st PlayerStats) float64 {
	w := r.weights
	f := float64(st.Goals)*w.Goal +
		float64(st.Assists)*w.Assist +
		float64(st.Possessions)*w.Possession +
		float64(st.Touches)*w.Touch +
		st.Progress*w.Progress
	if st.Won {
		f += w.WinBonus
	}
	return f
}
