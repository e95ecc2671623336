package evaluator

import (
	"encoding/json"
	"maps"

	"soccer-arena/internal/match"
	"soccer-arena/internal/soccer"
)

// Outcome is the immutable record of a finalized or skipped match. It is
// built once and exposes copies only.
type Outcome struct {
	matchID       string
	kind          string
	counter       int
	seedBase      int64
	selectionSeed int64
	matchSeed     int64

	result      match.Result
	score       soccer.Score
	frames      int
	episodeHash string
	goals       []soccer.Event

	rewardMode   string
	rewards      map[string]float64
	entryFees    map[string]float64
	energyDeltas map[string]float64
	creditDeltas map[string]float64

	left  []string
	right []string
	teams map[soccer.Side]string

	skipReason string
}

// Skipped builds the outcome of a match that never started.
func Skipped(kind string, seedBase int64, counter int, reason string) Outcome {
	return Outcome{
		matchID:      MatchID(seedBase, counter, kind),
		kind:         kind,
		counter:      counter,
		seedBase:     seedBase,
		result:       match.ResultNone,
		rewards:      map[string]float64{},
		entryFees:    map[string]float64{},
		energyDeltas: map[string]float64{},
		creditDeltas: map[string]float64{},
		skipReason:   reason,
	}
}

func (o Outcome) MatchID() string { return o.matchID }
func (o Outcome) Kind() string { return o.kind }
func (o Outcome) Counter() int { return o.counter }
func (o Outcome) SeedBase() int64 { return o.seedBase }
func (o Outcome) SelectionSeed() int64 { return o.selectionSeed }
func (o Outcome) MatchSeed() int64 { return o.matchSeed }
func (o Outcome) Result() match.Result { return o.result }
func (o Outcome) Score() soccer.Score { return o.score }
func (o Outcome) Frames() int { return o.frames }
func (o Outcome) EpisodeHash() string { return o.episodeHash }
func (o Outcome) RewardMode() string { return o.rewardMode }
func (o Outcome) SkipReason() string { return o.skipReason }
func (o Outcome) Skipped() bool { return o.skipReason != "" }

// Winner returns the winning side, if any.
func (o Outcome) Winner() (soccer.Side, bool) { return o.result.Winner() }

// TeamName returns the league team name playing on side, if known.
func (o Outcome) TeamName(side soccer.Side) string { return o.teams[side] }

func (o Outcome) Rewards() map[string]float64 { return maps.Clone(o.rewards) }
func (o Outcome) EntryFees() map[string]float64 { return maps.Clone(o.entryFees) }
func (o Outcome) EnergyDeltas() map[string]float64 { return maps.Clone(o.energyDeltas) }
func (o Outcome) CreditDeltas() map[string]float64 { return maps.Clone(o.creditDeltas) }

// Roster returns participant ids that played on side.
func (o Outcome) Roster(side soccer.Side) []string {
	if side == soccer.Left {
		return append([]string(nil), o.left...)
	}
	return append([]string(nil), o.right...)
}

// Goals returns the goal events of the match.
func (o Outcome) Goals() []soccer.Event {
	return append([]soccer.Event(nil), o.goals...)
}

// withoutRewards returns a copy where nobody was paid. Fees still count.
func (o Outcome) withoutRewards() Outcome {
	cp := o
	cp.rewards = map[string]float64{}
	cp.creditDeltas = map[string]float64{}
	cp.energyDeltas = make(map[string]float64, len(o.entryFees))
	for id, fee := range o.entryFees {
		cp.energyDeltas[id] = -fee
	}
	return cp
}

type outcomeJSON struct {
	MatchID       string              `json:"match_id"`
	Kind          string              `json:"kind"`
	Counter       int                 `json:"match_counter"`
	SeedBase      int64               `json:"seed_base"`
	SelectionSeed int64               `json:"selection_seed"`
	MatchSeed     int64               `json:"match_seed"`
	Winner        string              `json:"winner"`
	Score         soccer.Score        `json:"score"`
	Frames        int                 `json:"frames"`
	EpisodeHash   string              `json:"episode_hash,omitempty"`
	Goals         []soccer.Event      `json:"goals"`
	RewardMode    string              `json:"reward_mode,omitempty"`
	Rewards       map[string]float64  `json:"rewards"`
	EntryFees     map[string]float64  `json:"entry_fees"`
	EnergyDeltas  map[string]float64  `json:"energy_deltas"`
	CreditDeltas  map[string]float64  `json:"repro_credit_deltas"`
	Teams         map[string][]string `json:"teams"`
	TeamNames     map[string]string   `json:"team_names,omitempty"`
	SkipReason    string              `json:"skip_reason,omitempty"`
}

// MarshalJSON encodes the outcome for the journal and the API.
func (o Outcome) MarshalJSON() ([]byte, error) {
	winner := string(o.result)
	if winner == "" {
		winner = "none"
	}
	var names map[string]string
	if len(o.teams) > 0 {
		names = make(map[string]string, len(o.teams))
		for side, name := range o.teams {
			names[string(side)] = name
		}
	}
	goals := o.goals
	if goals == nil {
		goals = []soccer.Event{}
	}
	return json.Marshal(outcomeJSON{
		MatchID:       o.matchID,
		Kind:          o.kind,
		Counter:       o.counter,
		SeedBase:      o.seedBase,
		SelectionSeed: o.selectionSeed,
		MatchSeed:     o.matchSeed,
		Winner:        winner,
		Score:         o.score,
		Frames:        o.frames,
		EpisodeHash:   o.episodeHash,
		Goals:         goals,
		RewardMode:    o.rewardMode,
		Rewards:       o.rewards,
		EntryFees:     o.entryFees,
		EnergyDeltas:  o.energyDeltas,
		CreditDeltas:  o.creditDeltas,
		Teams: map[string][]string{
			"left":  nonNil(o.left),
			"right": nonNil(o.right),
		},
		TeamNames:  names,
		SkipReason: o.skipReason,
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
