// Package league runs a continuous round-robin soccer tournament between
// teams of participants, one bounded slice of a match per frame.
package league

import (
	"fmt"
	"log"
	"sort"

	"soccer-arena/internal/evaluator"
	"soccer-arena/internal/match"
	"soccer-arena/internal/participant"
	"soccer-arena/internal/policy"
	"soccer-arena/internal/rewards"
	"soccer-arena/internal/soccer"
)

// Config controls the league cadence and match shape.
type Config struct {
	MatchEveryFrames int
	CyclesPerFrame   int
	PlayersPerSide   int
	DurationFrames   int
	EntryFee         float64
	MinTeams         int
	MaxLeaderboard   int
	Interactive      bool

	RewardMode       rewards.Mode
	RewardMultiplier float64
	CreditAward      float64

	Params      soccer.Params
	Registry    *policy.Registry
	Observation string

	// OnPolicyFailure observes policy errors absorbed during play.
	OnPolicyFailure func(playerID string, err error)
}

// DefaultConfig returns a 2v2 league with bot fill-ins up to four teams.
func DefaultConfig() Config {
	return Config{
		MatchEveryFrames: 30,
		CyclesPerFrame:   10,
		PlayersPerSide:   2,
		DurationFrames:   600,
		EntryFee:         5,
		MinTeams:         4,
		MaxLeaderboard:   32,
		Interactive:      true,
		RewardMode:       rewards.PotPayout,
		RewardMultiplier: 1,
		Params:           soccer.DefaultParams(),
	}
}

// BotTeamPrefix names synthetic teams.
const BotTeamPrefix = "bots-"

// Team groups participants sharing a team name.
type Team struct {
	Name    string
	Bot     bool
	Members []participant.Participant
}

type active struct {
	pending *evaluator.Pending
	fixture int
	home    string
	away    string
}

// League owns the schedule, the leaderboard and the active match. It is not
// safe for concurrent use.
type League struct {
	cfg Config

	teams        map[string]*Team
	names        []string
	bots         map[string]*Team
	availability map[string]bool

	board    *Leaderboard
	season   int
	fixtures []Fixture
	next     int
	counter  int

	active *active
	outbox []evaluator.Outcome
}

// New creates a league.
func New(cfg Config) *League {
	if cfg.CyclesPerFrame <= 0 {
		cfg.CyclesPerFrame = 1
	}
	if cfg.PlayersPerSide <= 0 {
		cfg.PlayersPerSide = 1
	}
	return &League{
		cfg:          cfg,
		teams:        make(map[string]*Team),
		bots:         make(map[string]*Team),
		availability: make(map[string]bool),
		board:        NewLeaderboard(cfg.MaxLeaderboard),
	}
}

// Tick advances the league by one outer frame.
func (l *League) Tick(world participant.World, seedBase int64, frame int) {
	l.refresh(world)

	if l.active == nil && l.cfg.MatchEveryFrames > 0 && frame%l.cfg.MatchEveryFrames == 0 {
		l.startNext(seedBase)
	}
	if l.active == nil {
		return
	}

	g := l.active.pending.Game
	match.StepN(g, l.cfg.CyclesPerFrame)
	if g.Finished() {
		l.finish()
	}
}

// refresh rebuilds teams and availability from the world.
func (l *League) refresh(world participant.World) {
	grouped := make(map[string]*Team)
	for _, p := range world.Participants() {
		name := p.Team()
		if name == "" {
			continue
		}
		t, ok := grouped[name]
		if !ok {
			t = &Team{Name: name}
			grouped[name] = t
		}
		t.Members = append(t.Members, p)
	}

	for i := 1; len(grouped) < l.cfg.MinTeams; i++ {
		name := fmt.Sprintf("%s%d", BotTeamPrefix, i)
		if _, taken := grouped[name]; taken {
			continue
		}
		grouped[name] = l.botTeam(name)
	}

	l.teams = grouped
	l.names = l.names[:0]
	for name := range grouped {
		l.names = append(l.names, name)
	}
	sort.Strings(l.names)

	l.availability = make(map[string]bool, len(grouped))
	for _, name := range l.names {
		l.availability[name] = len(l.lineup(grouped[name])) >= l.cfg.PlayersPerSide
	}
}

func (l *League) botTeam(name string) *Team {
	if t, ok := l.bots[name]; ok {
		return t
	}
	t := &Team{Name: name, Bot: true}
	for i := 1; i <= l.cfg.PlayersPerSide; i++ {
		t.Members = append(t.Members, participant.NewBot(fmt.Sprintf("%s-p%d", name, i), name, nil))
	}
	l.bots[name] = t
	return t
}

// lineup returns the members able to play: those not in the active match
// whose energy exceeds the entry fee (bots always), highest energy first.
func (l *League) lineup(t *Team) []participant.Participant {
	busy := map[string]bool{}
	if l.active != nil {
		for _, p := range l.active.pending.Game.Participants() {
			busy[p.ID()] = true
		}
	}
	var ready []participant.Participant
	for _, p := range t.Members {
		if busy[p.ID()] {
			continue
		}
		if ledger := p.EnergyLedger(); ledger != nil && ledger.Energy() <= l.cfg.EntryFee && l.cfg.EntryFee > 0 {
			continue
		}
		ready = append(ready, p)
	}
	sort.SliceStable(ready, func(i, j int) bool {
		ei, ej := participant.EnergyOf(ready[i]), participant.EnergyOf(ready[j])
		if ei != ej {
			return ei > ej
		}
		return ready[i].ID() < ready[j].ID()
	})
	return ready
}

func (l *League) startNext(seedBase int64) {
	if l.fixtures == nil || l.next >= len(l.fixtures) {
		if len(l.names) < 2 {
			return
		}
		l.season++
		l.fixtures = RoundRobin(l.names)
		l.next = 0
		log.Printf("🏆 League season %d: %d teams, %d fixtures", l.season, len(l.names), len(l.fixtures))
	}

	for l.next < len(l.fixtures) {
		idx := l.next
		l.next++
		f := &l.fixtures[idx]

		home, away := l.teams[f.Home], l.teams[f.Away]
		if home == nil || away == nil || !l.availability[f.Home] || !l.availability[f.Away] {
			f.Status = FixtureSkipped
			continue
		}

		k := l.cfg.PlayersPerSide
		counter := l.counter
		l.counter++
		pending, err := evaluator.CreateFromTeams(evaluator.TeamsRequest{
			Left:         l.lineup(home)[:k],
			Right:        l.lineup(away)[:k],
			LeftName:     home.Name,
			RightName:    away.Name,
			SeedBase:     seedBase,
			MatchCounter: counter,
			EntryFee:     l.cfg.EntryFee,
			Kind:         evaluator.KindLeague,
			Game: evaluator.GameOptions{
				Params:          l.cfg.Params,
				Cycles:          l.cfg.DurationFrames,
				Interactive:     l.cfg.Interactive,
				Registry:        l.cfg.Registry,
				Observation:     l.cfg.Observation,
				OnPolicyFailure: l.cfg.OnPolicyFailure,
			},
		})
		if err != nil {
			log.Printf("⏭️ League fixture %s vs %s skipped: %v", f.Home, f.Away, err)
			f.Status = FixtureSkipped
			continue
		}

		f.MatchID = pending.ID
		l.active = &active{pending: pending, fixture: idx, home: home.Name, away: away.Name}
		log.Printf("⚽ League match %s vs %s started (season %d, round %d)", home.Name, away.Name, l.season, f.Round)
		return
	}
}

func (l *League) finish() {
	a := l.active
	l.active = nil

	out := evaluator.FinalizeSoccerMatch(a.pending, evaluator.FinalizeOptions{
		Mode:        l.cfg.RewardMode,
		Multiplier:  l.cfg.RewardMultiplier,
		CreditAward: l.cfg.CreditAward,
	})
	if side, ok := out.Winner(); ok && l.botOnly(out.Roster(side)) {
		out = evaluator.StripRewards(out)
	}

	score := out.Score()
	l.board.Record(a.home, a.away, score)
	if a.fixture < len(l.fixtures) && l.fixtures[a.fixture].MatchID == a.pending.ID {
		l.fixtures[a.fixture].Status = FixturePlayed
	}
	l.outbox = append(l.outbox, out)
	log.Printf("🏁 League match %s %d-%d %s", a.home, score.Left, score.Right, a.away)
}

func (l *League) botOnly(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !l.isBot(id) {
			return false
		}
	}
	return true
}

func (l *League) isBot(id string) bool {
	for _, t := range l.bots {
		for _, m := range t.Members {
			if m.ID() == id {
				return true
			}
		}
	}
	for _, t := range l.teams {
		for _, m := range t.Members {
			if m.ID() == id {
				return participant.IsBot(m)
			}
		}
	}
	return false
}

// DrainOutcomes returns and clears buffered outcomes.
func (l *League) DrainOutcomes() []evaluator.Outcome {
	out := l.outbox
	l.outbox = nil
	return out
}

// Leaderboard returns the current standings.
func (l *League) Leaderboard() []Standing { return l.board.Top(0) }

// Season returns the current season number (0 before the first).
func (l *League) Season() int { return l.season }

// Teams returns the current team names, sorted.
func (l *League) Teams() []string { return append([]string(nil), l.names...) }

// ActiveSnapshot returns the render snapshot of the running match.
func (l *League) ActiveSnapshot() (match.Snapshot, bool) {
	if l.active == nil {
		return match.Snapshot{}, false
	}
	switch g := l.active.pending.Game.(type) {
	case *match.Match:
		return g.RenderSnapshot(), true
	case *match.Runner:
		return g.Snapshot(), true
	}
	return match.Snapshot{}, false
}

// ActiveMatch summarizes the running match.
type ActiveMatch struct {
	MatchID     string       `json:"match_id"`
	Home        string       `json:"home"`
	Away        string       `json:"away"`
	Score       soccer.Score `json:"score"`
	Frame       int          `json:"frame"`
	TotalFrames int          `json:"total_frames"`
}

// LiveState is the league view served to clients.
type LiveState struct {
	Season       int             `json:"season"`
	FixtureIndex int             `json:"fixture_index"`
	Fixtures     []Fixture       `json:"fixtures"`
	Leaderboard  []Standing      `json:"leaderboard"`
	Active       *ActiveMatch    `json:"active_match"`
	Availability map[string]bool `json:"availability"`
}

// LiveState returns a copy of the league state.
func (l *League) LiveState() LiveState {
	st := LiveState{
		Season:       l.season,
		FixtureIndex: l.next,
		Fixtures:     append([]Fixture{}, l.fixtures...),
		Leaderboard:  l.board.Top(0),
		Availability: make(map[string]bool, len(l.availability)),
	}
	for k, v := range l.availability {
		st.Availability[k] = v
	}
	if a := l.active; a != nil {
		g := a.pending.Game
		st.Active = &ActiveMatch{
			MatchID:     a.pending.ID,
			Home:        a.home,
			Away:        a.away,
			Score:       g.Score(),
			Frame:       g.Cycle(),
			TotalFrames: g.TotalCycles(),
		}
	}
	return st
}
