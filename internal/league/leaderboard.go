package league

import (
	"sort"

	"soccer-arena/internal/soccer"
)

// Points per result.
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// Standing is one leaderboard row.
type Standing struct {
	Team         string `json:"team"`
	Played       int    `json:"played"`
	Wins         int    `json:"wins"`
	Draws        int    `json:"draws"`
	Losses       int    `json:"losses"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	GoalDiff     int    `json:"goal_difference"`
	Points       int    `json:"points"`
	Rank         int    `json:"rank"`
}

func (s *Standing) record(gf, ga int) {
	s.Played++
	s.GoalsFor += gf
	s.GoalsAgainst += ga
	s.GoalDiff = s.GoalsFor - s.GoalsAgainst
	switch {
	case gf > ga:
		s.Wins++
		s.Points += PointsWin
	case gf == ga:
		s.Draws++
		s.Points += PointsDraw
	default:
		s.Losses++
		s.Points += PointsLoss
	}
}

// Leaderboard ranks teams by points, then goal difference, then goals
// scored, then name. It keeps at most limit entries. Rows exist only for
// teams with a recorded match; teams yet to play show up in availability.
type Leaderboard struct {
	rows   map[string]*Standing
	limit  int
	recent []string // teams of the last recorded match
}

// NewLeaderboard creates a leaderboard capped at limit entries (0 = no cap).
func NewLeaderboard(limit int) *Leaderboard {
	return &Leaderboard{rows: make(map[string]*Standing), limit: limit}
}

func (lb *Leaderboard) row(team string) *Standing {
	s, ok := lb.rows[team]
	if !ok {
		s = &Standing{Team: team}
		lb.rows[team] = s
	}
	return s
}

// Record applies a finished match and prunes, keeping both teams.
func (lb *Leaderboard) Record(home, away string, score soccer.Score) {
	lb.row(home).record(score.Left, score.Right)
	lb.row(away).record(score.Right, score.Left)
	lb.recent = []string{home, away}
	lb.Prune()
}

// Prune evicts the lowest rows until the cap holds. Teams of the last
// recorded match and any protected teams are never evicted.
func (lb *Leaderboard) Prune(protected ...string) {
	if lb.limit <= 0 || len(lb.rows) <= lb.limit {
		return
	}
	keep := make(map[string]bool, len(protected)+len(lb.recent))
	for _, t := range append(protected, lb.recent...) {
		keep[t] = true
	}
	sorted := lb.sorted()
	for i := len(sorted) - 1; i >= 0 && len(lb.rows) > lb.limit; i-- {
		if !keep[sorted[i].Team] {
			delete(lb.rows, sorted[i].Team)
		}
	}
}

func less(a, b *Standing) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.GoalDiff != b.GoalDiff {
		return a.GoalDiff > b.GoalDiff
	}
	if a.GoalsFor != b.GoalsFor {
		return a.GoalsFor > b.GoalsFor
	}
	return a.Team < b.Team
}

func (lb *Leaderboard) sorted() []*Standing {
	out := make([]*Standing, 0, len(lb.rows))
	for _, s := range lb.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Top returns copies of the first n rows with ranks filled in (n <= 0 = all).
func (lb *Leaderboard) Top(n int) []Standing {
	sorted := lb.sorted()
	if n <= 0 || n > len(sorted) {
		n = len(sorted)
	}
	out := make([]Standing, n)
	for i := 0; i < n; i++ {
		out[i] = *sorted[i]
		out[i].Rank = i + 1
	}
	return out
}

// Rank returns the 1-based rank of team, or 0 if absent.
func (lb *Leaderboard) Rank(team string) int {
	for i, s := range lb.sorted() {
		if s.Team == team {
			return i + 1
		}
	}
	return 0
}

// Get returns a copy of team's row.
func (lb *Leaderboard) Get(team string) (Standing, bool) {
	s, ok := lb.rows[team]
	if !ok {
		return Standing{}, false
	}
	return *s, true
}

// Len returns the number of rows.
func (lb *Leaderboard) Len() int { return len(lb.rows) }
