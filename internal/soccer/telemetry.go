package soccer

import "math"

// shotRange is how far from the goal line a kick may start and still count
// as a shot.
const shotRange = 40.0

// PlayerTelemetry is accumulated per player.
type PlayerTelemetry struct {
	Touches          int     `json:"touches"`
	Kicks            int     `json:"kicks"`
	DistanceRun      float64 `json:"distanceRun"`
	PossessionFrames int     `json:"possessionFrames"`
	BallProgress     float64 `json:"ballProgress"`
}

// TeamTelemetry is accumulated per side.
type TeamTelemetry struct {
	PossessionFrames int     `json:"possessionFrames"`
	Touches          int     `json:"touches"`
	Shots            int     `json:"shots"`
	ShotsOnTarget    int     `json:"shotsOnTarget"`
	BallProgress     float64 `json:"ballProgress"`
	Goals            int     `json:"goals"`
}

// Telemetry is the derived statistics of one match. It never feeds back into
// the physics.
type Telemetry struct {
	Players map[string]*PlayerTelemetry `json:"players"`
	Teams   map[Side]*TeamTelemetry     `json:"teams"`
	Frames  int                         `json:"frames"`
}

// Collector observes an Engine after every StepCycle.
type Collector struct {
	data     Telemetry
	lastPos  map[string]Vec2
	lastBall Vec2
	synced   bool
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		data: Telemetry{
			Players: make(map[string]*PlayerTelemetry),
			Teams:   map[Side]*TeamTelemetry{Left: {}, Right: {}},
		},
		lastPos: make(map[string]Vec2),
	}
}

// Sync records the current engine positions as the baseline for the next
// Observe. Call after teleports such as SwapSides or Reset.
func (c *Collector) Sync(e *Engine) {
	for p := range e.IterPlayers() {
		c.lastPos[p.ID] = p.Pos
		c.player(p.ID)
	}
	c.lastBall = e.Ball().Pos
	c.synced = true
}

// Observe folds one finished cycle into the statistics.
func (c *Collector) Observe(e *Engine, res StepResult) {
	if !c.synced {
		c.Sync(e)
	}
	c.data.Frames++

	kickedBy := make(map[string]bool)
	goalThisCycle := false
	for _, ev := range res.Events {
		switch ev.Type {
		case EventTypeKick:
			pt := c.player(ev.PlayerID)
			pt.Kicks++
			pt.Touches++
			c.data.Teams[ev.Team].Touches++
			kickedBy[ev.PlayerID] = true
		case EventTypeContact:
			c.player(ev.PlayerID).Touches++
			c.data.Teams[ev.Team].Touches++
		case EventTypeGoal:
			goalThisCycle = true
			c.data.Teams[ev.Team].Goals++
			if g := ev.Goal; g != nil && !g.OwnGoal && g.ScorerID != "" && kickedBy[g.ScorerID] {
				// the ball is already back on the spot; the kick was a shot on target
				c.data.Teams[ev.Team].Shots++
				c.data.Teams[ev.Team].ShotsOnTarget++
				delete(kickedBy, g.ScorerID)
			}
		}
	}

	ball := e.Ball()
	params := e.Params()
	if !goalThisCycle {
		for _, ev := range res.Events {
			if ev.Type == EventTypeKick && kickedBy[ev.PlayerID] {
				c.classifyShot(e, params, ev.Team, ball)
				delete(kickedBy, ev.PlayerID)
			}
		}
	}

	// Possession: nearest player within kickable range.
	holder, best := "", math.Inf(1)
	var holderTeam Side
	for p := range e.IterPlayers() {
		c.player(p.ID).DistanceRun += p.Pos.Dist(c.lastPos[p.ID])
		c.lastPos[p.ID] = p.Pos
		if d := p.Pos.Dist(ball.Pos); d <= params.KickableDistance() && d < best {
			holder, best, holderTeam = p.ID, d, p.Team
		}
	}
	if holder != "" {
		c.player(holder).PossessionFrames++
		c.data.Teams[holderTeam].PossessionFrames++
	}

	if !goalThisCycle {
		last, _ := e.LastTouchInfo()
		if last.PlayerID != "" {
			progress := (ball.Pos.X - c.lastBall.X) * e.AttackDirection(last.Team)
			c.player(last.PlayerID).BallProgress += progress
			c.data.Teams[last.Team].BallProgress += progress
		}
	}
	c.lastBall = ball.Pos
}

func (c *Collector) classifyShot(e *Engine, params Params, team Side, ball BallState) {
	dir := e.AttackDirection(team)
	if ball.Vel.X*dir <= 0 {
		return
	}
	lineX := dir * params.HalfLength()
	if math.Abs(lineX-ball.Pos.X) > shotRange {
		return
	}
	tt := c.data.Teams[team]
	tt.Shots++
	t := (lineX - ball.Pos.X) / ball.Vel.X
	if crossY := ball.Pos.Y + ball.Vel.Y*t; math.Abs(crossY) <= params.GoalWidth/2 {
		tt.ShotsOnTarget++
	}
}

func (c *Collector) player(id string) *PlayerTelemetry {
	pt, ok := c.data.Players[id]
	if !ok {
		pt = &PlayerTelemetry{}
		c.data.Players[id] = pt
	}
	return pt
}

// Player returns the statistics of one player.
func (c *Collector) Player(id string) PlayerTelemetry {
	if pt, ok := c.data.Players[id]; ok {
		return *pt
	}
	return PlayerTelemetry{}
}

// Team returns the statistics of one side.
func (c *Collector) Team(side Side) TeamTelemetry {
	if tt, ok := c.data.Teams[side]; ok {
		return *tt
	}
	return TeamTelemetry{}
}

// Snapshot returns a deep copy of everything collected so far.
func (c *Collector) Snapshot() Telemetry {
	out := Telemetry{
		Players: make(map[string]*PlayerTelemetry, len(c.data.Players)),
		Teams:   make(map[Side]*TeamTelemetry, len(c.data.Teams)),
		Frames:  c.data.Frames,
	}
	for id, pt := range c.data.Players {
		cp := *pt
		out.Players[id] = &cp
	}
	for side, tt := range c.data.Teams {
		cp := *tt
		out.Teams[side] = &cp
	}
	return out
}
