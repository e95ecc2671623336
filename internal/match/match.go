package match

import (
	"soccer-arena/internal/soccer"
)

// Match is the interactive wrapper: a fixed duration split into two halves
// with a side swap at the midpoint, plus render snapshots.
type Match struct {
	*session
	half int
}

// New builds an interactive match.
func New(cfg Config) (*Match, error) {
	s, err := newSession(cfg)
	if err != nil {
		return nil, err
	}
	return &Match{session: s, half: 1}, nil
}

// Step advances one cycle. Returns false once the match is over.
func (m *Match) Step() (soccer.StepResult, bool) {
	if m.Finished() {
		return soccer.StepResult{Score: m.Score()}, false
	}
	if m.half == 1 && m.Cycle() >= m.total/2 && m.total > 1 {
		m.engine.SwapSides()
		m.collector.Sync(m.engine)
		m.half = 2
	}
	return m.step(), true
}

// Half returns 1 or 2.
func (m *Match) Half() int { return m.half }

// Entity is one render-ready object in field-space meters.
type Entity struct {
	Type     string  `json:"type"`
	ID       string  `json:"id"`
	Team     string  `json:"team,omitempty"`
	Jersey   int     `json:"jersey,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Facing   float64 `json:"facing"`
	Radius   float64 `json:"radius"`
	Color    string  `json:"color"`
	Kickable bool    `json:"kickable,omitempty"`
	Stamina  float64 `json:"stamina,omitempty"`
}

// Field carries the pitch geometry so consumers can scale to any canvas.
type Field struct {
	Length    float64 `json:"length"`
	Width     float64 `json:"width"`
	GoalWidth float64 `json:"goal_width"`
	GoalDepth float64 `json:"goal_depth"`
}

// Teams lists participant ids per side.
type Teams struct {
	Left  []string `json:"left"`
	Right []string `json:"right"`
}

// Snapshot is the render snapshot of a match.
type Snapshot struct {
	Entities    []Entity     `json:"entities"`
	Score       soccer.Score `json:"score"`
	Frame       int          `json:"frame"`
	TotalFrames int          `json:"total_frames"`
	Half        int          `json:"half"`
	PlayMode    string       `json:"play_mode"`
	Field       Field        `json:"field"`
	Teams       Teams        `json:"teams"`
	Seed        int64        `json:"seed"`
}

var teamColors = map[soccer.Side]string{
	soccer.Left:  "#e74c3c",
	soccer.Right: "#3498db",
}

const ballColor = "#ffffff"

// RenderSnapshot captures the current state. The snapshot is a copy and is
// safe to hand to another goroutine.
func (m *Match) RenderSnapshot() Snapshot {
	return buildSnapshot(m.session, m.half)
}

func buildSnapshot(s *session, half int) Snapshot {
	e := s.engine
	params := e.Params()
	ball := e.Ball()

	jersey := make(map[string]int)
	teams := Teams{Left: []string{}, Right: []string{}}
	for i, p := range s.sides[soccer.Left] {
		jersey[p.ID()] = i + 1
		teams.Left = append(teams.Left, p.ID())
	}
	for i, p := range s.sides[soccer.Right] {
		jersey[p.ID()] = i + 1
		teams.Right = append(teams.Right, p.ID())
	}

	entities := make([]Entity, 0, len(jersey)+1)
	entities = append(entities, Entity{
		Type:   "ball",
		ID:     "ball",
		X:      ball.Pos.X,
		Y:      ball.Pos.Y,
		VX:     ball.Vel.X,
		VY:     ball.Vel.Y,
		Facing: ball.Vel.Angle(),
		Radius: params.BallSize,
		Color:  ballColor,
	})
	for p := range e.IterPlayers() {
		entities = append(entities, Entity{
			Type:     "player",
			ID:       p.ID,
			Team:     string(p.Team),
			Jersey:   jersey[p.ID],
			X:        p.Pos.X,
			Y:        p.Pos.Y,
			VX:       p.Vel.X,
			VY:       p.Vel.Y,
			Facing:   p.Angle,
			Radius:   params.PlayerSize,
			Color:    teamColors[p.Team],
			Kickable: p.Pos.Dist(ball.Pos) <= params.KickableDistance(),
			Stamina:  p.Stamina / params.StaminaMax,
		})
	}

	return Snapshot{
		Entities:    entities,
		Score:       e.Score(),
		Frame:       e.Cycle(),
		TotalFrames: s.total,
		Half:        half,
		PlayMode:    string(e.PlayMode()),
		Field: Field{
			Length:    params.FieldLength,
			Width:     params.FieldWidth,
			GoalWidth: params.GoalWidth,
			GoalDepth: params.GoalDepth,
		},
		Teams: teams,
		Seed:  s.seed,
	}
}
