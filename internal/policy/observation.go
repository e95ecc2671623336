package policy

import (
	"fmt"
	"math"
	"sort"

	"soccer-arena/internal/soccer"
)

// DefaultObservation is the name of the built-in observation builder.
const DefaultObservation = "soccer_v1"

// ObservationBuilder produces the observation of one player.
type ObservationBuilder func(e *soccer.Engine, playerID string) (Observation, error)

// Registry holds named observation builders. It is owned by the top-level
// orchestrator and passed down explicitly.
type Registry struct {
	builders map[string]ObservationBuilder
}

// NewRegistry returns a registry with the default builder installed.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]ObservationBuilder)}
	r.Register(DefaultObservation, BuildSoccerV1)
	return r
}

// Register adds or replaces a builder.
func (r *Registry) Register(name string, b ObservationBuilder) {
	r.builders[name] = b
}

// Get returns a builder by name.
func (r *Registry) Get(name string) (ObservationBuilder, bool) {
	b, ok := r.builders[name]
	return b, ok
}

// Names returns registered builder names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for n := range r.builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// frame maps world coordinates into the acting team's frame, where the team
// always attacks +x.
type frame struct {
	mirrored bool
}

func (f frame) vec(v soccer.Vec2) soccer.Vec2 {
	if f.mirrored {
		return v.Mirror()
	}
	return v
}

func (f frame) angle(a float64) float64 {
	if f.mirrored {
		return soccer.MirrorAngle(a)
	}
	return a
}

// Mirrored reports whether observations for side are mirrored.
func Mirrored(e *soccer.Engine, side soccer.Side) bool {
	return e.AttackDirection(side) < 0
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func point(v soccer.Vec2) map[string]any {
	return map[string]any{"x": round6(v.X), "y": round6(v.Y)}
}

// BuildSoccerV1 is the default observation: own body, ball, teammates,
// opponents and goal positions, all team-normalized.
func BuildSoccerV1(e *soccer.Engine, playerID string) (Observation, error) {
	self, ok := e.Player(playerID)
	if !ok {
		return nil, fmt.Errorf("unknown player %q", playerID)
	}
	f := frame{mirrored: Mirrored(e, self.Team)}
	params := e.Params()

	pos, vel := f.vec(self.Pos), f.vec(self.Vel)
	angle := f.angle(self.Angle)
	ball := e.Ball()
	ballPos, ballVel := f.vec(ball.Pos), f.vec(ball.Vel)
	toBall := ballPos.Sub(pos)

	var mates, opps []any
	for p := range e.IterPlayers() {
		if p.ID == playerID {
			continue
		}
		entry := point(f.vec(p.Pos))
		entry["id"] = p.ID
		if p.Team == self.Team {
			mates = append(mates, entry)
		} else {
			opps = append(opps, entry)
		}
	}

	score := e.Score()
	own, opp := score.For(self.Team), score.For(self.Team.Opponent())

	return Observation{
		"id":   playerID,
		"team": string(self.Team),
		"self": map[string]any{
			"x":       round6(pos.X),
			"y":       round6(pos.Y),
			"vx":      round6(vel.X),
			"vy":      round6(vel.Y),
			"angle":   round6(angle),
			"stamina": round6(self.Stamina / params.StaminaMax),
			"effort":  round6(self.Effort),
		},
		"ball": map[string]any{
			"x":     round6(ballPos.X),
			"y":     round6(ballPos.Y),
			"vx":    round6(ballVel.X),
			"vy":    round6(ballVel.Y),
			"dist":  round6(toBall.Len()),
			"angle": round6(soccer.NormalizeAngle(toBall.Angle() - angle)),
		},
		"kickable":  toBall.Len() <= params.KickableDistance(),
		"teammates": mates,
		"opponents": opps,
		"goal":      point(soccer.Vec2{X: params.HalfLength()}),
		"own_goal":  point(soccer.Vec2{X: -params.HalfLength()}),
		"field": map[string]any{
			"length":     params.FieldLength,
			"width":      params.FieldWidth,
			"goal_width": params.GoalWidth,
		},
		"score":     map[string]any{"own": own, "opp": opp},
		"cycle":     e.Cycle(),
		"play_mode": string(e.PlayMode()),
	}, nil
}
