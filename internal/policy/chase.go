package policy

import (
	"math"
	"math/rand"
)

// ChaseBall runs at the ball and kicks it towards the opponent goal.
type ChaseBall struct{}

const (
	chaseTurnThreshold = math.Pi / 4
	kickJitter         = 0.1
)

func (ChaseBall) Execute(obs Observation, rng *rand.Rand, _ float64) (Action, error) {
	selfX, selfY := Number(obs, "self", "x"), Number(obs, "self", "y")
	angle := Number(obs, "self", "angle")

	if kickable, _ := obs["kickable"].(bool); kickable {
		goalX, goalY := Number(obs, "goal", "x"), Number(obs, "goal", "y")
		dir := math.Atan2(goalY-selfY, goalX-selfX) - angle
		if rng != nil {
			dir += (rng.Float64() - 0.5) * kickJitter
		}
		return Action{Kick: []float64{100, normalize(dir)}}, nil
	}

	rel := Number(obs, "ball", "angle")
	if math.Abs(rel) > chaseTurnThreshold {
		return Action{Turn: []float64{rel}}, nil
	}
	return Action{Dash: []float64{100, rel}}, nil
}

// Number reads a nested numeric field, returning 0 when it is missing.
func Number(obs Observation, path ...string) float64 {
	var cur any = map[string]any(obs)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return 0
		}
		cur = m[key]
	}
	switch v := cur.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func normalize(a float64) float64 {
	return math.Remainder(a, 2*math.Pi)
}
