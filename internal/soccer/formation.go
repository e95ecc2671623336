package soccer

import "math"

// Slot is one spawn position of a formation, in field-space meters.
type Slot struct {
	Pos   Vec2
	Angle float64
}

// Templates for small teams, expressed for the left side as fractions of the
// half length (x, negative towards the own goal) and half width (y).
var formationTemplates = map[int][]Vec2{
	1: {{-0.2, 0}},
	2: {{-0.2, -0.25}, {-0.2, 0.25}},
	3: {{-0.75, 0}, {-0.2, -0.3}, {-0.2, 0.3}},
	4: {{-0.85, 0}, {-0.5, 0}, {-0.2, -0.3}, {-0.2, 0.3}},
	5: {{-0.85, 0}, {-0.55, -0.3}, {-0.55, 0.3}, {-0.2, -0.25}, {-0.2, 0.25}},
}

// Formation returns deterministic spawn slots for a team of n players. The
// left side lines up at negative x facing +x; the right side is the mirror
// image facing -x. Slot i always maps to the same position for a given n.
func Formation(params Params, side Side, n int) []Slot {
	if n <= 0 {
		return nil
	}
	rel, ok := formationTemplates[n]
	if !ok {
		rel = gridFormation(n)
	}

	hl, hw := params.HalfLength(), params.HalfWidth()
	slots := make([]Slot, n)
	for i, r := range rel {
		pos := Vec2{X: r.X * hl, Y: r.Y * hw}
		angle := 0.0
		if side == Right {
			pos = pos.Mirror()
			angle = math.Pi
		}
		slots[i] = Slot{Pos: pos, Angle: angle}
	}
	return slots
}

// gridFormation spreads larger teams over evenly spaced lines behind the
// centre line, with a keeper in front of the goal.
func gridFormation(n int) []Vec2 {
	out := []Vec2{{-0.9, 0}}
	field := n - 1
	lines := int(math.Ceil(math.Sqrt(float64(field))))
	perLine := int(math.Ceil(float64(field) / float64(lines)))
	for l := 0; l < lines && field > 0; l++ {
		count := min(perLine, field)
		x := -0.7 + 0.5*float64(l)/math.Max(1, float64(lines-1))
		for k := 0; k < count; k++ {
			y := (float64(k)+1)/float64(count+1)*1.6 - 0.8
			out = append(out, Vec2{X: x, Y: y})
		}
		field -= count
	}
	return out
}
