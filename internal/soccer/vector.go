package soccer

import "math"

// Vec2 is a 2D vector in field-space meters.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// Mirror reflects the vector about the y axis (x -> -x).
func (v Vec2) Mirror() Vec2 { return Vec2{-v.X, v.Y} }

// ClampLen scales v down so its magnitude does not exceed max.
func (v Vec2) ClampLen(max float64) Vec2 {
	l := v.Len()
	if l > max && l > 0 {
		return v.Scale(max / l)
	}
	return v
}

func (v Vec2) finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Polar builds a vector from magnitude and heading.
func Polar(r, theta float64) Vec2 {
	return Vec2{r * math.Cos(theta), r * math.Sin(theta)}
}

// NormalizeAngle wraps an angle into [-pi, pi].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// MirrorAngle reflects a heading about the y axis.
func MirrorAngle(a float64) float64 {
	return NormalizeAngle(math.Pi - a)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
