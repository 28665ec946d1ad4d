package data

import "math"

// Vec2 is a position in world units.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{X: v.X * f, Y: v.Y * f} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func Distance(a, b Vec2) float64    { return b.Sub(a).Len() }

// MoveTowards returns cur advanced toward target by at most maxDelta.
// It never overshoots: if target is within maxDelta, target is returned.
func MoveTowards(cur, target Vec2, maxDelta float64) Vec2 {
	d := target.Sub(cur)
	dist := d.Len()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	if maxDelta <= 0 {
		return cur
	}
	return cur.Add(d.Scale(maxDelta / dist))
}
