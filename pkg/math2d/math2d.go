package math2d

import "math"

// Vec2 is a point or direction in world space.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of the 3D cross product.
func (v Vec2) Cross(o Vec2) float64 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vec2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// ClampNorm limits the vector's magnitude to max, preserving direction.
func (v Vec2) ClampNorm(max float64) Vec2 {
	n := v.Norm()
	if n <= max || n == 0 {
		return v
	}
	return v.Scale(max / n)
}

// Heading returns the direction unit vector for an angle in radians.
func Heading(angle float64) Vec2 {
	return Vec2{math.Cos(angle), math.Sin(angle)}
}

// Clip clamps v into [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WrapToPi normalizes an angle into (-pi, pi].
func WrapToPi(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(a float64) float64 {
	return a * 180 / math.Pi
}
