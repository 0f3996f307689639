package geo

import "math"

// Vec3 is a point or direction in the globe's right-handed, Y-up scene space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

var (
	// Up is the world up axis.
	Up = Vec3{Y: 1}
	// AxisX is the world X axis.
	AxisX = Vec3{X: 1}
)

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) LenSq() float64 { return v.Dot(v) }

func (v Vec3) Len() float64 { return math.Sqrt(v.LenSq()) }

// Normalize returns the unit vector in the direction of v. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

func (v Vec3) DistanceTo(o Vec3) float64 { return v.Sub(o).Len() }

// RotateY rotates v about the world Y axis by angle radians.
// Rotating by a increases Azimuth(v) by a.
func (v Vec3) RotateY(angle float64) Vec3 {
	s, c := math.Sincos(angle)
	return Vec3{
		X: c*v.X + s*v.Z,
		Y: v.Y,
		Z: -s*v.X + c*v.Z,
	}
}
