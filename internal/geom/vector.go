package geom

import "math"

// Vector3 is a point or direction in region-local space. Z is up.
type Vector3 struct {
	X, Y, Z float32
}

func NewVector3(x, y, z float32) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// DistanceSquared2D ignores Z. Interest recomputes are gated on planar
// movement only, so vertical travel (elevators, falls) never forces one.
func DistanceSquared2D(a, b Vector3) float32 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return float32(dx*dx + dy*dy)
}

func Distance2D(a, b Vector3) float32 {
	return float32(math.Sqrt(float64(DistanceSquared2D(a, b))))
}
