package grid

import "math"

// Vector3 is a world-space location in engine units.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func NewVector3(x, y, z float64) Vector3 {
	return Vector3{x, y, z}
}

func (v Vector3) Equal(o Vector3) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

func Add(a Vector3, b Vector3) Vector3 {
	return Vector3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a Vector3, b Vector3) Vector3 {
	return Vector3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Mul(a Vector3, s float64) Vector3 {
	return Vector3{a.X * s, a.Y * s, a.Z * s}
}

func (v Vector3) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

func (v Vector3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// DistSquared returns the squared distance between two locations.
func DistSquared(a Vector3, b Vector3) float64 {
	return Sub(a, b).LengthSquared()
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vector3 `json:"min"`
	Max Vector3 `json:"max"`
}

func NewBox(min, max Vector3) Box {
	return Box{Min: min, Max: max}
}

// Contains reports whether the given location is inside the box, inclusive on
// all faces.
func (b Box) Contains(v Vector3) bool {
	return v.X >= b.Min.X && v.X <= b.Max.X &&
		v.Y >= b.Min.Y && v.Y <= b.Max.Y &&
		v.Z >= b.Min.Z && v.Z <= b.Max.Z
}
