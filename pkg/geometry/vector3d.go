package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon Precision constant.
// Used for float64 comparisons and to decide when a vector is too short to normalize.
const (
	Epsilon = 1e-9
)

// Vector3D represents a 3D vector or point in the tank's local frame.
// The field layout matches gonum's r3.Vec, so both types convert freely and the
// arithmetic below delegates to r3.
type Vector3D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Axis unit vectors, named after the tank walls they point away from.
var (
	Zero    = Vector3D{}
	Right   = Vector3D{X: 1}
	Left    = Vector3D{X: -1}
	Up      = Vector3D{Y: 1}
	Down    = Vector3D{Y: -1}
	Forward = Vector3D{Z: 1}
	Back    = Vector3D{Z: -1}
)

// NewVector creates a new Vector3D.
// Vector3D{X: x, Y: y, Z: z} is equivalent; the factory reads better in tables.
func NewVector(x, y, z float64) Vector3D {
	return Vector3D{X: x, Y: y, Z: z}
}

func (v Vector3D) r3() r3.Vec { return r3.Vec(v) }

// String implements the fmt.Stringer interface.
func (v Vector3D) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// ---------------------------------------------------------------------
// Arithmetic Operations
// Value receivers returning new values, like the rest of the package.
// ---------------------------------------------------------------------

// Add adds two vectors and returns the result.
func (v Vector3D) Add(other Vector3D) Vector3D {
	return Vector3D(r3.Add(v.r3(), other.r3()))
}

// Sub subtracts the other vector from the current vector.
func (v Vector3D) Sub(other Vector3D) Vector3D {
	return Vector3D(r3.Sub(v.r3(), other.r3()))
}

// Mul scales the vector by a scalar value.
func (v Vector3D) Mul(scalar float64) Vector3D {
	return Vector3D(r3.Scale(scalar, v.r3()))
}

// Div scales the vector by 1/scalar.
// if scalar is zero it returns an Inf vector together with an error.
func (v Vector3D) Div(scalar float64) (Vector3D, error) {
	if scalar == 0 {
		return Vector3D{math.Inf(1), math.Inf(1), math.Inf(1)}, errors.New("vector cannot be divided by zero")
	}
	return v.Mul(1 / scalar), nil
}

// Neg returns the opposite vector.
func (v Vector3D) Neg() Vector3D {
	return Vector3D{-v.X, -v.Y, -v.Z}
}

// ---------------------------------------------------------------------
// Vector3D Products
// ---------------------------------------------------------------------

// Dot calculates the dot product of two vectors.
func (v Vector3D) Dot(other Vector3D) float64 {
	return r3.Dot(v.r3(), other.r3())
}

// Cross calculates the cross product v × other.
func (v Vector3D) Cross(other Vector3D) Vector3D {
	return Vector3D(r3.Cross(v.r3(), other.r3()))
}

// ---------------------------------------------------------------------
// Magnitude and Normalization
// ---------------------------------------------------------------------

// LenSqr calculates the squared magnitude of the vector.
// This is faster than Len() as it avoids the square root. Use for comparisons.
func (v Vector3D) LenSqr() float64 {
	return r3.Norm2(v.r3())
}

// Len calculates the magnitude (length) of the vector.
func (v Vector3D) Len() float64 {
	return r3.Norm(v.r3())
}

// Normalize returns a unit vector in the same direction.
// Returns a zero vector if the length is effectively zero (r3.Unit would give NaN).
func (v Vector3D) Normalize() Vector3D {
	if v.Len() < Epsilon {
		return Zero
	}
	return Vector3D(r3.Unit(v.r3()))
}

// IsZero reports whether every component is exactly zero.
func (v Vector3D) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// IsFinite reports whether no component is NaN or Inf.
func (v Vector3D) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------
// Geometric Utilities
// ---------------------------------------------------------------------

// DistanceTo calculates the Euclidean distance to another vector.
func (v Vector3D) DistanceTo(other Vector3D) float64 {
	return v.Sub(other).Len()
}

// DistanceSquaredTo calculates the squared Euclidean distance to another vector.
func (v Vector3D) DistanceSquaredTo(other Vector3D) float64 {
	return v.Sub(other).LenSqr()
}

// AngleTo returns the unsigned angle in radians between v and other, in [0, Pi].
func (v Vector3D) AngleTo(other Vector3D) float64 {
	lv, lo := v.Len(), other.Len()
	if lv < Epsilon || lo < Epsilon {
		return 0
	}
	return math.Acos(clamp(v.Dot(other)/(lv*lo), -1, 1))
}

// Lerp (Linear Interpolate) calculates a point between v and target based on t [0, 1].
func (v Vector3D) Lerp(target Vector3D, t float64) Vector3D {
	return v.Add(target.Sub(v).Mul(t))
}

// Slerp spherically interpolates between the directions v and target.
// t is clamped to [0, 1]. The result turns from v toward target by t times the angle
// between them, and its length is interpolated linearly between the two lengths,
// so unit inputs always give a unit output.
// Anti-parallel inputs turn around an arbitrary axis perpendicular to v.
func (v Vector3D) Slerp(target Vector3D, t float64) Vector3D {
	t = clamp(t, 0, 1)
	lv, lt := v.Len(), target.Len()
	if lv < Epsilon || lt < Epsilon {
		return v.Lerp(target, t)
	}
	from, to := v.Mul(1/lv), target.Mul(1/lt)
	length := lv + (lt-lv)*t

	angle := math.Acos(clamp(from.Dot(to), -1, 1))
	if angle < Epsilon {
		return from.Lerp(to, t).Normalize().Mul(length)
	}

	axis := from.Cross(to)
	if axis.Len() < Epsilon {
		axis = from.Perpendicular()
	}
	rot := r3.NewRotation(angle*t, axis.r3())
	return Vector3D(rot.Rotate(from.r3())).Normalize().Mul(length)
}

// Perpendicular returns some unit vector orthogonal to v.
func (v Vector3D) Perpendicular() Vector3D {
	p := v.Cross(Right)
	if p.Len() < Epsilon {
		p = v.Cross(Up)
	}
	return p.Normalize()
}

// ---------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector3D) Eq(other Vector3D) bool {
	return math.Abs(v.X-other.X) <= Epsilon &&
		math.Abs(v.Y-other.Y) <= Epsilon &&
		math.Abs(v.Z-other.Z) <= Epsilon
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
