package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Orientation is a unit quaternion describing how a fish model is turned.
// Local +Z is the model's nose, local +Y its back.
type Orientation quat.Number

// Identity is the orientation of a freshly spawned fish: nose along +Z.
var Identity = Orientation{Real: 1}

// LookRotation returns the orientation whose forward axis points along forward and
// whose up axis is as close as possible to up.
// A zero forward gives Identity; an up parallel to forward falls back to another axis.
func LookRotation(forward, up Vector3D) Orientation {
	f := forward.Normalize()
	if f.IsZero() {
		return Identity
	}
	r := up.Cross(f).Normalize()
	if r.IsZero() {
		r = f.Perpendicular()
	}
	u := f.Cross(r)

	// columns of the rotation matrix are r, u, f
	m00, m01, m02 := r.X, u.X, f.X
	m10, m11, m12 := r.Y, u.Y, f.Y
	m20, m21, m22 := r.Z, u.Z, f.Z

	var q quat.Number
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m21 - m12) * s, Jmag: (m02 - m20) * s, Kmag: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}
	return Orientation(q).normalized()
}

// Rotate applies the orientation to v.
func (o Orientation) Rotate(v Vector3D) Vector3D {
	return Vector3D(r3.Rotation(o).Rotate(v.r3()))
}

// Forward is the direction the model's nose points to.
func (o Orientation) Forward() Vector3D {
	return o.Rotate(Forward)
}

// Slerp interpolates along the shortest arc from o to target; t is clamped to [0, 1].
func (o Orientation) Slerp(target Orientation, t float64) Orientation {
	t = clamp(t, 0, 1)
	q0, q1 := quat.Number(o), quat.Number(target)

	dot := q0.Real*q1.Real + q0.Imag*q1.Imag + q0.Jmag*q1.Jmag + q0.Kmag*q1.Kmag
	if dot < 0 {
		q1 = quat.Scale(-1, q1)
		dot = -dot
	}
	if dot > 0.9995 {
		return Orientation(quat.Add(q0, quat.Scale(t, quat.Sub(q1, q0)))).normalized()
	}

	theta := math.Acos(dot)
	sin := math.Sin(theta)
	a := math.Sin((1-t)*theta) / sin
	b := math.Sin(t*theta) / sin
	return Orientation(quat.Add(quat.Scale(a, q0), quat.Scale(b, q1))).normalized()
}

// AngleTo returns the rotation angle in radians separating o from other.
func (o Orientation) AngleTo(other Orientation) float64 {
	q0, q1 := quat.Number(o), quat.Number(other)
	dot := math.Abs(q0.Real*q1.Real + q0.Imag*q1.Imag + q0.Jmag*q1.Jmag + q0.Kmag*q1.Kmag)
	return 2 * math.Acos(clamp(dot, 0, 1))
}

func (o Orientation) normalized() Orientation {
	q := quat.Number(o)
	n := quat.Abs(q)
	if n < Epsilon {
		return Identity
	}
	return Orientation(quat.Scale(1/n, q))
}
