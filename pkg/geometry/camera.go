package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a perspective camera orbiting the origin. It looks at the origin
// from Distance away, turned by Yaw around +Y and tilted by Pitch.
type Camera struct {
	Yaw, Pitch float64 // radians
	Distance   float64
	Focal      float64 // pixels per unit at depth 1
	CenterX    float64 // screen position of the origin
	CenterY    float64
}

// nearPlane is the closest depth that still projects.
const nearPlane = 0.1

// View moves p into camera space: +X right, +Y up, +Z away from the viewer.
func (c Camera) View(p Vector3D) Vector3D {
	v := r3.NewRotation(-c.Yaw, r3.Vec{Y: 1}).Rotate(p.r3())
	v = r3.NewRotation(-c.Pitch, r3.Vec{X: 1}).Rotate(v)
	v.Z += c.Distance
	return Vector3D(v)
}

// Project returns the screen position of p and its depth. ok is false for
// points behind the near plane.
func (c Camera) Project(p Vector3D) (x, y, depth float64, ok bool) {
	v := c.View(p)
	if v.Z < nearPlane {
		return 0, 0, v.Z, false
	}
	f := c.Focal / v.Z
	return c.CenterX + v.X*f, c.CenterY - v.Y*f, v.Z, true
}

// Scale is how many pixels one unit spans at the given depth.
func (c Camera) Scale(depth float64) float64 {
	return c.Focal / math.Max(depth, nearPlane)
}

// Orbit turns the camera; pitch stays short of the poles.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 2*math.Pi)
	c.Pitch = clamp(c.Pitch+dPitch, -1.5, 1.5)
}
