package geometry

import (
	"errors"
	"math"
	"math/rand/v2"
)

// Bounds is the tank: an axis-aligned box centred on the origin of the simulation frame.
type Bounds struct {
	HalfExtents       Vector3D // all components > 0
	WallThreshold     float64  // walls closer than this to the look-ahead point push back
	LookAheadDistance float64  // how far ahead along the heading the wall test is made
}

// NewBounds checks the box invariant and returns the bounds.
func NewBounds(halfExtents Vector3D, wallThreshold, lookAhead float64) (Bounds, error) {
	if !halfExtents.IsFinite() {
		return Bounds{}, errors.New("bounds half-extents must be finite")
	}
	if halfExtents.X <= 0 || halfExtents.Y <= 0 || halfExtents.Z <= 0 {
		return Bounds{}, errors.New("bounds half-extents must all be positive")
	}
	if !(wallThreshold > 0) || math.IsInf(wallThreshold, 0) {
		return Bounds{}, errors.New("wall threshold must be positive and finite")
	}
	if !(lookAhead >= 0) || math.IsInf(lookAhead, 0) {
		return Bounds{}, errors.New("look-ahead distance must be finite and not negative")
	}
	return Bounds{HalfExtents: halfExtents, WallThreshold: wallThreshold, LookAheadDistance: lookAhead}, nil
}

// Clamp clamps every axis of p independently into [-halfExtent, +halfExtent].
func (b Bounds) Clamp(p Vector3D) Vector3D {
	h := b.HalfExtents
	return Vector3D{
		X: clamp(p.X, -h.X, h.X),
		Y: clamp(p.Y, -h.Y, h.Y),
		Z: clamp(p.Z, -h.Z, h.Z),
	}
}

// Contains reports whether p lies inside the box, walls included.
func (b Bounds) Contains(p Vector3D) bool {
	h := b.HalfExtents
	return p.X >= -h.X && p.X <= h.X &&
		p.Y >= -h.Y && p.Y <= h.Y &&
		p.Z >= -h.Z && p.Z <= h.Z
}

// WallPressure projects the point pos + dir*LookAheadDistance and sums, over the six
// walls, a push along the wall's inward normal of (threshold - d) / threshold for each
// wall whose distance d to that point is below the threshold.
// The sum is not normalized; it grows linearly as the look-ahead point nears or
// crosses a wall.
func (b Bounds) WallPressure(pos, dir Vector3D) Vector3D {
	ahead := pos.Add(dir.Mul(b.LookAheadDistance))
	h := b.HalfExtents

	walls := [6]struct {
		distance float64
		normal   Vector3D
	}{
		{ahead.X + h.X, Right},   // -X wall
		{h.X - ahead.X, Left},    // +X wall
		{ahead.Y + h.Y, Up},      // -Y wall
		{h.Y - ahead.Y, Down},    // +Y wall
		{ahead.Z + h.Z, Forward}, // -Z wall
		{h.Z - ahead.Z, Back},    // +Z wall
	}

	var force Vector3D
	for _, w := range walls {
		if w.distance < b.WallThreshold {
			strength := (b.WallThreshold - w.distance) / b.WallThreshold
			force = force.Add(w.normal.Mul(strength))
		}
	}
	return force
}

// PredictiveAvoidance is the normalized WallPressure; it stays zero when no wall is near.
func (b Bounds) PredictiveAvoidance(pos, dir Vector3D) Vector3D {
	return b.WallPressure(pos, dir).Normalize()
}

// RandomPoint draws a point uniformly inside the box.
func (b Bounds) RandomPoint(rng *rand.Rand) Vector3D {
	h := b.HalfExtents
	return Vector3D{
		X: (rng.Float64()*2 - 1) * h.X,
		Y: (rng.Float64()*2 - 1) * h.Y,
		Z: (rng.Float64()*2 - 1) * h.Z,
	}
}

// RandomDirection draws a direction uniformly on the unit sphere.
func RandomDirection(rng *rand.Rand) Vector3D {
	for {
		v := Vector3D{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		if v.Len() > Epsilon {
			return v.Normalize()
		}
	}
}

// Corners returns the eight corners of the box.
// Index bit 0 selects +X, bit 1 selects +Z, bit 2 selects +Y.
func (b Bounds) Corners() [8]Vector3D {
	h := b.HalfExtents
	var c [8]Vector3D
	for i := range c {
		c[i] = Vector3D{X: -h.X, Y: -h.Y, Z: -h.Z}
		if i&1 != 0 {
			c[i].X = h.X
		}
		if i&2 != 0 {
			c[i].Z = h.Z
		}
		if i&4 != 0 {
			c[i].Y = h.Y
		}
	}
	return c
}

// Edges lists the twelve edges of the box as pairs of Corners indices.
func (b Bounds) Edges() [12][2]int {
	return [12][2]int{
		{0, 1}, {1, 3}, {3, 2}, {2, 0}, // bottom
		{4, 5}, {5, 7}, {7, 6}, {6, 4}, // top
		{0, 4}, {1, 5}, {2, 6}, {3, 7}, // vertical
	}
}
