// Package animation holds the cosmetic fish motion that the renderer layers on
// top of the simulated pose. Nothing here feeds back into the simulation.
package animation

import (
	"hash/fnv"
	"math"
)

// TailSwing is a sine wave travelling down a three-segment tail, with a small
// counter-rotation of the body.
type TailSwing struct {
	Amplitude      float64 // radians, at the tail base
	Frequency      float64 // full swings per second
	BodyMultiplier float64
}

// Pose is the yaw of each segment relative to its parent, in radians.
type Pose struct {
	Body, Base, Mid, Tip float64
}

// DefaultTailSwing swings 30 degrees twice a second.
func DefaultTailSwing() TailSwing {
	return TailSwing{
		Amplitude:      30 * math.Pi / 180,
		Frequency:      2,
		BodyMultiplier: 0.1,
	}
}

// At returns the pose at time t (seconds) for a fish with the given phase.
func (s TailSwing) At(t, phase float64) Pose {
	a := math.Sin(t*s.Frequency*2*math.Pi+phase) * s.Amplitude
	return Pose{
		Body: -a * s.BodyMultiplier,
		Base: a,
		Mid:  a * 1.5,
		Tip:  a * 2,
	}
}

// Phase maps a fish id to a stable offset in [0, 2π), so neighbours do not
// beat in step.
func Phase(id int) float64 {
	h := fnv.New64a()
	var b [8]byte
	for i := range b {
		b[i] = byte(uint64(id) >> (8 * i))
	}
	_, _ = h.Write(b[:])
	return float64(h.Sum64()%1_000_000) / 1_000_000 * 2 * math.Pi
}
