package behavior

import (
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/geometry"
	"github.com/ojrac/opensimplex-go"
)

// WanderTimeScale slows simulation time down before it is fed to the noise,
// which keeps the wander direction low frequency.
const WanderTimeScale = 0.5

// SeedRange is the exclusive upper bound of a wander seed; seeds are drawn from [0, SeedRange).
const SeedRange = 100.0

// Wander turns per-fish seeds and the clock into a smoothly drifting direction.
type Wander struct {
	noise opensimplex.Noise
}

// NewWander creates a wander source. Every fish shares it; the fish's seeds
// pick its own track through the noise field.
func NewWander(seed int64) *Wander {
	return &Wander{noise: opensimplex.NewNormalized(seed)}
}

// Sample returns the raw noise for one axis, remapped from [0,1] to [-1,1].
func (w *Wander) Sample(seed, now float64) float64 {
	return w.noise.Eval2(seed, now*WanderTimeScale)*2 - 1
}

// Direction samples one noise track per axis and returns their normalized
// combination, or zero in the unlikely case all three samples cancel.
func (w *Wander) Direction(seeds [3]float64, now float64) geometry.Vector3D {
	return geometry.Vector3D{
		X: w.Sample(seeds[0], now),
		Y: w.Sample(seeds[1], now),
		Z: w.Sample(seeds[2], now),
	}.Normalize()
}
