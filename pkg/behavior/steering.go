package behavior

import (
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/geometry"
)

// Boid is what one fish exposes to its neighbours during a tick.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// https://en.wikipedia.org/wiki/Boids
// The steering engine only ever sees a slice of these taken at the start of the tick,
// so no fish reacts to a neighbour that has already moved this tick.
type Boid struct {
	Position geometry.Vector3D
	Heading  geometry.Vector3D
	Seeds    [3]float64 // wander noise seeds, one per axis
}

// Settings controls the steering rules.
// It is passed by value on every call, so rules can be retuned between ticks
// without any shared state.
type Settings struct {
	NeighborDistance float64

	EnableCohesion      bool // flock centering
	EnableSeparation    bool // collision avoidance
	EnableAlignment     bool // velocity matching
	EnableWandering     bool
	EnableWallAvoidance bool

	CohesionWeight      float64
	SeparationWeight    float64
	AlignmentWeight     float64
	WanderingWeight     float64
	WallAvoidanceWeight float64 // applied once, when the wall force is computed

	WanderingStrength float64
}

// Steering holds every contribution of one Compute call.
// Cohesion and Alignment are unit (or zero) vectors, Separation is the raw
// inverse-square sum, Wander already includes WanderingStrength and WallAvoidance
// already includes WallAvoidanceWeight. Force is the unit (or zero) combination.
type Steering struct {
	Cohesion      geometry.Vector3D
	Separation    geometry.Vector3D
	Alignment     geometry.Vector3D
	Wander        geometry.Vector3D
	WallAvoidance geometry.Vector3D
	Neighbors     int
	Force         geometry.Vector3D
}

// minSeparationSq guards the inverse-square term against coincident fish.
const minSeparationSq = 1e-12

// Engine computes steering forces. It is stateless apart from its noise source.
type Engine struct {
	wander *Wander
}

// NewEngine creates a steering engine whose wander noise is derived from seed.
func NewEngine(seed int64) *Engine {
	return &Engine{wander: NewWander(seed)}
}

// Compute calculates the steering of flock[self] against the rest of the flock.
// now is the simulation time in seconds, it drives the wander noise.
func (e *Engine) Compute(self int, flock []Boid, bounds geometry.Bounds, s Settings, now float64) Steering {
	return e.compute(self, flock, nil, bounds, s, now)
}

// ComputeNear is Compute restricted to the fish grid reports around flock[self].
// The grid must have been rebuilt from this flock with a cell size of at least
// NeighborDistance, otherwise neighbours are missed.
func (e *Engine) ComputeNear(self int, flock []Boid, grid *Grid, bounds geometry.Bounds, s Settings, now float64) Steering {
	return e.compute(self, flock, grid.Near(flock[self].Position), bounds, s, now)
}

// compute scans candidates, or the whole flock when candidates is nil.
func (e *Engine) compute(self int, flock []Boid, candidates []int, bounds geometry.Bounds, s Settings, now float64) Steering {
	me := flock[self]
	var out Steering

	if s.EnableCohesion || s.EnableSeparation || s.EnableAlignment {
		var posSum, headingSum geometry.Vector3D
		rangeSq := s.NeighborDistance * s.NeighborDistance

		n := len(flock)
		if candidates != nil {
			n = len(candidates)
		}
		for k := 0; k < n; k++ {
			i := k
			if candidates != nil {
				i = candidates[k]
			}
			if i == self {
				continue
			}
			other := flock[i]
			offset := other.Position.Sub(me.Position)
			distSq := offset.LenSqr()
			if distSq >= rangeSq {
				continue
			}

			if s.EnableCohesion {
				posSum = posSum.Add(other.Position)
			}
			// coincident fish have no direction to push along
			if s.EnableSeparation && distSq > minSeparationSq {
				out.Separation = out.Separation.Sub(offset.Mul(1 / distSq))
			}
			if s.EnableAlignment {
				headingSum = headingSum.Add(other.Heading)
			}
			out.Neighbors++
		}

		if out.Neighbors > 0 {
			n := float64(out.Neighbors)
			if s.EnableCohesion {
				out.Cohesion = posSum.Mul(1 / n).Sub(me.Position).Normalize()
			}
			if s.EnableAlignment {
				out.Alignment = headingSum.Mul(1 / n).Normalize()
			}
		}
	}

	if s.EnableWandering {
		out.Wander = e.wander.Direction(me.Seeds, now).Mul(s.WanderingStrength)
	}

	if s.EnableWallAvoidance {
		out.WallAvoidance = bounds.PredictiveAvoidance(me.Position, me.Heading).Mul(s.WallAvoidanceWeight)
	}

	var total geometry.Vector3D
	if s.EnableCohesion {
		total = total.Add(out.Cohesion.Mul(s.CohesionWeight))
	}
	if s.EnableSeparation {
		total = total.Add(out.Separation.Mul(s.SeparationWeight))
	}
	if s.EnableAlignment {
		total = total.Add(out.Alignment.Mul(s.AlignmentWeight))
	}
	if s.EnableWandering {
		total = total.Add(out.Wander.Mul(s.WanderingWeight))
	}
	if s.EnableWallAvoidance {
		total = total.Add(out.WallAvoidance)
	}

	out.Force = total.Normalize()
	return out
}
