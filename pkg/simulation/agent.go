package simulation

import (
	"math"

	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/geometry"
)

// Fish is one member of the school. It is owned by a Simulation and only
// mutated from inside Tick.
type Fish struct {
	id       int
	position geometry.Vector3D
	heading  geometry.Vector3D // unit
	speed    float64
	facing   geometry.Orientation

	seeds [3]float64 // wander noise tracks, fixed at birth

	trailTimer float64
	trail      []BubbleHandle // oldest first
}

// FishState is a copy of what the presentation layer needs to draw a fish.
type FishState struct {
	ID       int                  `json:"id"`
	Position geometry.Vector3D    `json:"position"`
	Heading  geometry.Vector3D    `json:"heading"`
	Speed    float64              `json:"speed"`
	Facing   geometry.Orientation `json:"-"`
}

func newFish(id int, position geometry.Vector3D, seeds [3]float64, cfg *Config) *Fish {
	return &Fish{
		id:         id,
		position:   position,
		heading:    geometry.Forward,
		speed:      cfg.BaseSpeed,
		facing:     geometry.Identity,
		seeds:      seeds,
		trailTimer: cfg.BubbleSpawnInterval,
		trail:      make([]BubbleHandle, 0, cfg.MaxBubblesPerTrail+1),
	}
}

func (f *Fish) ID() int                      { return f.id }
func (f *Fish) Position() geometry.Vector3D  { return f.position }
func (f *Fish) Heading() geometry.Vector3D   { return f.heading }
func (f *Fish) Speed() float64               { return f.speed }
func (f *Fish) Facing() geometry.Orientation { return f.facing }
func (f *Fish) Seeds() [3]float64            { return f.seeds }

// Trail returns the handles of the bubbles the fish still tracks, oldest first.
func (f *Fish) Trail() []BubbleHandle {
	return append([]BubbleHandle(nil), f.trail...)
}

func (f *Fish) State() FishState {
	return FishState{ID: f.id, Position: f.position, Heading: f.heading, Speed: f.speed, Facing: f.facing}
}

func (f *Fish) boid() behavior.Boid {
	return behavior.Boid{Position: f.position, Heading: f.heading, Seeds: f.seeds}
}

// integrate applies one tick of steering. A zero force leaves the heading alone.
func (f *Fish) integrate(force geometry.Vector3D, dt float64, cfg *Config, bounds geometry.Bounds) {
	acceleration := force.Len() * cfg.AccelerationMultiplier
	f.speed = math.Max(cfg.MinSpeed, math.Min(cfg.MaxSpeed, f.speed+acceleration*dt))

	turn := dt * cfg.RotationSpeed
	if !force.IsZero() {
		if h := f.heading.Slerp(force, turn).Normalize(); !h.IsZero() {
			f.heading = h
		}
	}

	f.position = bounds.Clamp(f.position.Add(f.heading.Mul(f.speed * dt)))
	f.facing = f.facing.Slerp(geometry.LookRotation(f.heading, geometry.Up), turn)
}
