package simulation

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/geometry"
	golog "github.com/tochemey/goakt/v3/log"
)

// bruteForceLimit is the school size up to which the neighbour scan skips the
// spatial grid; below it hashing costs more than it saves.
const bruteForceLimit = 64

// Simulation owns the school, the bubble pool and the clock. It is not safe for
// concurrent use: one goroutine (or one actor) drives it.
type Simulation struct {
	cfg      *Config
	bounds   geometry.Bounds
	settings behavior.Settings

	engine *behavior.Engine
	grid   *behavior.Grid
	rng    *rand.Rand
	logger golog.Logger

	fish  []*Fish
	flock []behavior.Boid // start-of-tick snapshot, reused
	pool  *BubblePool

	target         int
	pendingScatter bool
	elapsed        float64
	ticks          uint64
	nextID         int
}

// Snapshot is a self-contained copy of the tank at the end of a tick.
type Snapshot struct {
	Tick        uint64            `json:"tick"`
	Time        float64           `json:"time"`
	Target      int               `json:"target"`
	Fish        []FishState       `json:"fish"`
	Bubbles     []BubbleState     `json:"bubbles"`
	Pool        PoolStats         `json:"pool"`
	HalfExtents geometry.Vector3D `json:"halfExtents"`
}

// Option configures a Simulation at construction.
type Option func(*Simulation)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l golog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRand replaces the generator used for spawning, scattering and bubbles.
// Config.Seed still seeds the wander noise.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulation) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// New validates cfg and spawns the initial school. A nil cfg means DefaultConfig.
func New(cfg *Config, opts ...Option) (*Simulation, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bounds, err := cfg.Bounds()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Simulation{
		cfg:      cfg.Clone(),
		bounds:   bounds,
		settings: cfg.Settings(),
		engine:   behavior.NewEngine(seed),
		grid:     behavior.NewGrid(),
		rng:      rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)),
		logger:   golog.DiscardLogger,
		pool:     NewBubblePool(),
		target:   cfg.FishCount,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.resize()
	s.logger.Infof("tank %v ready with %d fish (seed %d)", bounds.HalfExtents, len(s.fish), seed)
	return s, nil
}

// Tick advances the tank by dt seconds. Pending resize and scatter requests are
// applied first, even when dt is not positive; in that case nothing else moves.
func (s *Simulation) Tick(dt float64) {
	s.resize()
	if s.pendingScatter {
		s.scatter()
		s.pendingScatter = false
	}
	if dt <= 0 {
		return
	}

	s.elapsed += dt
	s.ticks++
	s.pool.Advance(dt)

	s.flock = s.flock[:0]
	for _, f := range s.fish {
		s.flock = append(s.flock, f.boid())
	}
	useGrid := len(s.flock) > bruteForceLimit
	if useGrid {
		s.grid.Rebuild(s.flock, s.settings.NeighborDistance)
	}

	for i, f := range s.fish {
		var steer behavior.Steering
		if useGrid {
			steer = s.engine.ComputeNear(i, s.flock, s.grid, s.bounds, s.settings, s.elapsed)
		} else {
			steer = s.engine.Compute(i, s.flock, s.bounds, s.settings, s.elapsed)
		}
		f.integrate(steer.Force, dt, s.cfg, s.bounds)

		if s.cfg.EnableTrails {
			s.pool.Emit(f, dt, s.cfg, s.rng)
		}
	}
}

// SetTargetPopulation asks for n fish. The school is resized at the start of the next tick.
func (s *Simulation) SetTargetPopulation(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: target population %d is negative", ErrInvalidConfiguration, n)
	}
	s.target = n
	if s.cfg.FishCount != n {
		cfg := s.cfg.Clone()
		cfg.FishCount = n
		s.cfg = cfg
	}
	return nil
}

// Scatter asks for every fish to be thrown to a random place, heading and the base
// speed at the start of the next tick. Bubble trails are left as they are.
func (s *Simulation) Scatter() {
	s.pendingScatter = true
}

// SetConfig swaps the tuning of a running tank. The population target follows
// cfg.FishCount. Seed is only read by New.
func (s *Simulation) SetConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	bounds, err := cfg.Bounds()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	s.cfg = cfg.Clone()
	if bounds != s.bounds {
		for _, f := range s.fish {
			f.position = bounds.Clamp(f.position)
		}
	}
	s.bounds = bounds
	s.settings = cfg.Settings()
	if s.target != cfg.FishCount {
		s.logger.Debugf("population target %d -> %d", s.target, cfg.FishCount)
		s.target = cfg.FishCount
	}
	s.logger.Debug("configuration updated")
	return nil
}

// Config returns a copy of the configuration in use.
func (s *Simulation) Config() *Config {
	return s.cfg.Clone()
}

func (s *Simulation) Bounds() geometry.Bounds { return s.bounds }
func (s *Simulation) Population() int         { return len(s.fish) }
func (s *Simulation) Target() int             { return s.target }
func (s *Simulation) Time() float64           { return s.elapsed }
func (s *Simulation) Ticks() uint64           { return s.ticks }
func (s *Simulation) PoolStats() PoolStats    { return s.pool.Stats() }

// Fish returns the pose of every fish.
func (s *Simulation) Fish() []FishState {
	out := make([]FishState, len(s.fish))
	for i, f := range s.fish {
		out[i] = f.State()
	}
	return out
}

// Bubbles returns every active bubble.
func (s *Simulation) Bubbles() []BubbleState {
	return s.pool.Live()
}

// Snapshot copies the tank as it stands after the last tick.
func (s *Simulation) Snapshot() *Snapshot {
	return &Snapshot{
		Tick:        s.ticks,
		Time:        s.elapsed,
		Target:      s.target,
		Fish:        s.Fish(),
		Bubbles:     s.Bubbles(),
		Pool:        s.pool.Stats(),
		HalfExtents: s.bounds.HalfExtents,
	}
}

// resize adds or removes fish until the school matches the target. New fish are
// appended; removal is from the tail and releases the fish's bubbles.
func (s *Simulation) resize() {
	before := len(s.fish)
	for len(s.fish) < s.target {
		s.spawn()
	}
	for len(s.fish) > s.target {
		s.removeLast()
	}
	if before != len(s.fish) {
		s.logger.Debugf("population %d -> %d", before, len(s.fish))
	}
}

func (s *Simulation) spawn() {
	s.nextID++
	seeds := [3]float64{
		s.rng.Float64() * behavior.SeedRange,
		s.rng.Float64() * behavior.SeedRange,
		s.rng.Float64() * behavior.SeedRange,
	}
	s.fish = append(s.fish, newFish(s.nextID, s.bounds.RandomPoint(s.rng), seeds, s.cfg))
}

func (s *Simulation) removeLast() {
	last := len(s.fish) - 1
	for _, h := range s.fish[last].trail {
		s.pool.Release(h)
	}
	s.fish[last] = nil
	s.fish = s.fish[:last]
}

func (s *Simulation) scatter() {
	for _, f := range s.fish {
		f.position = s.bounds.RandomPoint(s.rng)
		f.heading = geometry.RandomDirection(s.rng)
		f.speed = s.cfg.BaseSpeed
	}
	s.logger.Infof("scattered %d fish", len(s.fish))
}
