package simulation

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 1.0 / 60

func newTestSimulation(t testing.TB, mutate func(*Config)) *Simulation {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = 42
	if mutate != nil {
		mutate(cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func disableAllRules(c *Config) {
	c.EnableCohesion = false
	c.EnableSeparation = false
	c.EnableAlignment = false
	c.EnableWandering = false
	c.EnableWallAvoidance = false
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HalfExtents.Y = 0
	_, err := New(cfg)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration), "got %v", err)
}

func TestNew_SpawnsSchool(t *testing.T) {
	s := newTestSimulation(t, nil)
	cfg := s.Config()

	require.Equal(t, cfg.FishCount, s.Population())
	assert.Equal(t, cfg.FishCount, s.Target())
	ids := make(map[int]bool)
	for _, f := range s.Fish() {
		assert.True(t, s.Bounds().Contains(f.Position), "fish %d spawned at %v", f.ID, f.Position)
		assert.Equal(t, geometry.Forward, f.Heading)
		assert.Equal(t, cfg.BaseSpeed, f.Speed)
		assert.False(t, ids[f.ID], "duplicate id %d", f.ID)
		ids[f.ID] = true
	}
	for _, f := range s.fish {
		for _, seed := range f.Seeds() {
			assert.GreaterOrEqual(t, seed, 0.0)
			assert.Less(t, seed, 100.0)
		}
	}
}

func TestTick_SpeedAndBoundsInvariants(t *testing.T) {
	tests := []struct {
		name  string
		count int
	}{
		{"SmallSchool", 20},
		{"GridSchool", 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSimulation(t, func(c *Config) { c.FishCount = tt.count })
			cfg := s.Config()
			for tick := 0; tick < 240; tick++ {
				s.Tick(frame)
				for _, f := range s.Fish() {
					require.GreaterOrEqual(t, f.Speed, cfg.MinSpeed, "tick %d fish %d", tick, f.ID)
					require.LessOrEqual(t, f.Speed, cfg.MaxSpeed, "tick %d fish %d", tick, f.ID)
					require.True(t, s.Bounds().Contains(f.Position), "tick %d fish %d at %v", tick, f.ID, f.Position)
					require.InDelta(t, 1, f.Heading.Len(), 1e-9, "tick %d fish %d", tick, f.ID)
				}
			}
			assert.EqualValues(t, 240, s.Ticks())
			assert.InDelta(t, 4, s.Time(), 1e-9)
		})
	}
}

func TestTick_AllRulesDisabledKeepsHeadingAndSpeed(t *testing.T) {
	s := newTestSimulation(t, disableAllRules)
	for i := 0; i < 120; i++ {
		s.Tick(frame)
	}
	for _, f := range s.Fish() {
		assert.Equal(t, geometry.Forward, f.Heading)
		assert.Equal(t, s.Config().BaseSpeed, f.Speed)
		// swimming along +Z for two seconds at 3.5 pins most of them to the far wall
		assert.LessOrEqual(t, f.Position.Z, s.Bounds().HalfExtents.Z)
	}
}

func TestTick_IsolatedFishKeepsHeading(t *testing.T) {
	s := newTestSimulation(t, func(c *Config) {
		disableAllRules(c)
		c.EnableCohesion = true
		c.FishCount = 2
	})
	s.fish[0].position = geometry.NewVector(-4, 0, 0)
	s.fish[1].position = geometry.NewVector(4, 0, 0)

	s.Tick(frame)

	for _, f := range s.Fish() {
		assert.Equal(t, geometry.Forward, f.Heading)
	}
}

func TestTick_NeighboursTurnTheHeading(t *testing.T) {
	s := newTestSimulation(t, func(c *Config) {
		disableAllRules(c)
		c.EnableCohesion = true
		c.FishCount = 2
	})
	s.fish[0].position = geometry.NewVector(-1, 0, 0)
	s.fish[1].position = geometry.NewVector(1, 0, 0)

	s.Tick(frame)

	// both turned toward each other, and sped up by the unit force
	assert.Greater(t, s.fish[0].heading.X, 0.0)
	assert.Less(t, s.fish[1].heading.X, 0.0)
	assert.Greater(t, s.fish[0].speed, s.Config().BaseSpeed)
}

func TestTick_ReadsTheSchoolAsItWasAtTheStart(t *testing.T) {
	type pose struct {
		Position, Heading geometry.Vector3D
		Speed             float64
	}
	byID := func(s *Simulation) map[int]pose {
		out := make(map[int]pose, s.Population())
		for _, f := range s.Fish() {
			out[f.ID] = pose{f.Position, f.Heading, f.Speed}
		}
		return out
	}

	for _, count := range []int{24, 2 * bruteForceLimit} {
		mutate := func(c *Config) {
			c.FishCount = count
			c.HalfExtents = geometry.NewVector(3, 2, 3)
			c.EnableTrails = false
		}
		forward := newTestSimulation(t, mutate)
		reversed := newTestSimulation(t, mutate)
		slices.Reverse(reversed.fish)
		require.Equal(t, byID(forward), byID(reversed))

		forward.Tick(frame)
		reversed.Tick(frame)

		if diff := cmp.Diff(byID(forward), byID(reversed), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("%d fish: result depends on update order (-forward +reversed):\n%s", count, diff)
		}
	}
}

func TestTick_ZeroDtOnlyAppliesEvents(t *testing.T) {
	s := newTestSimulation(t, nil)
	before := s.Fish()
	require.NoError(t, s.SetTargetPopulation(10))

	s.Tick(0)

	assert.Equal(t, 10, s.Population())
	assert.Equal(t, before[:10], s.Fish(), "surviving fish must not move")
	assert.Zero(t, s.Ticks())
	assert.Zero(t, s.Time())
}

func TestSetTargetPopulation(t *testing.T) {
	tests := []struct {
		name   string
		target int
	}{
		{"Grow", 80},
		{"Shrink", 7},
		{"Empty", 0},
		{"Same", 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSimulation(t, nil)
			require.NoError(t, s.SetTargetPopulation(tt.target))
			assert.Equal(t, 50, s.Population(), "resize waits for the next tick")

			s.Tick(frame)

			assert.Equal(t, tt.target, s.Population())
			assert.Equal(t, tt.target, s.Target())
			assert.Equal(t, tt.target, s.Config().FishCount)
		})
	}
}

func TestSetTargetPopulation_Negative(t *testing.T) {
	s := newTestSimulation(t, nil)
	err := s.SetTargetPopulation(-1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Equal(t, 50, s.Target())
}

func TestSetTargetPopulation_ReleasesTrails(t *testing.T) {
	s := newTestSimulation(t, nil)
	for i := 0; i < 90; i++ { // 1.5s: every fish has emitted at least once
		s.Tick(frame)
	}
	before := s.PoolStats()
	require.Positive(t, before.Active)

	require.NoError(t, s.SetTargetPopulation(5))
	s.Tick(0)

	after := s.PoolStats()
	assert.Equal(t, before.Total, after.Total, "slots are never freed")
	assert.GreaterOrEqual(t, after.Free, before.Free)
	assert.Less(t, after.Active, before.Active)
	for _, f := range s.fish {
		for _, h := range f.trail {
			assert.True(t, s.pool.Valid(h), "surviving fish lost bubble %v", h)
		}
	}
}

func TestScatter(t *testing.T) {
	s := newTestSimulation(t, nil)
	for i := 0; i < 60; i++ {
		s.Tick(frame)
	}
	for _, f := range s.fish {
		f.speed = s.Config().MaxSpeed
	}
	pool := s.PoolStats()
	bubbles := s.Bubbles()

	s.Scatter()
	s.Tick(0)

	for _, f := range s.Fish() {
		assert.Equal(t, s.Config().BaseSpeed, f.Speed)
		assert.True(t, s.Bounds().Contains(f.Position))
		assert.InDelta(t, 1, f.Heading.Len(), 1e-9)
	}
	assert.Equal(t, pool, s.PoolStats(), "scatter leaves trails alone")
	assert.Equal(t, bubbles, s.Bubbles())
}

func TestSetConfig(t *testing.T) {
	s := newTestSimulation(t, nil)

	bad := s.Config()
	bad.MinSpeed, bad.MaxSpeed = 6, 4
	err := s.SetConfig(bad)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Equal(t, 2.0, s.Config().MinSpeed, "rejected config must not be applied")
	assert.ErrorIs(t, s.SetConfig(nil), ErrInvalidConfiguration)

	good := s.Config()
	good.MaxSpeed = 3
	good.BaseSpeed = 2.5
	good.FishCount = 12
	require.NoError(t, s.SetConfig(good))
	good.MaxSpeed = 100 // the simulation keeps its own copy
	s.Tick(frame)

	assert.Equal(t, 12, s.Population())
	for _, f := range s.Fish() {
		assert.LessOrEqual(t, f.Speed, 3.0)
	}
}

func TestSetConfig_ShrinkingTankClampsTheSchool(t *testing.T) {
	s := newTestSimulation(t, func(c *Config) { c.FishCount = 50 })
	for i := 0; i < 10; i++ {
		s.Tick(frame)
	}

	small := s.Config()
	small.HalfExtents = geometry.NewVector(1, 1, 1)
	small.WallThreshold = 0.5
	small.LookAheadDistance = 0.5
	require.NoError(t, s.SetConfig(small))

	for _, f := range s.Fish() {
		assert.True(t, s.Bounds().Contains(f.Position), "fish %d at %v is outside the tank", f.ID, f.Position)
	}
	for _, f := range s.Snapshot().Fish {
		assert.True(t, s.Bounds().Contains(f.Position), "fish %d at %v is outside the tank", f.ID, f.Position)
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestSimulation(t, nil)
	for i := 0; i < 45; i++ {
		s.Tick(frame)
	}
	snap := s.Snapshot()

	assert.Equal(t, s.Ticks(), snap.Tick)
	assert.Equal(t, s.Time(), snap.Time)
	assert.Len(t, snap.Fish, s.Population())
	assert.Len(t, snap.Bubbles, snap.Pool.Active)
	assert.Equal(t, s.Bounds().HalfExtents, snap.HalfExtents)

	// the snapshot is a copy
	snap.Fish[0].Speed = -1
	assert.NotEqual(t, -1.0, s.Fish()[0].Speed)
}

func TestTick_TrailsDisabled(t *testing.T) {
	s := newTestSimulation(t, func(c *Config) { c.EnableTrails = false })
	for i := 0; i < 120; i++ {
		s.Tick(frame)
	}
	assert.Equal(t, PoolStats{}, s.PoolStats())
}

func BenchmarkSimulation_Tick(b *testing.B) {
	s := newTestSimulation(b, func(c *Config) { c.FishCount = 500 })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Tick(frame)
	}
}
