package headless

import (
	"bytes"
	"context"
	"testing"

	"github.com/lao-tseu-is-alive/go-fishtank-simulation/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSim(t *testing.T, count int) *simulation.Simulation {
	t.Helper()
	cfg := simulation.DefaultConfig()
	cfg.Seed = 11
	cfg.FishCount = count
	sim, err := simulation.New(cfg)
	require.NoError(t, err)
	return sim
}

func TestParseEvents(t *testing.T) {
	events, err := ParseEvents([]string{"30:5", " 10 : 80 "}, []int{20, 0})
	require.NoError(t, err)
	assert.Equal(t, []Event{
		{Tick: 0, Population: -1, Scatter: true},
		{Tick: 10, Population: 80},
		{Tick: 20, Population: -1, Scatter: true},
		{Tick: 30, Population: 5},
	}, events)
}

func TestParseEvents_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		population []string
		scatter    []int
	}{
		{"NoColon", []string{"12"}, nil},
		{"BadTick", []string{"x:3"}, nil},
		{"NegativeCount", []string{"3:-1"}, nil},
		{"BadCount", []string{"3:many"}, nil},
		{"NegativeScatter", nil, []int{-2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvents(tt.population, tt.scatter)
			assert.ErrorIs(t, err, ErrBadSchedule)
		})
	}
}

func TestRun(t *testing.T) {
	sim := newSim(t, 10)
	var buf bytes.Buffer
	rec := telemetry.NewRecorder(&buf, 10)

	events, err := ParseEvents([]string{"20:30", "40:4"}, []int{25})
	require.NoError(t, err)
	stats, err := Run(context.Background(), sim, Plan{Ticks: 60, Dt: 1.0 / 60, Events: events}, rec)
	require.NoError(t, err)

	assert.EqualValues(t, 60, stats.Tick)
	assert.Equal(t, 4, stats.Population)
	assert.Equal(t, 4, stats.Target)
	assert.Equal(t, 6, rec.Rows())

	rows, err := telemetry.ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	// row i is tick 10*(i+1); the school grows before tick 21 and shrinks before tick 41
	assert.Equal(t, []int{10, 10, 30, 30, 4, 4}, []int{
		rows[0].Population, rows[1].Population, rows[2].Population,
		rows[3].Population, rows[4].Population, rows[5].Population,
	})
}

func TestRun_Cancelled(t *testing.T) {
	sim := newSim(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := Run(ctx, sim, Plan{Ticks: 100, Dt: 0.01}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Tick)
}

func TestRun_RejectsNonPositiveDt(t *testing.T) {
	_, err := Run(context.Background(), newSim(t, 1), Plan{Ticks: 1}, nil)
	assert.ErrorIs(t, err, ErrBadSchedule)
}
