// Package headless drives a Simulation without a window, for batch runs and
// telemetry capture.
package headless

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lao-tseu-is-alive/go-fishtank-simulation/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/simulation"
)

// ErrBadSchedule is returned for malformed --population-at / --scatter-at values.
var ErrBadSchedule = errors.New("bad schedule")

// Event is a request applied just before the tank advances past Tick.
// Tick 0 means before the first step.
type Event struct {
	Tick       uint64
	Population int // ignored when negative
	Scatter    bool
}

// Plan describes one headless run.
type Plan struct {
	Ticks  uint64
	Dt     float64
	Events []Event
}

// ParseEvents builds a schedule from "tick:count" population changes and
// scatter ticks. The result is sorted by tick.
func ParseEvents(populationAt []string, scatterAt []int) ([]Event, error) {
	events := make([]Event, 0, len(populationAt)+len(scatterAt))
	for _, entry := range populationAt {
		tickStr, countStr, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not tick:count", ErrBadSchedule, entry)
		}
		tick, err := strconv.ParseUint(strings.TrimSpace(tickStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: tick in %q: %w", ErrBadSchedule, entry, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil || count < 0 {
			return nil, fmt.Errorf("%w: count in %q must be a non-negative integer", ErrBadSchedule, entry)
		}
		events = append(events, Event{Tick: tick, Population: count})
	}
	for _, tick := range scatterAt {
		if tick < 0 {
			return nil, fmt.Errorf("%w: scatter tick %d", ErrBadSchedule, tick)
		}
		events = append(events, Event{Tick: uint64(tick), Population: -1, Scatter: true})
	}
	slices.SortStableFunc(events, func(a, b Event) int {
		switch {
		case a.Tick < b.Tick:
			return -1
		case a.Tick > b.Tick:
			return 1
		}
		return 0
	})
	return events, nil
}

// Run steps sim plan.Ticks times, applying scheduled events and feeding every
// snapshot to rec (which may be nil). It stops early when ctx is cancelled and
// returns the summary of the last state either way.
func Run(ctx context.Context, sim *simulation.Simulation, plan Plan, rec *telemetry.Recorder) (telemetry.TankStats, error) {
	if plan.Dt <= 0 {
		return telemetry.TankStats{}, fmt.Errorf("%w: dt must be positive, got %v", ErrBadSchedule, plan.Dt)
	}
	next := 0
	for sim.Ticks() < plan.Ticks {
		if err := ctx.Err(); err != nil {
			return telemetry.Summarize(sim.Snapshot()), err
		}
		for ; next < len(plan.Events) && plan.Events[next].Tick <= sim.Ticks(); next++ {
			ev := plan.Events[next]
			if ev.Population >= 0 {
				if err := sim.SetTargetPopulation(ev.Population); err != nil {
					return telemetry.Summarize(sim.Snapshot()), err
				}
			}
			if ev.Scatter {
				sim.Scatter()
			}
		}

		sim.Tick(plan.Dt)

		if rec != nil {
			if _, err := rec.Record(sim.Snapshot()); err != nil {
				return telemetry.Summarize(sim.Snapshot()), err
			}
		}
	}
	return telemetry.Summarize(sim.Snapshot()), nil
}
