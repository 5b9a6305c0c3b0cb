package telemetry

import (
	"math"

	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/simulation"
)

// TankStats summarizes one snapshot of the tank.
type TankStats struct {
	Tick       uint64  `csv:"tick"`
	Time       float64 `csv:"time"`
	Population int     `csv:"population"`
	Target     int     `csv:"target"`

	MeanSpeed float64 `csv:"mean_speed"`
	MinSpeed  float64 `csv:"min_speed"`
	MaxSpeed  float64 `csv:"max_speed"`

	// Polarization is the length of the mean heading: 1 when every fish swims the
	// same way, near 0 for a disordered school.
	Polarization float64 `csv:"polarization"`
	// Spread is the mean distance of a fish to the school's centroid.
	Spread float64 `csv:"spread"`

	ActiveBubbles int `csv:"active_bubbles"`
	FreeBubbles   int `csv:"free_bubbles"`
	TotalBubbles  int `csv:"total_bubbles"`
}

// Summarize computes the statistics of snap. An empty tank gives zero fish stats.
func Summarize(snap *simulation.Snapshot) TankStats {
	st := TankStats{
		Tick:          snap.Tick,
		Time:          snap.Time,
		Population:    len(snap.Fish),
		Target:        snap.Target,
		ActiveBubbles: snap.Pool.Active,
		FreeBubbles:   snap.Pool.Free,
		TotalBubbles:  snap.Pool.Total,
	}
	if len(snap.Fish) == 0 {
		return st
	}

	n := float64(len(snap.Fish))
	st.MinSpeed = math.Inf(1)
	st.MaxSpeed = math.Inf(-1)
	var speedSum float64
	var headingSum, positionSum geometry.Vector3D
	for _, f := range snap.Fish {
		speedSum += f.Speed
		st.MinSpeed = math.Min(st.MinSpeed, f.Speed)
		st.MaxSpeed = math.Max(st.MaxSpeed, f.Speed)
		headingSum = headingSum.Add(f.Heading)
		positionSum = positionSum.Add(f.Position)
	}
	st.MeanSpeed = speedSum / n
	st.Polarization = headingSum.Mul(1 / n).Len()

	centroid := positionSum.Mul(1 / n)
	var spread float64
	for _, f := range snap.Fish {
		spread += f.Position.DistanceTo(centroid)
	}
	st.Spread = spread / n
	return st
}
