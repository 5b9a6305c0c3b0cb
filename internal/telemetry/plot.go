package telemetry

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoRows is returned when there is nothing to plot.
var ErrNoRows = errors.New("no telemetry rows")

type series struct {
	label string
	color color.Color
	value func(TankStats) float64
}

type chart struct {
	file   string
	title  string
	yLabel string
	series []series
}

var (
	blue   = color.RGBA{R: 30, G: 100, B: 200, A: 255}
	orange = color.RGBA{R: 230, G: 120, B: 20, A: 255}
	grey   = color.RGBA{R: 140, G: 140, B: 140, A: 255}
)

var charts = []chart{
	{"order.png", "School order", "", []series{
		{"polarization", blue, func(s TankStats) float64 { return s.Polarization }},
	}},
	{"spread.png", "School spread", "mean distance to centroid", []series{
		{"spread", orange, func(s TankStats) float64 { return s.Spread }},
	}},
	{"speed.png", "Swimming speed", "units/s", []series{
		{"mean", blue, func(s TankStats) float64 { return s.MeanSpeed }},
		{"min", grey, func(s TankStats) float64 { return s.MinSpeed }},
		{"max", orange, func(s TankStats) float64 { return s.MaxSpeed }},
	}},
	{"bubbles.png", "Bubble pool", "bubbles", []series{
		{"active", blue, func(s TankStats) float64 { return float64(s.ActiveBubbles) }},
		{"slots", grey, func(s TankStats) float64 { return float64(s.TotalBubbles) }},
	}},
}

// PlotRows renders the recorded rows as PNG charts over simulated time in dir,
// which is created if needed. It returns the paths it wrote.
func PlotRows(rows []TankStats, dir string) ([]string, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("plot directory: %w", err)
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		p := plot.New()
		p.Title.Text = c.title
		p.X.Label.Text = "time (s)"
		p.Y.Label.Text = c.yLabel

		for _, s := range c.series {
			pts := make(plotter.XYs, len(rows))
			for i, r := range rows {
				pts[i] = plotter.XY{X: r.Time, Y: s.value(r)}
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return paths, fmt.Errorf("%s: %w", c.file, err)
			}
			line.Color = s.color
			line.Width = vg.Points(1)
			p.Add(line)
			p.Legend.Add(s.label, line)
		}

		path := filepath.Join(dir, c.file)
		if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("saving %s: %w", c.file, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
