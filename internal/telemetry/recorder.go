package telemetry

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/gocarina/gocsv"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/simulation"
	"gopkg.in/yaml.v3"
)

// Recorder streams TankStats rows as CSV and keeps them for plotting. Only
// every Nth tick is kept.
type Recorder struct {
	out           io.Writer
	every         uint64
	headerWritten bool
	history       []TankStats
}

// NewRecorder writes to out, sampling one snapshot every `every` ticks
// (values below 1 record every tick). A nil out only collects rows.
func NewRecorder(out io.Writer, every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{out: out, every: uint64(every)}
}

// Record summarizes snap and writes it when its tick is due.
// It reports whether a row was written.
func (r *Recorder) Record(snap *simulation.Snapshot) (bool, error) {
	if snap.Tick%r.every != 0 {
		return false, nil
	}
	stats := Summarize(snap)
	records := []TankStats{stats}

	switch {
	case r.out == nil:
	case !r.headerWritten:
		if err := gocsv.Marshal(records, r.out); err != nil {
			return false, fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
	default:
		if err := gocsv.MarshalWithoutHeaders(records, r.out); err != nil {
			return false, fmt.Errorf("writing telemetry: %w", err)
		}
	}
	r.history = append(r.history, stats)
	return true, nil
}

// Rows is the number of rows recorded so far.
func (r *Recorder) Rows() int { return len(r.history) }

// Last returns the most recently recorded row.
func (r *Recorder) Last() TankStats {
	if len(r.history) == 0 {
		return TankStats{}
	}
	return r.history[len(r.history)-1]
}

// History returns a copy of every recorded row.
func (r *Recorder) History() []TankStats {
	return slices.Clone(r.history)
}

// WriteConfig saves the configuration a run used, next to its telemetry.
func WriteConfig(path string, cfg *simulation.Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ReadRows parses a CSV previously written by a Recorder.
func ReadRows(in io.Reader) ([]TankStats, error) {
	var rows []TankStats
	if err := gocsv.Unmarshal(in, &rows); err != nil {
		return nil, fmt.Errorf("reading telemetry: %w", err)
	}
	return rows, nil
}
