package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/internal/headless"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/simulation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	colorTitle   = color.New(color.FgCyan, color.Bold)
	colorValue   = color.New(color.FgGreen)
	colorWarning = color.New(color.FgYellow)
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tank headless",
	Long: `Run the tank without a window for a fixed number of ticks, optionally
streaming per-tick statistics as CSV.

  fishtank run --ticks 3600 --csv school.csv --every 10 \
      --population-at 600:200 --scatter-at 1800`,
	RunE: runHeadless,
}

func init() {
	runCmd.Flags().Uint64("ticks", 600, "number of steps to simulate")
	runCmd.Flags().Float64("dt", 0.016, "seconds per step")
	runCmd.Flags().String("csv", "", "write telemetry rows to this file (- for stdout)")
	runCmd.Flags().Int("every", 1, "keep one telemetry row every N ticks")
	runCmd.Flags().StringSlice("population-at", nil, "change the population before a tick, as tick:count (repeatable)")
	runCmd.Flags().IntSlice("scatter-at", nil, "scatter the school before these ticks")
	runCmd.Flags().String("plot-dir", "", "write PNG charts of the telemetry into this directory")
	runCmd.Flags().String("save-config", "", "write the effective config to this YAML file")
	_ = viper.BindPFlags(runCmd.Flags())
}

func runHeadless(cmd *cobra.Command, _ []string) error {
	cfg, err := loadTankConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	events, err := headless.ParseEvents(viper.GetStringSlice("population-at"), viper.GetIntSlice("scatter-at"))
	if err != nil {
		return err
	}
	plan := headless.Plan{
		Ticks:  viper.GetUint64("ticks"),
		Dt:     viper.GetFloat64("dt"),
		Events: events,
	}

	if path := viper.GetString("save-config"); path != "" {
		if err := telemetry.WriteConfig(path, cfg); err != nil {
			return err
		}
	}

	sim, err := simulation.New(cfg, simulation.WithLogger(logger))
	if err != nil {
		return err
	}

	var rec *telemetry.Recorder
	csvPath, plotDir := viper.GetString("csv"), viper.GetString("plot-dir")
	if csvPath != "" || plotDir != "" {
		var out io.Writer
		if csvPath != "" {
			w, closeOut, err := openOutput(csvPath)
			if err != nil {
				return err
			}
			defer closeOut()
			out = w
		}
		rec = telemetry.NewRecorder(out, viper.GetInt("every"))
	}

	runID := uuid.NewString()
	logger.Infof("run %s: %d ticks of %.4fs with %d fish", runID, plan.Ticks, plan.Dt, cfg.FishCount)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	stats, err := headless.Run(ctx, sim, plan, rec)
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return err
	}

	summary := cmd.OutOrStdout()
	if csvPath == "-" {
		summary = cmd.ErrOrStderr()
	}
	printSummary(summary, runID, stats, rec, time.Since(started))
	if interrupted {
		colorWarning.Fprintf(summary, "interrupted after %d of %d ticks\n", stats.Tick, plan.Ticks)
	}

	if plotDir != "" {
		paths, err := telemetry.PlotRows(rec.History(), plotDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(summary, "  %-14s ", "chart")
			colorValue.Fprintln(summary, p)
		}
	}
	return nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func printSummary(w io.Writer, runID string, st telemetry.TankStats, rec *telemetry.Recorder, wall time.Duration) {
	colorTitle.Fprintf(w, "🐟 Tank summary (run %s)\n", runID)
	row := func(label, format string, args ...any) {
		fmt.Fprintf(w, "  %-14s ", label)
		colorValue.Fprintf(w, format+"\n", args...)
	}
	row("ticks", "%d (%.2fs simulated, %s wall)", st.Tick, st.Time, wall.Round(time.Millisecond))
	row("fish", "%d (target %d)", st.Population, st.Target)
	row("speed", "mean %.3f, min %.3f, max %.3f", st.MeanSpeed, st.MinSpeed, st.MaxSpeed)
	row("polarization", "%.3f", st.Polarization)
	row("spread", "%.3f", st.Spread)
	row("bubbles", "%d active, %d free, %d slots", st.ActiveBubbles, st.FreeBubbles, st.TotalBubbles)
	if rec != nil {
		row("telemetry", "%d rows", rec.Rows())
	}
}
