package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/simulation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	golog "github.com/tochemey/goakt/v3/log"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fishtank",
	Short: "Schooling fish in a glass tank",
	Long: `fishtank simulates a school of fish steered by cohesion, separation,
alignment, wandering and wall avoidance inside a closed box, with fading
bubble trails behind every fish.

Every flag can also be set from the environment as FISHTANK_<FLAG>,
for example FISHTANK_LOG_LEVEL=debug.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "tank config file (.yaml, .yml or .json); defaults are used when empty")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, error, off)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Int64("seed", 0, "random seed; overrides the config file when not 0")
	rootCmd.PersistentFlags().Int("fish", -1, "initial school size; overrides the config file when not negative")
	_ = viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(viewCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig wires FISHTANK_* environment variables onto the flags.
func initConfig() {
	viper.SetEnvPrefix("FISHTANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	color.NoColor = color.NoColor || viper.GetBool("no-color")
}

// loadTankConfig reads --config (or the defaults) and applies the --seed and
// --fish overrides.
func loadTankConfig() (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if path := viper.GetString("config"); path != "" {
		loaded, err := simulation.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if seed := viper.GetInt64("seed"); seed != 0 {
		cfg.Seed = seed
	}
	if fish := viper.GetInt("fish"); fish >= 0 {
		cfg.FishCount = fish
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the goakt logger shared by the actor system and the tank.
func newLogger() (golog.Logger, error) {
	switch level := strings.ToLower(viper.GetString("log-level")); level {
	case "debug":
		return golog.New(golog.DebugLevel, os.Stdout), nil
	case "info", "":
		return golog.New(golog.InfoLevel, os.Stdout), nil
	case "error":
		return golog.New(golog.ErrorLevel, os.Stderr), nil
	case "off", "none":
		return golog.DiscardLogger, nil
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
}
