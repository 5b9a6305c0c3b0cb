package cmd

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/viewer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tochemey/goakt/v3/actor"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the tank in a window",
	Long: `Open the tank in a window. Space scatters the school, the arrow keys
orbit the camera, and the side panel retunes the school live.`,
	RunE: runViewer,
}

func init() {
	viewCmd.Flags().Int("width", 1280, "window width")
	viewCmd.Flags().Int("height", 720, "window height")
	_ = viper.BindPFlags(viewCmd.Flags())
}

func runViewer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadTankConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("FishTank",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return fmt.Errorf("actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return fmt.Errorf("actor system: %w", err)
	}
	defer func() { _ = system.Stop(ctx) }()

	width, height := viper.GetInt("width"), viper.GetInt("height")
	game, err := viewer.NewGame(ctx, system, cfg, width, height)
	if err != nil {
		return err
	}

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("Fish Tank")
	return ebiten.RunGame(game)
}
