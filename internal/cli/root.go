package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/chromaleap/internal/config"
	"github.com/bryanwahyu/chromaleap/internal/infra/logging"
)

var (
	configPathFlag string
	endpointFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "chromaleap",
	Short: "ChromaLeap - reverse-engineer the editing pipeline of a photo",
	Long: `ChromaLeap uploads an image, asks a vision model how it was edited and
shows the hypothesized pipeline: corrections, tonal adjustments, colour
grading and finishing effects, with parameters and likely software.

Commands:
  analyze     Upload an image and analyze it
  show        Show a stored analysis
  version     Show version info

Quick Start:
  1. chromaleap analyze ./photo.jpg
  2. chromaleap analyze ./photo.jpg --export
  3. chromaleap show <analysis-id>`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to config.yaml (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "ChromaLeap API base URL (overrides config)")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := configPathFlag
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if endpointFlag != "" {
		cfg.Client.Endpoint = endpointFlag
	}
	if err := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}
