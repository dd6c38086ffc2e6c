package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harry0816web/GrandmaHelper/internal/config"
	"github.com/harry0816web/GrandmaHelper/internal/logging"
)

var (
	cfgPath string
	verbose bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "guide-cli",
	Short: "Step-by-step screen guidance assistant",
	Long: `guide-cli watches the screen, summarizes what is visible, and walks the
user through their goal one confirmed step at a time.

Commands:
  run    interactive guidance session
  serve  expose the live screen summary over HTTP
  watch  follow a running serve instance and print changes`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Debug = true
		}
		logger, err = logging.New(cfg.Logging.Debug)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}
