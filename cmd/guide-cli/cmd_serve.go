package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harry0816web/GrandmaHelper/internal/server"
)

var refreshEvery time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live screen summary over HTTP",
	Long: `serve keeps capturing the screen on a fixed interval and exposes the
latest summary as JSON on /screen-info, plus a /health probe.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&refreshEvery, "refresh", 2*time.Second, "capture refresh interval")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(pipe, cfg.Server.Port, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(ctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := pipe.Refresh(ctx); err != nil {
					logger.Warn("refresh failed", zap.Error(err))
				}
			}
		}
	})

	return g.Wait()
}
