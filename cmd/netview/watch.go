package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/netview/internal/dispatch"
	"github.com/rickgao/netview/internal/termview"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render telemetry in the terminal",
	Long:  `watch connects to the telemetry server and draws the tables in the terminal. Press q to quit.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, closeLog, err := newLogger(cmd, cfg.Logging, true)
		if err != nil {
			return err
		}
		defer closeLog()

		view := termview.New(logger)
		dispatcher := dispatch.New(view, dispatchOptions(cfg), logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := connect(ctx, cfg, dispatcher, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return view.Run(gctx)
		})
		g.Go(func() error {
			return watchConnection(gctx, client)
		})

		if err := g.Wait(); err != nil && !errors.Is(err, termview.ErrQuit) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
