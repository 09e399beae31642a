package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/netview/internal/config"
	"github.com/rickgao/netview/internal/connection"
	"github.com/rickgao/netview/internal/dispatch"
	"github.com/rickgao/netview/internal/render"
	"github.com/rickgao/netview/internal/termview"
	"github.com/rickgao/netview/internal/version"
	"github.com/rickgao/netview/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Render telemetry as an HTML page served over HTTP",
	Long: `serve connects to the telemetry server and keeps an HTML page with the
latest traffic matrix and interface tables. The page is served at /, along
with /health and /debug/stats.

netview does not reconnect: serve exits with an error when the websocket
closes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "HTTP listen address (overrides page.listen_addr)")
	serveCmd.Flags().Bool("terminal", false, "also draw the tables in the terminal")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	terminal, _ := cmd.Flags().GetBool("terminal")

	logger, closeLog, err := newLogger(cmd, cfg.Logging, terminal)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("starting netview",
		"version", version.Version,
		"commit", version.Commit,
		"server", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"listen", cfg.Page.ListenAddr,
	)

	page, err := loadPage(cfg, logger)
	if err != nil {
		return err
	}

	renderers := dispatch.MultiRenderer{page}
	var view *termview.View
	if terminal {
		view = termview.New(logger)
		renderers = append(renderers, view)
	}

	dispatcher := dispatch.New(renderers, dispatchOptions(cfg), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := connect(ctx, cfg, dispatcher, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	server := &http.Server{
		Addr:              cfg.Page.ListenAddr,
		Handler:           web.NewHandler(page, dispatcher, client, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return watchConnection(gctx, client)
	})

	if view != nil {
		g.Go(func() error {
			return view.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		client.Close()
		return nil
	})

	err = g.Wait()
	stats := dispatcher.Stats()
	logger.Info("netview stopped",
		"frames_received", stats.FramesReceived,
		"frames_routed", stats.FramesRouted,
		"parse_errors", stats.ParseErrors,
	)

	if errors.Is(err, termview.ErrQuit) {
		return nil
	}
	return err
}

// loadPage returns the host page from page.template_path, or the built-in
// page, after checking its anchors.
func loadPage(cfg *config.Config, logger *slog.Logger) (*render.Page, error) {
	var (
		page *render.Page
		err  error
	)
	if cfg.Page.TemplatePath != "" {
		page, err = render.LoadPage(cfg.Page.TemplatePath, render.WithLogger(logger))
	} else {
		page, err = render.DefaultPage(render.WithLogger(logger))
	}
	if err != nil {
		return nil, err
	}

	if err := page.Validate(); err != nil {
		return nil, fmt.Errorf("host page: %w", err)
	}
	logger.Info("page loaded", "template", cfg.Page.TemplatePath)
	return page, nil
}

func dispatchOptions(cfg *config.Config) dispatch.Options {
	opts := dispatch.DefaultOptions()
	opts.AcceptLegacy = cfg.Dispatch.LegacyEnabled()
	return opts
}

// watchConnection returns when ctx ends or the websocket does. The websocket
// ending is always an error: there is no reconnect.
func watchConnection(ctx context.Context, client connection.Client) error {
	select {
	case <-ctx.Done():
		return nil
	case <-client.Done():
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := client.Err(); err != nil {
		return fmt.Errorf("connection lost: %w", err)
	}
	return errors.New("connection closed by server")
}
