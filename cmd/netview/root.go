package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rickgao/netview/internal/config"
	"github.com/rickgao/netview/internal/connection"
)

var rootCmd = &cobra.Command{
	Use:   "netview",
	Short: "Network telemetry viewer",
	Long: `netview connects to a telemetry server's websocket, and renders the
traffic matrix and interface utilization it streams.`,
	SilenceUsage: true,
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())
}

// addGlobalFlags defines the flags every command accepts.
func addGlobalFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to config file (defaults apply when empty)")
	flags.String("host", "", "telemetry server host (overrides server.host)")
	flags.Int("port", 0, "telemetry server port (overrides server.port)")
	flags.String("log-level", "", "log level: debug, info, warn, error (overrides logging.level)")
	flags.String("log-file", "", "write logs to this file instead of stderr")
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadAndValidate(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("listen") {
		cfg.Page.ListenAddr, _ = flags.GetString("listen")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. quiet discards output unless a log
// file is set, so logs do not draw over the terminal view.
func newLogger(cmd *cobra.Command, cfg config.LoggingConfig, quiet bool) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("logging.level: %w", err)
	}

	var out io.Writer = os.Stderr
	closer := func() {}

	path, _ := cmd.Flags().GetString("log-file")
	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = func() { f.Close() }
	case quiet:
		out = io.Discard
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer, nil
}

// clientConfig maps the connection section onto the websocket client.
func clientConfig(cfg *config.Config) connection.ClientConfig {
	return connection.ClientConfig{
		URL:              connection.BuildURL(cfg.Server.Host, cfg.Server.Port),
		HandshakeTimeout: cfg.Connection.HandshakeTimeout,
		WriteTimeout:     cfg.Connection.WriteTimeout,
		PingInterval:     cfg.Connection.KeepaliveInterval(),
		PingTimeout:      cfg.Connection.PingTimeout,
		BufferSize:       cfg.Connection.BufferSize,
	}
}

// connect opens the websocket and waits, bounded by ready_timeout, until it
// is open.
func connect(ctx context.Context, cfg *config.Config, handler connection.Handler, logger *slog.Logger) (connection.Client, error) {
	client := connection.NewClient(clientConfig(cfg), handler, logger)

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	readyCtx := ctx
	if cfg.Connection.ReadyTimeout > 0 {
		var cancel context.CancelFunc
		readyCtx, cancel = context.WithTimeout(ctx, cfg.Connection.ReadyTimeout)
		defer cancel()
	}

	err := client.WaitForReady(readyCtx, func() {
		logger.Info("connection ready", "url", clientConfig(cfg).URL)
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("wait for connection: %w", err)
	}
	return client, nil
}
