package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/netview/internal/dispatch"
	"github.com/rickgao/netview/internal/model"
)

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one process_ws_message request and print the reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, closeLog, err := newLogger(cmd, cfg.Logging, false)
		if err != nil {
			return err
		}
		defer closeLog()

		timeout, _ := cmd.Flags().GetDuration("timeout")

		replies := make(chan model.Reply, 1)
		opts := dispatchOptions(cfg)
		opts.OnReply = func(r model.Reply) {
			select {
			case replies <- r:
			default:
			}
		}
		// Telemetry frames arriving meanwhile are parsed and discarded
		dispatcher := dispatch.New(dispatch.MultiRenderer{}, opts, logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		client, err := connect(ctx, cfg, dispatcher, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Send(args[0]); err != nil {
			return fmt.Errorf("send: %w", err)
		}

		select {
		case reply := <-replies:
			fmt.Fprintln(cmd.OutOrStdout(), string(reply.Response))
			if reply.Failed() {
				return errors.New("server reported an error")
			}
			return nil
		case <-client.Done():
			return fmt.Errorf("connection ended before reply: %v", client.Err())
		case <-ctx.Done():
			return fmt.Errorf("waiting for reply: %w", ctx.Err())
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().Duration("timeout", 10*time.Second, "how long to wait for the connection and the reply")
}
