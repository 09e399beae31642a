package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rickgao/netview/internal/api"
)

var collectCmd = &cobra.Command{
	Use:   "collect <url>",
	Short: "Ask the server to collect from a planning URL",
	Long:  `collect posts a send-request action to the server's /ajax endpoint and prints the reply.`,
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

		baseURL := "http://" + net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
		client := api.NewClient(baseURL,
			api.WithLogger(logger),
			api.WithTimeout(cfg.Server.AjaxTimeout),
		)

		reply, err := client.SendRequest(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(reply))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
}
