// Command netview renders live network telemetry from a websocket server as
// an HTML page and, optionally, in the terminal.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
