package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Connection.BufferSize < 0 {
		return errors.New("connection.buffer_size must be >= 0")
	}
	if c.Connection.PingTimeout < 0 {
		return errors.New("connection.ping_timeout must be >= 0")
	}
	if c.Connection.PingInterval > 0 && c.Connection.PingTimeout > 0 &&
		c.Connection.PingTimeout < c.Connection.PingInterval {
		return fmt.Errorf("connection.ping_timeout (%s) cannot be shorter than ping_interval (%s)",
			c.Connection.PingTimeout, c.Connection.PingInterval)
	}
	if c.Connection.ReadyTimeout < 0 {
		return errors.New("connection.ready_timeout must be >= 0")
	}

	if c.Page.ListenAddr == "" {
		return errors.New("page.listen_addr is required")
	}

	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", logLevels, c.Logging.Level)
	}
	if !slices.Contains(logFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got %q", logFormats, c.Logging.Format)
	}

	return nil
}
