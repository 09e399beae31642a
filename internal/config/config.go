package config

import "time"

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Page       PageConfig       `yaml:"page"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig locates the telemetry server.
type ServerConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	AjaxTimeout time.Duration `yaml:"ajax_timeout"`
}

// ConnectionConfig holds websocket settings.
type ConnectionConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"` // Negative disables keepalive
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
	ReadyTimeout     time.Duration `yaml:"ready_timeout"` // Bound on waiting for Open
}

// DispatchConfig holds frame routing settings.
type DispatchConfig struct {
	AcceptLegacy *bool `yaml:"accept_legacy"` // nil means the default (true)
}

// LegacyEnabled reports whether bare traffic arrays are rendered.
func (d DispatchConfig) LegacyEnabled() bool {
	return d.AcceptLegacy == nil || *d.AcceptLegacy
}

// KeepaliveInterval returns the ping period, or 0 when keepalive is disabled.
func (c ConnectionConfig) KeepaliveInterval() time.Duration {
	return max(c.PingInterval, 0)
}

// PageConfig holds the HTML page settings.
type PageConfig struct {
	TemplatePath string `yaml:"template_path"` // Empty uses the built-in page
	ListenAddr   string `yaml:"listen_addr"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}
