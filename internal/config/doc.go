// Package config loads netview configuration from YAML.
//
// Values of the form ${VAR} are expanded from the environment before
// parsing. Durations use Go syntax ("10s", "1m30s").
//
// Example:
//
//	server:
//	  host: telemetry.lab
//	  port: 8000
//	connection:
//	  ping_interval: 30s
//	dispatch:
//	  accept_legacy: false
//	page:
//	  listen_addr: ":9000"
//	logging:
//	  level: debug
//	  format: json
package config
