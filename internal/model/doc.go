// Package model defines the telemetry payloads exchanged with the telemetry server.
//
// Inbound frames are either an Envelope ({"target", "data"}) or, from older
// servers, a bare array of TrafficRow. Everything here is transient: values are
// decoded from one frame, handed to a renderer and discarded.
//
// Conventions:
//   - Rates and capacities are plain JSON numbers in the server's units (Mbps)
//   - Utilization fields are percentages (0-100+)
//   - Router and interface order follows the order of keys on the wire
package model
