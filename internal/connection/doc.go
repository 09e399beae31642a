// Package connection implements the websocket transport to the telemetry server.
//
// The Client:
//   - Dials ws://<host>:<port>/websocket
//   - Moves through Disconnected -> Connecting -> Open -> Closed | Error
//   - Delivers OnOpen, every inbound frame and OnClose to a Handler from a
//     single goroutine, in receipt order
//   - Exposes readiness as a channel instead of polling the socket state
//   - Sends process_ws_message requests; sending before Open is an error
//
// There is no reconnect. When the connection ends the owner decides what to do.
package connection
