// Package dispatch turns raw websocket frames into renderer calls.
//
// For each frame the Dispatcher:
//   - Strips control characters (package sanitize)
//   - Parses the JSON; a parse failure abandons the frame
//   - Detects the shape: {target, data} envelope, legacy bare array of
//     traffic rows, or an RPC reply
//   - Routes "traffic" and "interface" data to the Renderer
//
// Frames with any other target are dropped without error so newer servers can
// add targets without breaking older clients.
package dispatch
