// Package api provides the client for the telemetry server's AJAX endpoint.
//
// Endpoint:
//   - POST <base>/ajax with {"action": ..., "url": ...}
//
// Known actions: send-request (starts a collection against a planning URL).
// The server answers {"status": "failed"|"unknown", "error": ...} for
// requests it cannot serve, and the action's result otherwise.
package api
