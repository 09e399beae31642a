package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// AjaxPath is the server's AJAX endpoint.
const AjaxPath = "/ajax"

// ActionSendRequest starts a collection against a planning URL.
const ActionSendRequest = "send-request"

// ErrRequestRejected is returned when the server answers with status
// "failed" or "unknown".
var ErrRequestRejected = errors.New("request rejected")

// AjaxRequest is the body of an AJAX call.
type AjaxRequest struct {
	Action string `json:"action"`
	URL    string `json:"url,omitempty"`
}

// ajaxStatus is the part of a reply that signals rejection.
type ajaxStatus struct {
	Status string          `json:"status"`
	Error  json.RawMessage `json:"error"`
}

// SendRequest asks the server to collect from url. It returns the server's
// reply verbatim.
func (c *Client) SendRequest(ctx context.Context, url string) (json.RawMessage, error) {
	return c.Do(ctx, AjaxRequest{Action: ActionSendRequest, URL: url})
}

// Do posts an arbitrary AJAX request.
func (c *Client) Do(ctx context.Context, req AjaxRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Info("sending ajax request", "action", req.Action, "url", req.URL)

	body, err := c.doWithRetry(ctx, AjaxPath, payload)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("unmarshal response: invalid json")
	}

	// Replies that are not objects carry no status
	var status ajaxStatus
	if err := json.Unmarshal(body, &status); err == nil {
		switch status.Status {
		case "failed", "unknown":
			return nil, fmt.Errorf("%w: %s: %s", ErrRequestRejected, status.Status, status.Error)
		}
	}

	return json.RawMessage(body), nil
}
