package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Defaults used by NewClient.
const (
	DefaultAjaxTimeout  = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = time.Second
)

// Client posts actions to the telemetry server's /ajax endpoint. 5xx and 429
// responses are retried with exponential backoff.
type Client struct {
	baseURL    string // HTTP root of the telemetry server, no trailing slash
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration // First retry delay; doubles per attempt
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient returns a client for the server rooted at baseURL, e.g.
// http://localhost:8000. AjaxPath is appended per request.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: DefaultAjaxTimeout},
		logger:       slog.Default(),
		maxRetries:   DefaultMaxRetries,
		retryBackoff: DefaultRetryBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// WithTimeout bounds a single AJAX round trip (server.ajax_timeout).
// Retries each get the full timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets how many times a retryable action is re-posted and the
// delay before the first retry.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger for retry and rejection messages.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client. Apply it before WithTimeout if both
// are used.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
