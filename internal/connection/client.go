package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents the websocket connection to the telemetry server.
type Client interface {
	// Connect dials the server. On success the client is Open and the
	// handler's OnOpen is scheduled before any frame.
	Connect(ctx context.Context) error

	// Close gracefully closes the connection. Safe to call more than once.
	Close() error

	// Send wraps message in a process_ws_message request and writes it.
	// Returns ErrNotConnected unless the client is Open.
	Send(message string) error

	// Ready is closed once the connection is Open.
	Ready() <-chan struct{}

	// WaitForReady blocks until the connection is Open and then calls
	// callback exactly once. It returns ctx.Err() if ctx ends first and
	// ErrClosed if the client closes or fails before opening. Once an opened
	// connection has ended it returns ErrEnded without calling callback.
	WaitForReady(ctx context.Context, callback func()) error

	// Done is closed once the client reaches Closed or Error.
	Done() <-chan struct{}

	// Err returns the error that moved the client to Error, if any.
	Err() error

	// State returns the current lifecycle state.
	State() State

	// IsConnected reports whether the client is Open.
	IsConnected() bool

	// QueueStats describes frames received but not yet handled.
	QueueStats() QueueStats
}

// client implements the Client interface.
type client struct {
	cfg     ClientConfig
	handler Handler
	logger  *slog.Logger

	conn *websocket.Conn

	// Reader -> delivery
	queue *frameQueue

	// Lifecycle signals
	ready     chan struct{} // closed on Open
	ended     chan struct{} // closed on Closed/Error
	done      chan struct{} // closed by Close()
	endOnce   sync.Once
	closeOnce sync.Once

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.RWMutex
	state      State
	err        error
	lastPongAt time.Time
}

// NewClient creates a new websocket client. A nil handler discards events.
func NewClient(cfg ClientConfig, handler Handler, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	if handler == nil {
		handler = HandlerFuncs{}
	}

	return &client{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		queue:   newFrameQueue(cfg.BufferSize),
		ready:   make(chan struct{}),
		ended:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Connect establishes the websocket connection.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state.terminal():
		c.mu.Unlock()
		return ErrAlreadyClosed
	case c.state != StateDisconnected:
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = StateConnecting
	c.mu.Unlock()

	c.logger.Info("opening websocket", "url", c.cfg.URL)

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		c.finish(StateError, err)
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Closed while dialing
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyClosed
	}
	c.conn = conn
	c.state = StateOpen
	c.lastPongAt = time.Now()
	c.mu.Unlock()

	conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.lastPongAt = time.Now()
		c.mu.Unlock()
		return nil
	})

	close(c.ready)

	go c.readLoop(conn)
	go c.deliverLoop()
	if c.cfg.PingInterval > 0 {
		go c.heartbeatLoop(conn)
	}

	c.logger.Info("websocket connected", "url", c.cfg.URL)

	return nil
}

// Close gracefully closes the connection.
func (c *client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		c.finish(StateClosed, nil)

		if conn != nil {
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			err = conn.Close()
		}
	})
	return err
}

// Send writes a process_ws_message request.
func (c *client) Send(message string) error {
	data, err := json.Marshal(Request{
		Method: MethodProcessMessage,
		Params: RequestParams{Message: message},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.write(data)
}

// write sends one text frame.
func (c *client) write(data []byte) error {
	c.mu.RLock()
	if c.state != StateOpen {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.RUnlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Ready returns the readiness channel.
func (c *client) Ready() <-chan struct{} {
	return c.ready
}

// WaitForReady waits for Open and invokes callback once.
func (c *client) WaitForReady(ctx context.Context, callback func()) error {
	select {
	case <-c.ended:
		select {
		case <-c.ready:
			return ErrEnded
		default:
			return ErrClosed
		}
	default:
	}

	select {
	case <-c.ready:
		if callback != nil {
			callback()
		}
		return nil
	case <-c.ended:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns the channel closed when the connection ends.
func (c *client) Done() <-chan struct{} {
	return c.ended
}

// Err returns the terminal error, if any.
func (c *client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// State returns the current state.
func (c *client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected returns the current connection state.
func (c *client) IsConnected() bool {
	return c.State() == StateOpen
}

// QueueStats returns delivery queue statistics.
func (c *client) QueueStats() QueueStats {
	return c.queue.snapshot()
}

// finish moves the client to a terminal state. The first call wins.
func (c *client) finish(state State, err error) {
	c.mu.Lock()
	if c.state.terminal() {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.err = err
	c.mu.Unlock()

	c.endOnce.Do(func() { close(c.ended) })
}

// readLoop reads frames from the websocket and queues them for delivery.
func (c *client) readLoop(conn *websocket.Conn) {
	defer c.queue.close()

	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now() // Capture timestamp immediately

		if err != nil {
			// Ignore errors after Close() is called
			select {
			case <-c.done:
				return
			default:
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("websocket closed by server")
				c.finish(StateClosed, nil)
			} else {
				c.logger.Warn("websocket read failed", "error", err)
				c.finish(StateError, err)
			}
			return
		}

		frame := Frame{
			ID:         uuid.New(),
			Data:       data,
			ReceivedAt: receivedAt,
		}

		if !c.queue.push(frame) {
			return
		}
	}
}

// deliverLoop is the only goroutine that calls the handler.
func (c *client) deliverLoop() {
	c.handler.OnOpen()

	for {
		frame, ok := c.queue.pop()
		if !ok {
			break
		}
		select {
		case <-c.done:
			// Closed locally; drop what is left
			continue
		default:
		}
		c.handler.OnMessage(frame)
	}

	stats := c.queue.snapshot()
	c.logger.Debug("frame delivery finished",
		"dequeued", stats.Popped,
		"peak_backlog", stats.Peak,
	)
	c.handler.OnClose(c.Err())
}

// heartbeatLoop pings the server and flags a stale connection.
func (c *client) heartbeatLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ended:
			return
		case <-ticker.C:
			deadline := time.Now().Add(max(c.cfg.WriteTimeout, time.Second))
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}

			c.mu.RLock()
			lastPong := c.lastPongAt
			c.mu.RUnlock()

			if c.cfg.PingTimeout > 0 && time.Since(lastPong) > c.cfg.PingTimeout {
				c.logger.Warn("no pong received, connection stale",
					"last_pong", lastPong,
					"timeout", c.cfg.PingTimeout,
				)
				c.finish(StateError, ErrStaleConnection)
				// Unblocks readLoop
				conn.Close()
				return
			}
		}
	}
}
