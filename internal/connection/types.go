package connection

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no pong)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrAlreadyStarted  = errors.New("connect already called")
	ErrClosed          = errors.New("connection closed before open")
	ErrEnded           = errors.New("connection already ended")
)

// Path is the fixed websocket endpoint on the telemetry server.
const Path = "/websocket"

// MethodProcessMessage is the only RPC method the client sends.
const MethodProcessMessage = "process_ws_message"

// BuildURL returns the websocket URL for host and port. The scheme is always
// ws:// and the path always Path.
func BuildURL(host string, port int) string {
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(host, strconv.Itoa(port)), Path)
}

// State is the lifecycle state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// terminal reports whether no further transitions are possible.
func (s State) terminal() bool {
	return s == StateClosed || s == StateError
}

// Frame is one inbound text frame.
type Frame struct {
	ID         uuid.UUID // Assigned on receipt, for log correlation
	Data       []byte    // Raw payload, unsanitized
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Request is the outbound RPC envelope.
type Request struct {
	Method string        `json:"method"`
	Params RequestParams `json:"params"`
}

// RequestParams are the parameters of a process_ws_message request.
type RequestParams struct {
	Message string `json:"message"`
}

// Handler receives connection events. All calls come from one goroutine:
// OnOpen first, then OnMessage per frame in receipt order, then OnClose once.
// A handler that blocks delays every later frame.
type Handler interface {
	OnOpen()
	OnMessage(frame Frame)
	// OnClose receives nil after Close or a normal closure by the server.
	OnClose(err error)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are no-ops.
type HandlerFuncs struct {
	Open    func()
	Message func(Frame)
	Close   func(error)
}

func (h HandlerFuncs) OnOpen() {
	if h.Open != nil {
		h.Open()
	}
}

func (h HandlerFuncs) OnMessage(frame Frame) {
	if h.Message != nil {
		h.Message(frame)
	}
}

func (h HandlerFuncs) OnClose(err error) {
	if h.Close != nil {
		h.Close(err)
	}
}

// ClientConfig configures a websocket client.
type ClientConfig struct {
	URL              string        // e.g. ws://localhost:8000/websocket
	HandshakeTimeout time.Duration // Dial handshake limit
	WriteTimeout     time.Duration // Write deadline for sends
	PingInterval     time.Duration // Keepalive ping period (0 = no keepalive)
	PingTimeout      time.Duration // Max time without pong before the connection is stale
	BufferSize       int           // Initial capacity of the reader -> handler queue
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      90 * time.Second,
		BufferSize:       64,
	}
}
