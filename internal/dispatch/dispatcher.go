package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rickgao/netview/internal/connection"
	"github.com/rickgao/netview/internal/model"
	"github.com/rickgao/netview/internal/sanitize"
)

// ErrMalformedFrame is returned when a frame is not valid JSON after
// sanitation, or its data does not match its target.
var ErrMalformedFrame = errors.New("malformed frame")

// Renderer draws decoded telemetry. Each call fully replaces what the
// renderer drew for that kind of frame.
type Renderer interface {
	RenderTraffic(rows []model.TrafficRow) error
	RenderInterfaces(m model.InterfaceMap) error
}

// Options configures a Dispatcher.
type Options struct {
	// AcceptLegacy routes bare arrays of traffic rows, as sent by servers
	// that predate the {target, data} envelope.
	AcceptLegacy bool

	// OnReply, if set, receives RPC replies. They are logged either way.
	OnReply func(model.Reply)
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		AcceptLegacy: true,
	}
}

// Stats contains runtime statistics.
type Stats struct {
	FramesReceived int64 `json:"frames_received"`
	FramesRouted   int64 `json:"frames_routed"`
	ParseErrors    int64 `json:"parse_errors"`
	UnknownFrames  int64 `json:"unknown_frames"`
	Replies        int64 `json:"replies"`
	RenderErrors   int64 `json:"render_errors"`
}

// frameKind is the result of shape detection.
type frameKind int

const (
	kindUnknown frameKind = iota
	kindLegacy
	kindEnvelope
	kindReply
)

// Dispatcher sanitizes, parses and routes frames to a Renderer.
// It implements connection.Handler.
type Dispatcher struct {
	renderer Renderer
	opts     Options
	logger   *slog.Logger

	mu    sync.RWMutex
	stats Stats
}

// New creates a Dispatcher.
func New(renderer Renderer, opts Options, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

// Stats returns current statistics.
func (d *Dispatcher) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// OnOpen implements connection.Handler.
func (d *Dispatcher) OnOpen() {
	d.logger.Info("connected, waiting for telemetry")
}

// OnMessage implements connection.Handler. Errors are logged; the frame
// is abandoned and the previous render stays in place.
func (d *Dispatcher) OnMessage(frame connection.Frame) {
	log := d.logger.With("frame_id", frame.ID)
	log.Debug("frame received", "bytes", len(frame.Data))

	if err := d.Dispatch(frame.Data); err != nil {
		log.Warn("frame dropped", "error", err)
	}
}

// OnClose implements connection.Handler.
func (d *Dispatcher) OnClose(err error) {
	if err != nil {
		d.logger.Warn("connection lost", "error", err)
		return
	}
	d.logger.Info("connection closed")
}

// Dispatch processes one raw frame. Unknown targets are not an error.
func (d *Dispatcher) Dispatch(raw []byte) error {
	d.count(func(s *Stats) { s.FramesReceived++ })

	clean := sanitize.CleanBytes(raw)

	kind, fields, err := d.parse(clean)
	if err != nil {
		d.count(func(s *Stats) { s.ParseErrors++ })
		return err
	}

	switch kind {
	case kindLegacy:
		if !d.opts.AcceptLegacy {
			d.logger.Debug("legacy frame ignored")
			d.count(func(s *Stats) { s.UnknownFrames++ })
			return nil
		}
		return d.route(model.TargetTraffic, clean)

	case kindEnvelope:
		var target model.Target
		if err := json.Unmarshal(fields["target"], &target); err != nil {
			// A non-string target never matches a renderer
			d.logger.Debug("skipping frame with non-string target")
			d.count(func(s *Stats) { s.UnknownFrames++ })
			return nil
		}
		return d.route(target, fields["data"])

	case kindReply:
		d.count(func(s *Stats) { s.Replies++ })
		reply := model.Reply{Response: fields["response"], Error: fields["error"]}
		if reply.Failed() {
			d.logger.Warn("rpc request failed", "response", string(reply.Response))
		} else {
			d.logger.Info("rpc reply", "response", string(reply.Response))
		}
		if d.opts.OnReply != nil {
			d.opts.OnReply(reply)
		}
		return nil

	default:
		d.logger.Debug("skipping frame without target")
		d.count(func(s *Stats) { s.UnknownFrames++ })
		return nil
	}
}

// parse validates a sanitized frame and detects its shape. For objects it
// also returns the top-level members.
func (d *Dispatcher) parse(data []byte) (frameKind, map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return kindUnknown, nil, fmt.Errorf("%w: invalid json", ErrMalformedFrame)
	}

	switch trimmed[0] {
	case '[':
		return kindLegacy, nil, nil
	case '{':
	default:
		// Scalars carry no target
		return kindUnknown, nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return kindUnknown, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	if _, ok := fields["target"]; ok {
		return kindEnvelope, fields, nil
	}
	if _, ok := fields["response"]; ok {
		return kindReply, fields, nil
	}
	return kindUnknown, fields, nil
}

// route decodes data for target and invokes the matching renderer.
func (d *Dispatcher) route(target model.Target, data json.RawMessage) error {
	var err error

	switch target {
	case model.TargetTraffic:
		var rows []model.TrafficRow
		if err := json.Unmarshal(data, &rows); err != nil {
			d.count(func(s *Stats) { s.ParseErrors++ })
			return fmt.Errorf("%w: traffic data: %v", ErrMalformedFrame, err)
		}
		err = d.renderer.RenderTraffic(rows)

	case model.TargetInterface:
		var m model.InterfaceMap
		if err := json.Unmarshal(data, &m); err != nil {
			d.count(func(s *Stats) { s.ParseErrors++ })
			return fmt.Errorf("%w: interface data: %v", ErrMalformedFrame, err)
		}
		err = d.renderer.RenderInterfaces(m)

	default:
		d.logger.Debug("skipping unknown target", "target", target)
		d.count(func(s *Stats) { s.UnknownFrames++ })
		return nil
	}

	if err != nil {
		d.count(func(s *Stats) { s.RenderErrors++ })
		return fmt.Errorf("render %s: %w", target, err)
	}

	d.count(func(s *Stats) { s.FramesRouted++ })
	return nil
}

func (d *Dispatcher) count(fn func(*Stats)) {
	d.mu.Lock()
	fn(&d.stats)
	d.mu.Unlock()
}
