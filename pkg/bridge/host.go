package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	DefaultCallTimeout = 30 * time.Second
	// EventBuffer is the number of report events held while the session is busy
	EventBuffer = 64
	// ReadLimit bounds a single frame from the host page
	ReadLimit = 4 << 20
)

// Options configures a Host
type Options struct {
	CallTimeout time.Duration
	Logger      ectologger.Logger
}

// Host is a report.Host backed by a websocket connection to a host page
type Host struct {
	conn    *websocket.Conn
	timeout time.Duration
	logger  ectologger.Logger

	mu      sync.Mutex
	pending map[string]chan Message
	closed  bool

	events chan report.Event
	done   chan struct{}
}

// OriginPatterns converts CORS origins such as https://app.example.com into
// the host patterns checked during the handshake
func OriginPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			origin = u.Host
		}
		patterns = append(patterns, origin)
	}
	return patterns
}

// Accept upgrades an HTTP request into a Host. origins may be CORS origins
// or host patterns; "*" allows any origin.
func Accept(w http.ResponseWriter, r *http.Request, origins []string, opts Options) (*Host, error) {
	patterns := OriginPatterns(origins)
	acceptOpts := &websocket.AcceptOptions{OriginPatterns: patterns}
	for _, origin := range patterns {
		if origin == "*" {
			acceptOpts.InsecureSkipVerify = true
		}
	}

	conn, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to accept websocket: %w", err)
	}
	return NewHost(conn, opts), nil
}

// NewHost wraps an open connection. Run must be called to process frames.
func NewHost(conn *websocket.Conn, opts Options) *Host {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	}
	conn.SetReadLimit(ReadLimit)

	return &Host{
		conn:    conn,
		timeout: opts.CallTimeout,
		logger:  opts.Logger,
		pending: make(map[string]chan Message),
		events:  make(chan report.Event, EventBuffer),
		done:    make(chan struct{}),
	}
}

// Run reads frames until the connection or ctx ends. Pending calls fail with
// ErrClosed and the event channel is closed on return.
func (h *Host) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		_, data, err := h.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.WithContext(ctx).WithError(err).Warn("Discarding malformed bridge frame")
			continue
		}
		h.dispatch(ctx, msg)
	}
}

// dispatch never blocks: a command waiting on a response may hold the lock
// an event handler needs.
func (h *Host) dispatch(ctx context.Context, msg Message) {
	switch {
	case msg.Event != nil:
		select {
		case h.events <- *msg.Event:
		default:
			h.logger.WithContext(ctx).WithField("event", msg.Event.Type).Warn("Event buffer full, dropping report event")
		}
	case msg.ID != "":
		h.mu.Lock()
		ch, ok := h.pending[msg.ID]
		delete(h.pending, msg.ID)
		h.mu.Unlock()
		if !ok {
			h.logger.WithContext(ctx).Debugf("No pending call for response %s", msg.ID)
			return
		}
		ch <- msg
	default:
		h.logger.WithContext(ctx).Debugf("Ignoring bridge frame with method %q", msg.Method)
	}
}

func (h *Host) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.pending {
		close(ch)
		delete(h.pending, id)
	}
	close(h.events)
	close(h.done)
}

// Close ends the connection
func (h *Host) Close(reason string) error {
	return h.conn.Close(websocket.StatusNormalClosure, reason)
}

// Done is closed once Run returns
func (h *Host) Done() <-chan struct{} {
	return h.done
}

// Call sends a request and decodes the result into out when out is not nil
func (h *Host) Call(ctx context.Context, method string, params Params, out any) (err error) {
	ctx, span := tracing.StartSpan(ctx, "bridge."+method)
	start := time.Now()
	defer func() {
		metrics.RecordBridgeCall(method, err, time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	id := uuid.NewString()
	ch := make(chan Message, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	h.pending[id] = ch
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.write(ctx, Message{ID: id, Method: method, Params: raw}); err != nil {
		h.forget(id)
		return err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return ErrClosed
		}
		if resp.Error != nil {
			return resp.Error
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		h.forget(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w after %s", method, ErrTimeout, h.timeout)
		}
		return ctx.Err()
	}
}

// Notify sends a notification that expects no answer
func (h *Host) Notify(ctx context.Context, method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.write(ctx, Message{Method: method, Params: raw})
}

func (h *Host) write(ctx context.Context, msg Message) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrClosed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := h.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func (h *Host) forget(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pending, id)
}

// Ready asks the page whether the vendor library has loaded
func (h *Host) Ready(ctx context.Context) (bool, error) {
	var ready bool
	if err := h.Call(ctx, MethodReady, Params{}, &ready); err != nil {
		return false, err
	}
	return ready, nil
}

// Embed embeds the report in the page
func (h *Host) Embed(ctx context.Context, options report.EmbedOptions) (report.Report, error) {
	var desc ReportDescriptor
	if err := h.Call(ctx, MethodEmbed, Params{Options: &options}, &desc); err != nil {
		return nil, err
	}
	return &remoteReport{remoteFilterable: remoteFilterable{host: h, kind: "report", caps: desc.Capabilities}}, nil
}

// Events delivers report events pushed by the page
func (h *Host) Events() <-chan report.Event {
	return h.events
}
