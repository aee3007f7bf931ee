package reporttest

import (
	"context"
	"sync"

	"github.com/Ramsey-B/fern/pkg/report"
)

// Host is an in-memory embedding host serving one Report
type Host struct {
	mu         sync.Mutex
	report     *Report
	readyAfter int
	readyCalls int
	embedErr   error
	autoLoad   bool
	options    *report.EmbedOptions
	events     chan report.Event
	closed     bool
}

// NewHost returns a host whose library is ready immediately
func NewHost(r *Report) *Host {
	return &Host{report: r, events: make(chan report.Event, 32)}
}

// ReadyAfter makes the first n readiness checks report not ready
func (h *Host) ReadyAfter(n int) *Host {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readyAfter = n
	return h
}

// FailEmbed makes Embed return err
func (h *Host) FailEmbed(err error) *Host {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.embedErr = err
	return h
}

// AutoLoad emits a loaded event after every successful Embed
func (h *Host) AutoLoad() *Host {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.autoLoad = true
	return h
}

// ReadyCalls returns how many readiness checks were made
func (h *Host) ReadyCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.readyCalls
}

// EmbedOptions returns the options of the last Embed call
func (h *Host) EmbedOptions() *report.EmbedOptions {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.options
}

func (h *Host) Ready(_ context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readyCalls++
	return h.readyCalls > h.readyAfter, nil
}

func (h *Host) Embed(_ context.Context, options report.EmbedOptions) (report.Report, error) {
	h.mu.Lock()
	h.options = &options
	err := h.embedErr
	autoLoad := h.autoLoad
	h.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if autoLoad {
		h.Emit(report.Event{Type: report.EventLoaded})
	}
	return h.report, nil
}

func (h *Host) Events() <-chan report.Event {
	return h.events
}

// Emit delivers an event to the subscriber
func (h *Host) Emit(event report.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.events <- event
}

// Close ends the event stream
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.events)
	}
}

// Loaded emits the loaded event
func (h *Host) Loaded() {
	h.Emit(report.Event{Type: report.EventLoaded})
}

// PageChanged emits a pageChanged event for the named page
func (h *Host) PageChanged(name string) {
	h.Emit(report.Event{Type: report.EventPageChanged, Detail: report.EventDetail{NewPage: &report.EventPage{Name: name}}})
}

// Command emits a commandTriggered event for a visual
func (h *Host) Command(command, visualName string) {
	h.Emit(report.Event{Type: report.EventCommandTriggered, Detail: report.EventDetail{
		Command: command,
		Visual:  &report.EventVisual{Name: visualName},
	}})
}

// Error emits an error event
func (h *Host) Error(message string) {
	h.Emit(report.Event{Type: report.EventError, Detail: report.EventDetail{Message: message}})
}
