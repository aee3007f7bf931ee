package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/retry"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	DefaultReadyInterval = 100 * time.Millisecond
	DefaultReadyAttempts = 50
)

var (
	ErrLibraryNotLoaded = errors.New("Power BI library failed to load")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrNoReport         = errors.New("Report not loaded")
	ErrNoActivePage     = errors.New("No active page found")
)

// ConfigSource issues embed credentials for a session
type ConfigSource interface {
	EmbedConfig(ctx context.Context) (models.EmbedConfig, error)
}

// EventPublisher receives an audit event for every change made to a report
type EventPublisher interface {
	PublishReportEvent(ctx context.Context, event *models.ReportEvent) error
}

// Options configures a Controller
type Options struct {
	// SessionID defaults to a random UUID
	SessionID     string
	ReadyInterval time.Duration
	ReadyAttempts int
	// Publisher may be nil
	Publisher EventPublisher
	Logger    ectologger.Logger
}

// Controller owns the state of one embed session. Commands that change the
// report run one at a time; state reads never wait on a running command.
type Controller struct {
	id        string
	host      report.Host
	source    ConfigSource
	publisher EventPublisher
	logger    ectologger.Logger
	interval  time.Duration
	attempts  int

	mu    sync.RWMutex
	state State

	// ops serializes report mutations
	ops sync.Mutex

	subsMu sync.Mutex
	subs   map[int]chan State
	subSeq int

	started bool
	done    chan struct{}
}

// New creates a controller for a session embedded through host
func New(host report.Host, source ConfigSource, opts Options) *Controller {
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.ReadyInterval <= 0 {
		opts.ReadyInterval = DefaultReadyInterval
	}
	if opts.ReadyAttempts <= 0 {
		opts.ReadyAttempts = DefaultReadyAttempts
	}
	if opts.Logger == nil {
		opts.Logger = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	}

	return &Controller{
		id:        opts.SessionID,
		host:      host,
		source:    source,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		interval:  opts.ReadyInterval,
		attempts:  opts.ReadyAttempts,
		state:     InitialState(),
		subs:      make(map[int]chan State),
		done:      make(chan struct{}),
	}
}

// ID returns the session id
func (c *Controller) ID() string {
	return c.id
}

// State returns a snapshot of the session state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// Done is closed when the event loop stops
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Dispatch applies actions in order and notifies subscribers once
func (c *Controller) Dispatch(actions ...Action) State {
	c.mu.Lock()
	for _, a := range actions {
		c.state = Reduce(c.state, a)
	}
	snapshot := c.state.clone()
	c.mu.Unlock()

	c.notify(snapshot)
	return snapshot
}

// Subscribe returns a channel receiving a snapshot after every transition.
// Slow subscribers miss intermediate snapshots. Call cancel to unsubscribe.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	c.subSeq++
	id := c.subSeq
	ch := make(chan State, 16)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			defer c.subsMu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
}

func (c *Controller) notify(snapshot State) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// Bootstrap embeds the report: it fetches embed credentials, waits for the
// host's vendor library, embeds, then consumes report events until ctx ends
// or the host closes its event stream. Any failure moves the session to
// PhaseFailed with the error message.
func (c *Controller) Bootstrap(ctx context.Context) (err error) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "Controller.Bootstrap")
	defer func() { tracing.EndSpan(span, err) }()

	c.Dispatch(SetLoading{Loading: true})

	r, err := c.embed(ctx)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warnf("Embed failed for session %s", c.id)
		c.Dispatch(SetError{Message: err.Error()}, SetLoading{Loading: false})
		close(c.done)
		return err
	}

	c.Dispatch(SetReport{Report: r})
	go c.run(context.WithoutCancel(ctx), ctx.Done())
	return nil
}

func (c *Controller) embed(ctx context.Context) (report.Report, error) {
	cfg, err := c.source.EmbedConfig(ctx)
	if err != nil {
		return nil, err
	}

	if err := retry.Poll(ctx, c.interval, c.attempts, c.host.Ready); err != nil {
		if errors.Is(err, retry.ErrPollExhausted) {
			return nil, ErrLibraryNotLoaded
		}
		return nil, err
	}

	return c.host.Embed(ctx, report.NewEmbedOptions(cfg))
}

// run consumes report events. ctx carries values only; stop ends the loop.
func (c *Controller) run(ctx context.Context, stop <-chan struct{}) {
	defer close(c.done)

	events := c.host.Events()
	for {
		select {
		case <-stop:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.HandleEvent(ctx, event)
		}
	}
}

// HandleEvent applies one report event to the session
func (c *Controller) HandleEvent(ctx context.Context, event report.Event) {
	log := c.logger.WithContext(ctx).WithField("session_id", c.id)

	switch event.Type {
	case report.EventLoaded:
		c.Dispatch(SetLoading{Loading: false})
		if err := c.RefreshPages(ctx); err != nil {
			log.WithError(err).Warn("Failed to load pages")
		}
	case report.EventError:
		c.Dispatch(SetError{Message: event.ErrorMessage()}, SetLoading{Loading: false})
	case report.EventPageChanged:
		if event.Detail.NewPage == nil {
			return
		}
		if index := c.State().PageIndex(event.Detail.NewPage.Name); index >= 0 {
			c.Dispatch(SetCurrentPageIndex{Index: index})
		}
	case report.EventCommandTriggered:
		if event.Detail.Visual == nil {
			return
		}
		switch event.Detail.Command {
		case report.CommandEditVisual:
			if err := c.EditVisual(ctx, event.Detail.Visual.Name); err != nil {
				log.WithError(err).Warn("Failed to open visual for editing")
			}
		case report.CommandDeleteVisual:
			if err := c.DeleteVisual(ctx, event.Detail.Visual.Name); err != nil {
				log.WithError(err).Warn("Failed to delete visual")
			}
		}
	default:
		log.Debugf("Ignoring report event %s", event.Type)
	}
}

// report returns the embedded report or ErrNoReport
func (c *Controller) report() (report.Report, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.Report == nil {
		return nil, ErrNoReport
	}
	return c.state.Report, nil
}

func (c *Controller) activePage(ctx context.Context) (report.Page, error) {
	r, err := c.report()
	if err != nil {
		return nil, err
	}
	pages, err := r.GetPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	page, ok := report.ActivePage(pages)
	if !ok {
		return nil, ErrNoActivePage
	}
	return page, nil
}

// finish records the outcome of a command
func (c *Controller) finish(ctx context.Context, action string, err error) error {
	metrics.RecordAction(action, err)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("session_id", c.id).Warnf("Command %s failed", action)
		c.Dispatch(SetActionError{Message: err.Error()})
		return err
	}
	c.Dispatch(SetActionError{})
	return nil
}

func (c *Controller) publish(ctx context.Context, event models.ReportEvent) {
	if c.publisher == nil {
		return
	}
	event.SessionID = c.id
	if err := c.publisher.PublishReportEvent(ctx, &event); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warnf("Failed to publish %s event", event.Type)
	}
}
