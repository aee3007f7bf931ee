package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/controller"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/report/reporttest"
	"github.com/Ramsey-B/fern/pkg/visuals"
)

// SimulateLoadTimeout bounds how long POST /sessions waits for the demo report to load
const SimulateLoadTimeout = 2 * time.Second

// SessionOptions configures sessions created by a SessionHandler
type SessionOptions struct {
	ReadyInterval time.Duration
	ReadyAttempts int
	CallTimeout   time.Duration
	// Origins allowed to open a bridge connection
	Origins []string
	// Simulate enables POST /sessions, which embeds the in-memory demo report
	Simulate bool
}

// SessionHandler serves the embed sessions: the websocket bridge that creates
// them and the command routes that drive them.
type SessionHandler struct {
	registry  *controller.Registry
	source    controller.ConfigSource
	publisher controller.EventPublisher
	opts      SessionOptions
	logger    ectologger.Logger

	mu      sync.Mutex
	closers map[string]func()
}

// NewSessionHandler creates a new session handler. publisher may be nil.
func NewSessionHandler(registry *controller.Registry, source controller.ConfigSource, publisher controller.EventPublisher, opts SessionOptions, logger ectologger.Logger) *SessionHandler {
	return &SessionHandler{
		registry:  registry,
		source:    source,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		closers:   make(map[string]func()),
	}
}

// SessionSummary is one row of the session list
type SessionSummary struct {
	ID               string           `json:"id"`
	Phase            controller.Phase `json:"phase"`
	Pages            int              `json:"pages"`
	CurrentPageIndex int              `json:"currentPageIndex"`
}

// SessionResponse is a session's id and state
type SessionResponse struct {
	ID string `json:"id"`
	controller.State
}

func sessionResponse(ctl *controller.Controller) SessionResponse {
	return SessionResponse{ID: ctl.ID(), State: ctl.State()}
}

// NavigateRequest selects a page by index
type NavigateRequest struct {
	Index int `json:"index" validate:"gte=0"`
}

// CreatePageRequest is the request body for adding a page
type CreatePageRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
}

// DrawerRequest opens a drawer
type DrawerRequest struct {
	Drawer controller.Drawer `json:"drawer"`
}

// EditResponse is the builder prefilled from a visual
type EditResponse struct {
	State controller.State    `json:"state"`
	Form  visuals.BuilderForm `json:"form"`
}

// RegisterRoutes registers the session routes
func (h *SessionHandler) RegisterRoutes(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.GET("/bridge", h.Connect)

	sessions := g.Group("/sessions", m...)
	sessions.GET("", h.List)
	sessions.POST("", h.Create)
	sessions.GET("/:id", h.Get)
	sessions.DELETE("/:id", h.Close)

	sessions.POST("/:id/pages", h.CreatePage)
	sessions.POST("/:id/pages/refresh", h.RefreshPages)
	sessions.POST("/:id/pages/previous", h.PreviousPage)
	sessions.POST("/:id/pages/next", h.NextPage)
	sessions.POST("/:id/navigate", h.Navigate)
	sessions.DELETE("/:id/pages/:index", h.DeletePage)

	sessions.GET("/:id/visuals", h.ListVisuals)
	sessions.POST("/:id/visuals", h.SubmitVisual)
	sessions.POST("/:id/visuals/presets/:preset", h.AddPreset)
	sessions.POST("/:id/visuals/:name/edit", h.EditVisual)
	sessions.DELETE("/:id/visuals/:name", h.DeleteVisual)

	sessions.POST("/:id/builder", h.OpenBuilder)
	sessions.DELETE("/:id/builder", h.CloseBuilder)
	sessions.PUT("/:id/drawer", h.OpenDrawer)
	sessions.DELETE("/:id/drawer", h.CloseDrawer)

	sessions.POST("/:id/save/confirm", h.ConfirmSave)
	sessions.DELETE("/:id/save/confirm", h.CancelSave)
	sessions.POST("/:id/save", h.Save)

	sessions.GET("/:id/filters", h.ListFilters)
	sessions.POST("/:id/filters", h.ApplyFilter)
	sessions.PUT("/:id/filters", h.ReplaceFilters)
	sessions.POST("/:id/filters/draft", h.ApplyDraft)
	sessions.DELETE("/:id/filters", h.ClearFilters)
	sessions.DELETE("/:id/filters/:filterId", h.RemoveFilter)
}

func (h *SessionHandler) session(c echo.Context) (*controller.Controller, error) {
	ctl, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "session %s not found", c.Param("id"))
	}
	return ctl, nil
}

// respond answers with the session state after a command
func respond(c echo.Context, ctl *controller.Controller, err error) error {
	if err != nil {
		return CommandError(err)
	}
	return SuccessResponse(c, ctl.State())
}

// command runs fn against the addressed session and answers with its state
func (h *SessionHandler) command(c echo.Context, fn func(ctx context.Context, ctl *controller.Controller) error) error {
	ctl, err := h.session(c)
	if err != nil {
		return err
	}
	return respond(c, ctl, fn(c.Request().Context(), ctl))
}

// newSession registers a session that lives until ctx ends. closeFn releases its host.
func (h *SessionHandler) newSession(ctx context.Context, host report.Host, closeFn func()) *controller.Controller {
	ctl := controller.New(host, h.source, controller.Options{
		ReadyInterval: h.opts.ReadyInterval,
		ReadyAttempts: h.opts.ReadyAttempts,
		Publisher:     h.publisher,
		Logger:        h.logger,
	})
	remove := h.registry.Add(ctl)

	h.mu.Lock()
	h.closers[ctl.ID()] = closeFn
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.closers, ctl.ID())
		h.mu.Unlock()
		remove()
	}()

	h.logger.WithContext(ctx).WithField("session_id", ctl.ID()).Info("Session started")
	return ctl
}

func (h *SessionHandler) bootstrap(ctx context.Context, ctl *controller.Controller) error {
	if err := ctl.Bootstrap(ctx); err != nil {
		h.logger.WithContext(ctx).WithError(err).WithField("session_id", ctl.ID()).Warn("Session failed to embed")
		return err
	}
	return nil
}

// List handles GET /sessions
func (h *SessionHandler) List(c echo.Context) error {
	summaries := []SessionSummary{}
	for _, id := range h.registry.IDs() {
		ctl, err := h.registry.Get(id)
		if err != nil {
			continue
		}
		s := ctl.State()
		summaries = append(summaries, SessionSummary{
			ID:               id,
			Phase:            s.Phase,
			Pages:            len(s.Pages),
			CurrentPageIndex: s.CurrentPageIndex,
		})
	}
	return SuccessResponse(c, summaries)
}

// Create handles POST /sessions by embedding the demo report in memory
func (h *SessionHandler) Create(c echo.Context) error {
	if !h.opts.Simulate {
		return httperror.NewHTTPError(http.StatusNotImplemented, "sessions are created by connecting to the bridge")
	}

	host := reporttest.NewDemoHost()
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	ctl := h.newSession(ctx, host, func() {
		cancel()
		host.Close()
	})

	updates, unsubscribe := ctl.Subscribe()
	defer unsubscribe()

	if err := h.bootstrap(ctx, ctl); err != nil {
		h.closeSession(ctl.ID())
		return CommandError(err)
	}

	// The demo host emits loaded right after embedding; answer once the pages are in.
	waitCtx, stop := context.WithTimeout(c.Request().Context(), SimulateLoadTimeout)
	defer stop()
	for state := ctl.State(); loading(state); {
		select {
		case state = <-updates:
		case <-waitCtx.Done():
			return CreatedResponse(c, sessionResponse(ctl))
		}
	}

	return CreatedResponse(c, sessionResponse(ctl))
}

func loading(s controller.State) bool {
	return s.Phase == controller.PhaseLoading || (s.Phase == controller.PhaseReady && len(s.Pages) == 0)
}

func (h *SessionHandler) closeSession(id string) bool {
	h.mu.Lock()
	closeFn, ok := h.closers[id]
	delete(h.closers, id)
	h.mu.Unlock()

	if ok && closeFn != nil {
		closeFn()
	}
	h.registry.Remove(id)
	return ok
}

// Get handles GET /sessions/:id
func (h *SessionHandler) Get(c echo.Context) error {
	ctl, err := h.session(c)
	if err != nil {
		return err
	}
	return SuccessResponse(c, sessionResponse(ctl))
}

// Close handles DELETE /sessions/:id
func (h *SessionHandler) Close(c echo.Context) error {
	if _, err := h.session(c); err != nil {
		return err
	}
	h.closeSession(c.Param("id"))
	return NoContentResponse(c)
}

// Navigate handles POST /sessions/:id/navigate
func (h *SessionHandler) Navigate(c echo.Context) error {
	var req NavigateRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.GoToPage(ctx, req.Index)
	})
}

// PreviousPage handles POST /sessions/:id/pages/previous
func (h *SessionHandler) PreviousPage(c echo.Context) error {
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.GoToPreviousPage(ctx)
	})
}

// NextPage handles POST /sessions/:id/pages/next
func (h *SessionHandler) NextPage(c echo.Context) error {
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.GoToNextPage(ctx)
	})
}

// RefreshPages handles POST /sessions/:id/pages/refresh
func (h *SessionHandler) RefreshPages(c echo.Context) error {
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.RefreshPages(ctx)
	})
}

// CreatePage handles POST /sessions/:id/pages
func (h *SessionHandler) CreatePage(c echo.Context) error {
	ctl, err := h.session(c)
	if err != nil {
		return err
	}

	var req CreatePageRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}

	page, err := ctl.CreatePage(c.Request().Context(), req.DisplayName)
	if err != nil {
		return CommandError(err)
	}
	return CreatedResponse(c, page)
}

// DeletePage handles DELETE /sessions/:id/pages/:index
func (h *SessionHandler) DeletePage(c echo.Context) error {
	index, err := ParseIndex(c, "index")
	if err != nil {
		return err
	}
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.DeletePage(ctx, index)
	})
}

// ListVisuals handles GET /sessions/:id/visuals
func (h *SessionHandler) ListVisuals(c echo.Context) error {
	ctl, err := h.session(c)
	if err != nil {
		return err
	}

	summaries, err := ctl.ListVisuals(c.Request().Context())
	if err != nil {
		return CommandError(err)
	}
	return SuccessResponse(c, summaries)
}

// SubmitVisual handles POST /sessions/:id/visuals with the visual builder's
// field values. The visual open in the builder is rewritten, otherwise a
// new one is created.
func (h *SessionHandler) SubmitVisual(c echo.Context) error {
	var values map[string]any
	if err := c.Bind(&values); err != nil {
		return BadRequest("invalid request body")
	}

	cfg, err := visuals.FormFromValues(values).Config()
	if err != nil {
		return CommandError(err)
	}

	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.SubmitVisual(ctx, cfg)
	})
}

// AddPreset handles POST /sessions/:id/visuals/presets/:preset. An optional
// body positions the visual.
func (h *SessionHandler) AddPreset(c echo.Context) error {
	preset, ok := visuals.Presets[c.Param("preset")]
	if !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "preset %s not found", c.Param("preset"))
	}

	var position models.LayoutInput
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&position); err != nil {
			return BadRequest("invalid request body")
		}
	}

	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		ctl.CloseBuilder()
		return ctl.SubmitVisual(ctx, preset(&position))
	})
}

// EditVisual handles POST /sessions/:id/visuals/:name/edit
func (h *SessionHandler) EditVisual(c echo.Context) error {
	ctl, err := h.session(c)
	if err != nil {
		return err
	}

	if err := ctl.EditVisual(c.Request().Context(), c.Param("name")); err != nil {
		return CommandError(err)
	}

	state := ctl.State()
	return SuccessResponse(c, EditResponse{State: state, Form: visuals.FormFromVisual(state.EditingVisual)})
}

// DeleteVisual handles DELETE /sessions/:id/visuals/:name
func (h *SessionHandler) DeleteVisual(c echo.Context) error {
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.DeleteVisual(ctx, c.Param("name"))
	})
}

// OpenBuilder handles POST /sessions/:id/builder
func (h *SessionHandler) OpenBuilder(c echo.Context) error {
	return h.command(c, func(_ context.Context, ctl *controller.Controller) error {
		ctl.OpenBuilder(nil)
		return nil
	})
}

// CloseBuilder handles DELETE /sessions/:id/builder
func (h *SessionHandler) CloseBuilder(c echo.Context) error {
	return h.command(c, func(_ context.Context, ctl *controller.Controller) error {
		ctl.CloseBuilder()
		return nil
	})
}

// OpenDrawer handles PUT /sessions/:id/drawer
func (h *SessionHandler) OpenDrawer(c echo.Context) error {
	var req DrawerRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}
	return h.command(c, func(_ context.Context, ctl *controller.Controller) error {
		return ctl.OpenDrawer(req.Drawer)
	})
}

// CloseDrawer handles DELETE /sessions/:id/drawer
func (h *SessionHandler) CloseDrawer(c echo.Context) error {
	return h.command(c, func(_ context.Context, ctl *controller.Controller) error {
		ctl.CloseDrawer()
		return nil
	})
}

// ConfirmSave handles POST /sessions/:id/save/confirm
func (h *SessionHandler) ConfirmSave(c echo.Context) error {
	return h.command(c, func(_ context.Context, ctl *controller.Controller) error {
		ctl.OpenSaveConfirm()
		return nil
	})
}

// CancelSave handles DELETE /sessions/:id/save/confirm
func (h *SessionHandler) CancelSave(c echo.Context) error {
	return h.command(c, func(_ context.Context, ctl *controller.Controller) error {
		ctl.CancelSaveConfirm()
		return nil
	})
}

// Save handles POST /sessions/:id/save
func (h *SessionHandler) Save(c echo.Context) error {
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.Save(ctx)
	})
}

// scope reads the filter scope from the level and visual query parameters.
// The level defaults to page.
func scope(c echo.Context) controller.Scope {
	level := filters.Level(c.QueryParam("level"))
	if level == "" {
		level = filters.LevelPage
	}
	return controller.Scope{Level: level, Visual: c.QueryParam("visual")}
}

// ListFilters handles GET /sessions/:id/filters
func (h *SessionHandler) ListFilters(c echo.Context) error {
	ctl, err := h.session(c)
	if err != nil {
		return err
	}

	applied, err := ctl.ListFilters(c.Request().Context(), scope(c))
	if err != nil {
		return CommandError(err)
	}
	return SuccessResponse(c, applied)
}

// ApplyFilter handles POST /sessions/:id/filters
func (h *SessionHandler) ApplyFilter(c echo.Context) error {
	var cfg filters.Config
	if err := c.Bind(&cfg); err != nil {
		return BadRequest("invalid request body")
	}
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.ApplyFilter(ctx, scope(c), cfg)
	})
}

// ReplaceFilters handles PUT /sessions/:id/filters
func (h *SessionHandler) ReplaceFilters(c echo.Context) error {
	var cfgs []filters.Config
	if err := c.Bind(&cfgs); err != nil {
		return BadRequest("invalid request body")
	}
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.ApplyFilters(ctx, scope(c), cfgs)
	})
}

// ApplyDraft handles POST /sessions/:id/filters/draft with the filter
// builder's form state. The draft's level wins over the query.
func (h *SessionHandler) ApplyDraft(c echo.Context) error {
	draft := filters.NewDraft(filters.LevelPage)
	if err := c.Bind(draft); err != nil {
		return BadRequest("invalid request body")
	}

	cfg, err := draft.Config()
	if err != nil {
		return CommandError(err)
	}

	target := scope(c)
	if draft.Level != "" {
		target.Level = draft.Level
	}
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.ApplyFilter(ctx, target, cfg)
	})
}

// ClearFilters handles DELETE /sessions/:id/filters
func (h *SessionHandler) ClearFilters(c echo.Context) error {
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.ClearFilters(ctx, scope(c))
	})
}

// RemoveFilter handles DELETE /sessions/:id/filters/:filterId
func (h *SessionHandler) RemoveFilter(c echo.Context) error {
	return h.command(c, func(ctx context.Context, ctl *controller.Controller) error {
		return ctl.RemoveFilter(ctx, scope(c), c.Param("filterId"))
	})
}
