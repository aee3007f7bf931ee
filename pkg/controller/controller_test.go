package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/report/reporttest"
	"github.com/Ramsey-B/fern/pkg/visuals"
)

type staticSource struct {
	cfg models.EmbedConfig
	err error
}

func (s staticSource) EmbedConfig(context.Context) (models.EmbedConfig, error) {
	return s.cfg, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ReportEvent
}

func (p *recordingPublisher) PublishReportEvent(_ context.Context, event *models.ReportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

var testConfig = models.EmbedConfig{EmbedToken: "tok", EmbedURL: "https://app.powerbi.com/reportEmbed", ReportID: "R1", ReportName: "Sales"}

func pageNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Page %d", i+1)
	}
	return names
}

// loaded returns a controller whose report is embedded and whose pages are loaded
func loaded(t *testing.T, r *reporttest.Report) (*Controller, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	c := New(reporttest.NewHost(r), staticSource{cfg: testConfig}, Options{Publisher: pub})
	c.Dispatch(SetReport{Report: r}, SetLoading{Loading: false})
	require.NoError(t, c.RefreshPages(context.Background()))
	r.Recorder().Reset()
	return c, pub
}

func waitForPhase(t *testing.T, c *Controller, phase Phase) State {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State().Phase == phase
	}, time.Second, 5*time.Millisecond)
	return c.State()
}

func TestBootstrap_LoadedSelectsActivePage(t *testing.T) {
	r := reporttest.NewReport("Overview", "Customers", "Products")
	r.Activate(1)
	host := reporttest.NewHost(r).AutoLoad()
	c := New(host, staticSource{cfg: testConfig}, Options{ReadyInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Bootstrap(ctx))

	require.Eventually(t, func() bool {
		s := c.State()
		return s.Phase == PhaseReady && len(s.Pages) == 3
	}, time.Second, 5*time.Millisecond)

	s := c.State()
	assert.Equal(t, 1, s.CurrentPageIndex)
	assert.False(t, s.Loading)
	assert.Equal(t, "Customers", s.Pages[1].DisplayName)

	opts := host.EmbedOptions()
	require.NotNil(t, opts)
	assert.Equal(t, "tok", opts.AccessToken)
	assert.Equal(t, "R1", opts.ID)
	assert.Len(t, opts.Settings.Extensions, 2)

	assert.ErrorIs(t, c.Bootstrap(ctx), ErrAlreadyStarted)
}

func TestBootstrap_Failures(t *testing.T) {
	tests := []struct {
		name    string
		source  staticSource
		host    func(r *reporttest.Report) *reporttest.Host
		message string
	}{
		{
			name:    "config fetch",
			source:  staticSource{err: errors.New("Power BI configuration is missing")},
			host:    reporttest.NewHost,
			message: "Power BI configuration is missing",
		},
		{
			name:   "library never ready",
			source: staticSource{cfg: testConfig},
			host: func(r *reporttest.Report) *reporttest.Host {
				return reporttest.NewHost(r).ReadyAfter(100)
			},
			message: "Power BI library failed to load",
		},
		{
			name:   "embed",
			source: staticSource{cfg: testConfig},
			host: func(r *reporttest.Report) *reporttest.Host {
				return reporttest.NewHost(r).FailEmbed(errors.New("invalid embed url"))
			},
			message: "invalid embed url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.host(reporttest.NewReport("Overview")), tt.source, Options{ReadyInterval: time.Millisecond, ReadyAttempts: 3})

			err := c.Bootstrap(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())

			s := c.State()
			assert.Equal(t, PhaseFailed, s.Phase)
			assert.Equal(t, tt.message, s.Error)
			assert.False(t, s.Loading)

			select {
			case <-c.Done():
			default:
				t.Fatal("done not closed after failed bootstrap")
			}
		})
	}
}

func TestBootstrap_ReadyAfterRetries(t *testing.T) {
	r := reporttest.NewReport("Overview")
	host := reporttest.NewHost(r).ReadyAfter(2)
	c := New(host, staticSource{cfg: testConfig}, Options{ReadyInterval: time.Millisecond})

	require.NoError(t, c.Bootstrap(context.Background()))
	assert.Equal(t, 3, host.ReadyCalls())
	assert.Equal(t, PhaseLoading, c.State().Phase)

	host.Close()
	<-c.Done()
}

func TestEvents(t *testing.T) {
	r := reporttest.NewReport(pageNames(3)...)
	host := reporttest.NewHost(r)
	c := New(host, staticSource{cfg: testConfig}, Options{ReadyInterval: time.Millisecond})
	require.NoError(t, c.Bootstrap(context.Background()))

	host.Loaded()
	waitForPhase(t, c, PhaseReady)
	require.Eventually(t, func() bool { return len(c.State().Pages) == 3 }, time.Second, 5*time.Millisecond)

	host.PageChanged("ReportSection3")
	require.Eventually(t, func() bool { return c.State().CurrentPageIndex == 2 }, time.Second, 5*time.Millisecond)

	host.PageChanged("ReportSection99")
	host.Error("")
	s := waitForPhase(t, c, PhaseFailed)
	assert.Equal(t, 2, s.CurrentPageIndex)
	assert.Equal(t, report.DefaultErrorMessage, s.Error)

	host.Close()
	<-c.Done()
}

func TestEvents_Commands(t *testing.T) {
	r := reporttest.NewReport("Overview")
	page := r.Page(0)
	chart := page.AddVisual(visuals.TypeColumnChart, "Sales", &models.VisualLayout{X: 10, Y: 20, Width: 500, Height: 300}).
		WithFields("Category", models.DataField{Table: "DimDate", Column: "Year Sort"}).
		WithFields("Y", models.DataField{Table: "All Measures", Measure: "Total Sales"})
	card := page.AddVisual(visuals.TypeCard, "Total", nil)

	c, pub := loaded(t, r)
	ctx := context.Background()

	c.HandleEvent(ctx, report.Event{Type: report.EventCommandTriggered, Detail: report.EventDetail{
		Command: report.CommandEditVisual,
		Visual:  &report.EventVisual{Name: chart.Name()},
	}})

	s := c.State()
	require.True(t, s.BuilderOpen)
	require.NotNil(t, s.EditingVisual)
	assert.Equal(t, chart.Name(), s.EditingVisual.Name)
	assert.Equal(t, &models.CategoryData{Table: "DimDate", Column: "Year Sort"}, s.EditingVisual.DataRoles.Category)
	assert.Equal(t, []models.ValueData{{Table: "All Measures", Measure: "Total Sales"}}, s.EditingVisual.DataRoles.Values)

	c.HandleEvent(ctx, report.Event{Type: report.EventCommandTriggered, Detail: report.EventDetail{
		Command: report.CommandDeleteVisual,
		Visual:  &report.EventVisual{Name: card.Name()},
	}})

	assert.Equal(t, 1, page.VisualCount())
	assert.Equal(t, 1, c.State().VisualsRefreshKey)
	assert.Equal(t, []string{models.EventVisualDeleted}, pub.types())
}

func TestGoToPage(t *testing.T) {
	r := reporttest.NewReport(pageNames(3)...)
	c, _ := loaded(t, r)
	ctx := context.Background()

	for _, index := range []int{-1, 3, 10} {
		require.NoError(t, c.GoToPage(ctx, index))
	}
	assert.Empty(t, r.Recorder().CallsTo("report.setPage"))
	assert.Equal(t, 0, c.State().CurrentPageIndex)

	require.NoError(t, c.GoToNextPage(ctx))
	require.NoError(t, c.GoToNextPage(ctx))
	require.NoError(t, c.GoToNextPage(ctx))
	assert.Equal(t, 2, c.State().CurrentPageIndex)
	assert.False(t, c.CanGoNext())

	require.NoError(t, c.GoToPreviousPage(ctx))
	assert.Equal(t, 1, c.State().CurrentPageIndex)
	assert.True(t, c.CanGoPrevious())

	assert.Equal(t, []string{
		"report.setPage(ReportSection2)",
		"report.setPage(ReportSection3)",
		"report.setPage(ReportSection2)",
	}, r.Recorder().CallsTo("report.setPage"))
}

func TestGoToPage_FailureIsReported(t *testing.T) {
	r := reporttest.NewReport(pageNames(2)...)
	c, _ := loaded(t, r)
	r.Recorder().Fail("report.setPage", errors.New("iframe gone"))

	err := c.GoToPage(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iframe gone")

	s := c.State()
	assert.Equal(t, 0, s.CurrentPageIndex)
	assert.Contains(t, s.LastActionError, "iframe gone")
}

func TestGoToPage_NoReport(t *testing.T) {
	c := New(reporttest.NewHost(nil), staticSource{}, Options{})
	assert.NoError(t, c.GoToPage(context.Background(), 0))
	assert.ErrorIs(t, c.RefreshPages(context.Background()), ErrNoReport)
}

func TestRefreshPages(t *testing.T) {
	r := reporttest.NewReport(pageNames(4)...)
	c, _ := loaded(t, r)
	ctx := context.Background()

	r.Activate(3)
	require.NoError(t, c.RefreshPages(ctx))
	assert.Equal(t, 3, c.State().CurrentPageIndex)

	r.Activate(-1)
	require.NoError(t, c.RefreshPages(ctx))
	assert.Equal(t, 3, c.State().CurrentPageIndex)

	for r.PageCount() > 1 {
		require.NoError(t, r.DeletePage(ctx, r.Page(1).Name()))
	}
	require.NoError(t, c.RefreshPages(ctx))
	assert.Len(t, c.State().Pages, 1)
	assert.Equal(t, 0, c.State().CurrentPageIndex)
}

func TestBuilderAndDrawers(t *testing.T) {
	c := New(reporttest.NewHost(nil), staticSource{}, Options{})

	c.OpenBuilder(nil)
	assert.True(t, c.State().BuilderOpen)
	assert.Nil(t, c.State().EditingVisual)

	c.OpenBuilder(&visuals.EditingVisual{Name: "v"})
	assert.Equal(t, "v", c.State().EditingVisual.Name)

	c.CloseBuilder()
	assert.False(t, c.State().BuilderOpen)
	assert.Nil(t, c.State().EditingVisual)

	require.NoError(t, c.OpenDrawer(DrawerPages))
	require.NoError(t, c.OpenDrawer(DrawerVisuals))
	assert.Equal(t, DrawerVisuals, c.State().ActiveDrawer)
	assert.ErrorIs(t, c.OpenDrawer("settings"), ErrUnknownDrawer)
	assert.ErrorIs(t, c.OpenDrawer(DrawerNone), ErrUnknownDrawer)

	c.CloseDrawer()
	assert.Equal(t, DrawerNone, c.State().ActiveDrawer)
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("requires confirmation", func(t *testing.T) {
		r := reporttest.NewReport("Overview")
		c, _ := loaded(t, r)

		assert.ErrorIs(t, c.Save(ctx), ErrSaveNotConfirmed)
		assert.Equal(t, 0, r.SaveCount())
	})

	t.Run("saves and closes the confirmation", func(t *testing.T) {
		r := reporttest.NewReport("Overview")
		c, pub := loaded(t, r)
		c.OpenSaveConfirm()

		require.NoError(t, c.Save(ctx))

		s := c.State()
		assert.Equal(t, 1, r.SaveCount())
		assert.False(t, s.Saving)
		assert.False(t, s.ShowSaveConfirm)
		assert.Equal(t, []string{models.EventReportSaved}, pub.types())
	})

	t.Run("failure clears the flags and is reported", func(t *testing.T) {
		r := reporttest.NewReport("Overview")
		c, _ := loaded(t, r)
		r.Recorder().Fail("report.save", errors.New("read only"))
		c.OpenSaveConfirm()

		err := c.Save(ctx)
		require.Error(t, err)

		s := c.State()
		assert.False(t, s.Saving)
		assert.False(t, s.ShowSaveConfirm)
		assert.Equal(t, "failed to save report: read only", s.LastActionError)
	})
}

func TestCreatePage(t *testing.T) {
	r := reporttest.NewReport(pageNames(2)...)
	c, pub := loaded(t, r)

	info, err := c.CreatePage(context.Background(), "  Forecast ")
	require.NoError(t, err)
	assert.Equal(t, "Forecast", info.DisplayName)

	s := c.State()
	assert.Len(t, s.Pages, 3)
	assert.Equal(t, 2, s.CurrentPageIndex)
	assert.Equal(t, []string{"report.setPage(" + info.Name + ")"}, r.Recorder().CallsTo("report.setPage"))
	assert.Equal(t, []string{models.EventPageCreated}, pub.types())

	_, err = c.CreatePage(context.Background(), " ")
	assert.ErrorIs(t, err, ErrPageNameRequired)
}

func TestCreatePage_Unsupported(t *testing.T) {
	r := reporttest.NewReport("Overview")
	c, _ := loaded(t, r)
	r.WithCapabilities(report.AllReportCapabilities.Without(report.CapAddPage))

	_, err := c.CreatePage(context.Background(), "New")
	assert.ErrorIs(t, err, report.ErrNotSupported)
	assert.Contains(t, err.Error(), "Create page is not supported")
}

func TestDeletePage(t *testing.T) {
	ctx := context.Background()

	t.Run("protected pages", func(t *testing.T) {
		r := reporttest.NewReport(pageNames(10)...)
		c, _ := loaded(t, r)

		assert.ErrorIs(t, c.DeletePage(ctx, 7), ErrPageProtected)
		assert.ErrorIs(t, c.DeletePage(ctx, 10), ErrPageIndexOutOfRange)
		assert.Empty(t, r.Recorder().CallsTo("report.deletePage"))
	})

	t.Run("deleting the current page moves back", func(t *testing.T) {
		r := reporttest.NewReport(pageNames(10)...)
		c, pub := loaded(t, r)
		require.NoError(t, c.GoToPage(ctx, 9))

		require.NoError(t, c.DeletePage(ctx, 9))

		s := c.State()
		assert.Len(t, s.Pages, 9)
		assert.Equal(t, 8, s.CurrentPageIndex)
		assert.Equal(t, []string{models.EventPageDeleted}, pub.types())
	})

	t.Run("deleting another page keeps the current page", func(t *testing.T) {
		r := reporttest.NewReport(pageNames(10)...)
		c, _ := loaded(t, r)
		require.NoError(t, c.GoToPage(ctx, 2))

		require.NoError(t, c.DeletePage(ctx, 8))

		s := c.State()
		assert.Len(t, s.Pages, 9)
		assert.Equal(t, 2, s.CurrentPageIndex)
		assert.Empty(t, s.LastActionError)
	})
}

func TestSubmitVisual(t *testing.T) {
	ctx := context.Background()
	cfg := models.CreateVisualConfig{
		VisualType: visuals.TypeCard,
		Title:      "Total Sales",
		DataRoles:  models.VisualDataRoles{Values: []models.ValueData{{Table: "All Measures", Measure: "Total Sales"}}},
	}

	t.Run("create", func(t *testing.T) {
		r := reporttest.NewReport("Overview")
		c, pub := loaded(t, r)
		c.OpenBuilder(nil)

		require.NoError(t, c.SubmitVisual(ctx, cfg))

		s := c.State()
		assert.False(t, s.BuilderOpen)
		assert.Equal(t, 1, s.VisualsRefreshKey)
		assert.Equal(t, 1, r.Page(0).VisualCount())
		assert.Equal(t, []string{models.EventVisualCreated}, pub.types())
	})

	t.Run("update the visual being edited", func(t *testing.T) {
		r := reporttest.NewReport("Overview")
		existing := r.Page(0).AddVisual(visuals.TypeColumnChart, "Old", nil).
			WithFields("Category", models.DataField{Table: "DimDate", Column: "Year Sort"})
		c, pub := loaded(t, r)
		require.NoError(t, c.EditVisual(ctx, existing.Name()))

		update := models.CreateVisualConfig{
			VisualType: visuals.TypeBarChart,
			DataRoles:  models.VisualDataRoles{Values: []models.ValueData{{Table: "All Measures", Measure: "Total Sales"}}},
		}
		require.NoError(t, c.SubmitVisual(ctx, update))

		assert.Equal(t, 1, r.Page(0).VisualCount())
		assert.Equal(t, visuals.TypeBarChart, existing.Type())
		assert.Empty(t, existing.Fields("Category"))
		assert.Equal(t, []models.DataField{{Schema: models.SchemaMeasure, Table: "All Measures", Measure: "Total Sales"}}, existing.Fields("Y"))
		assert.Equal(t, []string{models.EventVisualUpdated}, pub.types())
		assert.Nil(t, c.State().EditingVisual)
	})

	t.Run("failure still closes the builder", func(t *testing.T) {
		r := reporttest.NewReport("Overview")
		r.Page(0).WithCapabilities(report.AllPageCapabilities.Without(report.CapCreateVisual))
		c, _ := loaded(t, r)
		c.OpenBuilder(nil)

		err := c.SubmitVisual(ctx, cfg)
		require.ErrorIs(t, err, report.ErrNotSupported)
		assert.False(t, c.State().BuilderOpen)
		assert.Equal(t, "Create visual is not supported", c.State().LastActionError)
	})
}

func TestEditVisual_NotFound(t *testing.T) {
	r := reporttest.NewReport("Overview")
	c, _ := loaded(t, r)

	err := c.EditVisual(context.Background(), "missing")
	assert.ErrorIs(t, err, visuals.ErrVisualNotFound)
	assert.False(t, c.State().BuilderOpen)
}

func TestListVisuals(t *testing.T) {
	r := reporttest.NewReport("Overview")
	r.Page(0).AddVisual(visuals.TypeCard, "", nil)
	c, _ := loaded(t, r)

	summaries, err := c.ListVisuals(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Card", summaries[0].Title)
}

func TestFilters(t *testing.T) {
	ctx := context.Background()
	r := reporttest.NewReport("Overview")
	chart := r.Page(0).AddVisual(visuals.TypeColumnChart, "Sales", nil)
	c, pub := loaded(t, r)

	cfg := filters.InFilter("dimCustomer", "Customer Code/Name", "Acme", "42")

	require.NoError(t, c.ApplyFilter(ctx, Scope{Level: filters.LevelPage}, cfg))
	assert.Equal(t, []string{"page.updateFilters(Add,1)"}, r.Recorder().CallsTo("page.updateFilters"))

	applied, err := c.ListFilters(ctx, Scope{Level: filters.LevelPage})
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "filter-0", applied[0].ID)
	assert.Equal(t, []string{"Acme", "42"}, applied[0].Values)

	require.NoError(t, c.ApplyFilter(ctx, Scope{Level: filters.LevelVisual, Visual: chart.Name()}, cfg))
	require.NoError(t, c.ClearFilters(ctx, Scope{Level: filters.LevelVisual, Visual: chart.Name()}))
	require.NoError(t, c.RemoveFilter(ctx, Scope{Level: filters.LevelPage}, "filter-0"))
	require.NoError(t, c.ApplyFilters(ctx, Scope{Level: filters.LevelReport}, []filters.Config{cfg}))

	assert.ErrorIs(t, c.ApplyFilter(ctx, Scope{Level: filters.LevelVisual}, cfg), ErrVisualRequired)
	assert.ErrorIs(t, c.RemoveFilter(ctx, Scope{Level: filters.LevelPage}, "filter-9"), filters.ErrFilterNotFound)
	assert.ErrorIs(t, c.ClearFilters(ctx, Scope{Level: "dashboard"}), filters.ErrInvalidConfig)

	assert.Equal(t, []string{
		models.EventFiltersApplied,
		models.EventFiltersApplied,
		models.EventFiltersCleared,
		models.EventFilterRemoved,
		models.EventFiltersApplied,
	}, pub.types())
}

func TestSubscribe(t *testing.T) {
	c := New(reporttest.NewHost(nil), staticSource{}, Options{})
	updates, cancel := c.Subscribe()

	c.OpenSaveConfirm()

	select {
	case s := <-updates:
		assert.True(t, s.ShowSaveConfirm)
	case <-time.After(time.Second):
		t.Fatal("no state update")
	}

	cancel()
	cancel()
	_, open := <-updates
	assert.False(t, open)
}
