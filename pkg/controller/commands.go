package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/visuals"
)

// MinDeletablePageIndex protects the report's original pages from deletion
const MinDeletablePageIndex = 8

var (
	ErrUnknownDrawer       = errors.New("unknown drawer")
	ErrSaveNotConfirmed    = errors.New("save has not been confirmed")
	ErrPageNameRequired    = errors.New("page name is required")
	ErrPageIndexOutOfRange = errors.New("page index out of range")
	ErrPageProtected       = errors.New("page cannot be deleted")
)

// GoToPage navigates to the page at index. Indexes outside the page list
// and sessions without a report are ignored.
func (c *Controller) GoToPage(ctx context.Context, index int) error {
	c.ops.Lock()
	defer c.ops.Unlock()
	return c.finish(ctx, "goToPage", c.goToPage(ctx, index))
}

func (c *Controller) goToPage(ctx context.Context, index int) error {
	s := c.State()
	if s.Report == nil || len(s.Pages) == 0 || index < 0 || index >= len(s.Pages) {
		return nil
	}

	if err := s.Report.SetPage(ctx, s.Pages[index].Name); err != nil {
		return fmt.Errorf("failed to navigate to page %q: %w", s.Pages[index].DisplayName, err)
	}
	c.Dispatch(SetCurrentPageIndex{Index: index})
	return nil
}

// GoToPreviousPage navigates back one page when possible
func (c *Controller) GoToPreviousPage(ctx context.Context) error {
	s := c.State()
	if !s.CanGoPrevious() {
		return nil
	}
	return c.GoToPage(ctx, s.CurrentPageIndex-1)
}

// GoToNextPage navigates forward one page when possible
func (c *Controller) GoToNextPage(ctx context.Context) error {
	s := c.State()
	if !s.CanGoNext() {
		return nil
	}
	return c.GoToPage(ctx, s.CurrentPageIndex+1)
}

// CanGoPrevious reports whether a page precedes the current one
func (c *Controller) CanGoPrevious() bool {
	return c.State().CanGoPrevious()
}

// CanGoNext reports whether a page follows the current one
func (c *Controller) CanGoNext() bool {
	return c.State().CanGoNext()
}

// RefreshPages rebuilds the page list from the report and selects the page
// the report marks active. Without an active page the index is kept when it
// is still in range, otherwise it falls back to 0.
func (c *Controller) RefreshPages(ctx context.Context) error {
	r, err := c.report()
	if err != nil {
		return err
	}

	pages, err := r.GetPages(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pages: %w", err)
	}

	actions := []Action{SetPages{Pages: report.PageInfos(pages)}}
	for i, page := range pages {
		if page.IsActive() {
			actions = append(actions, SetCurrentPageIndex{Index: i})
			break
		}
	}
	c.Dispatch(actions...)
	return nil
}

// OpenBuilder shows the visual builder, editing visual when it is not nil
func (c *Controller) OpenBuilder(visual *visuals.EditingVisual) {
	if visual != nil {
		c.Dispatch(SetEditingVisual{Visual: visual}, SetBuilderOpen{Open: true})
		return
	}
	c.Dispatch(SetBuilderOpen{Open: true})
}

// EditVisual opens the builder on the named visual of the active page
func (c *Controller) EditVisual(ctx context.Context, name string) error {
	err := func() error {
		page, err := c.activePage(ctx)
		if err != nil {
			return err
		}

		pageVisuals, err := page.GetVisuals(ctx)
		if err != nil {
			return fmt.Errorf("failed to get visuals: %w", err)
		}

		visual, ok := report.FindVisual(pageVisuals, name)
		if !ok {
			return &visuals.NotFoundError{Name: name}
		}

		c.OpenBuilder(visuals.Extract(ctx, visual))
		return nil
	}()
	return c.finish(ctx, "editVisual", err)
}

// CloseBuilder hides the builder and drops the visual being edited
func (c *Controller) CloseBuilder() {
	c.Dispatch(CloseBuilder{})
}

// RefreshVisuals tells visual lists to reload
func (c *Controller) RefreshVisuals() {
	c.Dispatch(IncrementVisualsRefresh{})
}

// OpenDrawer shows one drawer, replacing any open one
func (c *Controller) OpenDrawer(drawer Drawer) error {
	if drawer == DrawerNone || !drawer.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDrawer, drawer)
	}
	c.Dispatch(SetActiveDrawer{Drawer: drawer})
	return nil
}

// CloseDrawer hides the open drawer
func (c *Controller) CloseDrawer() {
	c.Dispatch(SetActiveDrawer{Drawer: DrawerNone})
}

// OpenSaveConfirm asks for confirmation before Save
func (c *Controller) OpenSaveConfirm() {
	c.Dispatch(SetShowSaveConfirm{Show: true})
}

// CancelSaveConfirm dismisses the save confirmation
func (c *Controller) CancelSaveConfirm() {
	c.Dispatch(SetShowSaveConfirm{Show: false})
}

// Save persists the report once the confirmation is open. The saving flag
// and the confirmation are cleared whatever the outcome.
func (c *Controller) Save(ctx context.Context) error {
	if !c.State().ShowSaveConfirm {
		return ErrSaveNotConfirmed
	}

	c.ops.Lock()
	defer c.ops.Unlock()

	err := func() error {
		r, err := c.report()
		if err != nil {
			return err
		}

		c.Dispatch(SetSaving{Saving: true})
		defer c.Dispatch(SetSaving{Saving: false}, SetShowSaveConfirm{Show: false})

		if err := r.Save(ctx); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		c.publish(ctx, models.ReportEvent{Type: models.EventReportSaved})
		return nil
	}()
	return c.finish(ctx, "save", err)
}

// CreatePage adds a page, refreshes the page list and navigates to the new page
func (c *Controller) CreatePage(ctx context.Context, displayName string) (models.PageInfo, error) {
	c.ops.Lock()
	defer c.ops.Unlock()

	var info models.PageInfo
	err := func() error {
		displayName = strings.TrimSpace(displayName)
		if displayName == "" {
			return ErrPageNameRequired
		}

		r, err := c.report()
		if err != nil {
			return err
		}

		page, err := visuals.CreatePage(ctx, r, displayName)
		if err != nil {
			return fmt.Errorf("failed to create page: %w", err)
		}
		info = models.PageInfo{Name: page.Name(), DisplayName: page.DisplayName()}
		c.publish(ctx, models.ReportEvent{Type: models.EventPageCreated, Page: info.Name})

		if err := c.RefreshPages(ctx); err != nil {
			return err
		}
		if index := c.State().PageIndex(info.Name); index >= 0 {
			return c.goToPage(ctx, index)
		}
		return nil
	}()
	return info, c.finish(ctx, "createPage", err)
}

// DeletePage removes the page at index. The first MinDeletablePageIndex
// pages are protected. Deleting the current page moves to the previous one.
func (c *Controller) DeletePage(ctx context.Context, index int) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	err := func() error {
		s := c.State()
		if s.Report == nil {
			return ErrNoReport
		}
		if index < 0 || index >= len(s.Pages) {
			return fmt.Errorf("%w: %d", ErrPageIndexOutOfRange, index)
		}
		if index < MinDeletablePageIndex {
			return fmt.Errorf("%w: pages before %d are protected", ErrPageProtected, MinDeletablePageIndex+1)
		}

		page := s.Pages[index]
		if err := visuals.DeletePage(ctx, s.Report, page.Name); err != nil {
			return fmt.Errorf("failed to delete page: %w", err)
		}
		c.publish(ctx, models.ReportEvent{Type: models.EventPageDeleted, Page: page.Name})

		var navErr error
		if index == s.CurrentPageIndex && index > 0 {
			navErr = c.goToPage(ctx, index-1)
		}
		return errors.Join(navErr, c.RefreshPages(ctx))
	}()
	return c.finish(ctx, "deletePage", err)
}

// SubmitVisual applies the builder's config to the active page: the visual
// being edited is rewritten, otherwise a new visual is created. The builder
// closes either way.
func (c *Controller) SubmitVisual(ctx context.Context, cfg models.CreateVisualConfig) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	err := func() error {
		defer c.Dispatch(CloseBuilder{})

		page, err := c.activePage(ctx)
		if err != nil {
			return err
		}

		var existing report.Visual
		if editing := c.State().EditingVisual; editing != nil {
			existing = editing.Visual
		}

		visual, err := visuals.CreateOrUpdateVisual(ctx, page, cfg, existing)
		if err != nil {
			return err
		}

		eventType := models.EventVisualCreated
		if existing != nil {
			eventType = models.EventVisualUpdated
		}
		c.publish(ctx, models.ReportEvent{Type: eventType, Page: page.Name(), Visual: visual.Name(), Detail: cfg})
		c.Dispatch(IncrementVisualsRefresh{})
		return nil
	}()
	return c.finish(ctx, "submitVisual", err)
}

// DeleteVisual removes the named visual from the active page
func (c *Controller) DeleteVisual(ctx context.Context, name string) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	err := func() error {
		page, err := c.activePage(ctx)
		if err != nil {
			return err
		}

		if err := visuals.DeleteVisual(ctx, page, name); err != nil {
			return fmt.Errorf("failed to delete visual: %w", err)
		}
		c.publish(ctx, models.ReportEvent{Type: models.EventVisualDeleted, Page: page.Name(), Visual: name})
		c.Dispatch(IncrementVisualsRefresh{})
		return nil
	}()
	return c.finish(ctx, "deleteVisual", err)
}

// ListVisuals summarizes the visuals of the active page
func (c *Controller) ListVisuals(ctx context.Context) ([]models.VisualSummary, error) {
	r, err := c.report()
	if err != nil {
		return nil, err
	}
	return visuals.ListVisuals(ctx, r, visuals.ListTimeout)
}

// PageNames returns the display names of the loaded pages
func (c *Controller) PageNames() []string {
	return ectolinq.Map(c.State().Pages, func(p models.PageInfo) string {
		return p.DisplayName
	})
}
