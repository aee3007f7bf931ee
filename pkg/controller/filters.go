package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/visuals"
)

var ErrVisualRequired = errors.New("a visual must be selected for visual filters")

// Scope selects the object filters are read from or written to. Page and
// visual scopes resolve against the active page.
type Scope struct {
	Level  filters.Level `json:"level"`
	Visual string        `json:"visual,omitempty"`
}

func (c *Controller) target(ctx context.Context, scope Scope) (report.Filterable, error) {
	switch scope.Level {
	case filters.LevelReport:
		return c.report()
	case filters.LevelPage:
		return c.activePage(ctx)
	case filters.LevelVisual:
		if scope.Visual == "" {
			return nil, ErrVisualRequired
		}
		page, err := c.activePage(ctx)
		if err != nil {
			return nil, err
		}
		pageVisuals, err := page.GetVisuals(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get visuals: %w", err)
		}
		visual, ok := report.FindVisual(pageVisuals, scope.Visual)
		if !ok {
			return nil, &visuals.NotFoundError{Name: scope.Visual}
		}
		return visual, nil
	default:
		return nil, fmt.Errorf("%w: unknown filter level %q", filters.ErrInvalidConfig, scope.Level)
	}
}

// ApplyFilter adds one filter at scope
func (c *Controller) ApplyFilter(ctx context.Context, scope Scope, cfg filters.Config) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	err := func() error {
		target, err := c.target(ctx, scope)
		if err != nil {
			return err
		}
		if err := filters.Apply(ctx, target, scope.Level, cfg); err != nil {
			return err
		}
		c.publishFilterEvent(ctx, models.EventFiltersApplied, scope, cfg)
		return nil
	}()
	return c.finish(ctx, "applyFilter", err)
}

// ApplyFilters replaces the filters at scope
func (c *Controller) ApplyFilters(ctx context.Context, scope Scope, cfgs []filters.Config) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	err := func() error {
		target, err := c.target(ctx, scope)
		if err != nil {
			return err
		}
		if err := filters.ApplyAll(ctx, target, scope.Level, cfgs); err != nil {
			return err
		}
		c.publishFilterEvent(ctx, models.EventFiltersApplied, scope, cfgs)
		return nil
	}()
	return c.finish(ctx, "applyFilters", err)
}

// ClearFilters removes every filter at scope
func (c *Controller) ClearFilters(ctx context.Context, scope Scope) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	err := func() error {
		target, err := c.target(ctx, scope)
		if err != nil {
			return err
		}
		if err := filters.Clear(ctx, target, scope.Level); err != nil {
			return err
		}
		c.publishFilterEvent(ctx, models.EventFiltersCleared, scope, nil)
		return nil
	}()
	return c.finish(ctx, "clearFilters", err)
}

// RemoveFilter removes the applied filter with the given id at scope
func (c *Controller) RemoveFilter(ctx context.Context, scope Scope, id string) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	err := func() error {
		target, err := c.target(ctx, scope)
		if err != nil {
			return err
		}
		if err := filters.Remove(ctx, target, scope.Level, id); err != nil {
			return err
		}
		c.publishFilterEvent(ctx, models.EventFilterRemoved, scope, id)
		return nil
	}()
	return c.finish(ctx, "removeFilter", err)
}

// ListFilters reads back the filters applied at scope
func (c *Controller) ListFilters(ctx context.Context, scope Scope) ([]filters.Applied, error) {
	target, err := c.target(ctx, scope)
	if err != nil {
		return nil, err
	}
	applied, err := filters.List(ctx, target)
	if err != nil {
		return nil, err
	}
	return filters.Parse(applied), nil
}

func (c *Controller) publishFilterEvent(ctx context.Context, eventType string, scope Scope, detail any) {
	event := models.ReportEvent{Type: eventType, Level: string(scope.Level), Visual: scope.Visual, Detail: detail}
	if page, ok := c.State().CurrentPage(); ok && scope.Level != filters.LevelReport {
		event.Page = page.Name
	}
	c.publish(ctx, event)
}
