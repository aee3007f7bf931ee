package filters

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
)

func applyMessage(level Level) string {
	switch level {
	case LevelVisual:
		return "Visual does not support filters"
	case LevelPage:
		return "Page does not support filters. Make sure the report has edit permissions."
	default:
		return "Report does not support filters"
	}
}

func applyAllMessage(level Level) string {
	switch level {
	case LevelVisual:
		return "Visual does not support filters"
	case LevelPage:
		return "Page does not support filters"
	default:
		return "Report does not support filters"
	}
}

// Apply adds one filter to the target. Update(Add) is preferred, then a
// read-modify-write of the full filter set.
func Apply(ctx context.Context, target report.Filterable, level Level, cfg Config) error {
	filter, err := BuildFilter(cfg)
	if err != nil {
		return err
	}

	caps := target.Capabilities()
	switch {
	case caps.Has(report.CapUpdateFilters):
		return target.UpdateFilters(ctx, report.FiltersOperationAdd, []models.Filter{filter})
	case caps.Has(report.CapSetFilters):
		existing, err := List(ctx, target)
		if err != nil {
			return err
		}
		return target.SetFilters(ctx, append(existing, filter))
	default:
		return report.Unsupported("%s", applyMessage(level))
	}
}

// ApplyAll replaces the target's filters with cfgs
func ApplyAll(ctx context.Context, target report.Filterable, level Level, cfgs []Config) error {
	built, err := BuildFilters(cfgs)
	if err != nil {
		return err
	}

	caps := target.Capabilities()
	switch {
	case caps.Has(report.CapUpdateFilters):
		return target.UpdateFilters(ctx, report.FiltersOperationReplace, built)
	case caps.Has(report.CapSetFilters):
		return target.SetFilters(ctx, built)
	default:
		return report.Unsupported("%s", applyAllMessage(level))
	}
}

// Clear removes every filter from the target
func Clear(ctx context.Context, target report.Filterable, level Level) error {
	caps := target.Capabilities()
	switch {
	case caps.Has(report.CapUpdateFilters):
		return target.UpdateFilters(ctx, report.FiltersOperationRemoveAll, []models.Filter{})
	case caps.Has(report.CapRemoveFilters):
		return target.RemoveFilters(ctx)
	case caps.Has(report.CapSetFilters):
		return target.SetFilters(ctx, []models.Filter{})
	default:
		return report.Unsupported("%s", applyAllMessage(level))
	}
}

// List returns the filters currently applied to the target. Targets that
// cannot report filters have none.
func List(ctx context.Context, target report.Filterable) ([]models.Filter, error) {
	if !target.Capabilities().Has(report.CapGetFilters) {
		return []models.Filter{}, nil
	}

	filters, err := target.GetFilters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get filters: %w", err)
	}
	return filters, nil
}

// Remove drops the applied filter with the given id and writes back the rest
func Remove(ctx context.Context, target report.Filterable, level Level, id string) error {
	current, err := List(ctx, target)
	if err != nil {
		return err
	}

	kept := make([]models.Filter, 0, len(current))
	found := false
	for i, filter := range current {
		if FilterID(i) == id {
			found = true
			continue
		}
		kept = append(kept, filter)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrFilterNotFound, id)
	}

	caps := target.Capabilities()
	switch {
	case caps.Has(report.CapSetFilters):
		return target.SetFilters(ctx, kept)
	case caps.Has(report.CapUpdateFilters):
		return target.UpdateFilters(ctx, report.FiltersOperationReplaceAll, kept)
	default:
		return report.Unsupported("%s", applyAllMessage(level))
	}
}
