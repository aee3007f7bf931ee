package visuals

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
)

var (
	titleVisibleSelector = models.PropertySelector{ObjectName: "title", PropertyName: "visible"}

	// ErrVisualNotFound is returned when a named visual is missing from its page
	ErrVisualNotFound = errors.New("visual not found")
)

// NotFoundError names the visual that was missing
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Visual %q not found on page", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrVisualNotFound
}

// CreateVisual adds a visual of the configured type at the normalized position
func CreateVisual(ctx context.Context, page report.Page, cfg models.CreateVisualConfig) (report.Visual, error) {
	if !page.Capabilities().Has(report.CapCreateVisual) {
		return nil, report.Unsupported("Create visual is not supported")
	}
	return page.CreateVisual(ctx, cfg.VisualType, NormalizePosition(cfg.Position))
}

// UpdateVisualPosition moves then resizes a visual. Missing capabilities are skipped.
func UpdateVisualPosition(ctx context.Context, page report.Page, name string, position *models.LayoutInput) error {
	layout := NormalizePosition(position)
	caps := page.Capabilities()

	if caps.Has(report.CapMoveVisual) {
		if err := page.MoveVisual(ctx, name, layout.X, layout.Y); err != nil {
			return fmt.Errorf("failed to move visual: %w", err)
		}
	}
	if caps.Has(report.CapResizeVisual) {
		if err := page.ResizeVisual(ctx, name, layout.Width, layout.Height); err != nil {
			return fmt.Errorf("failed to resize visual: %w", err)
		}
	}
	return nil
}

// RemoveAllDataFields unbinds every field from the category and values roles.
// Fields are removed from the last index down. A failing role does not stop
// the other one; all failures are returned together.
func RemoveAllDataFields(ctx context.Context, visual report.Visual, roles models.DataRoleNames) error {
	caps := visual.Capabilities()
	if !caps.Has(report.CapGetDataFields, report.CapRemoveDataField) {
		return nil
	}

	var errs []error
	for _, role := range []string{roles.Category, roles.Values} {
		if err := removeRoleFields(ctx, visual, role); err != nil {
			errs = append(errs, fmt.Errorf("role %s: %w", role, err))
		}
	}
	return errors.Join(errs...)
}

func removeRoleFields(ctx context.Context, visual report.Visual, role string) error {
	fields, err := visual.GetDataFields(ctx, role)
	if err != nil {
		return err
	}
	for i := len(fields) - 1; i >= 0; i-- {
		if err := visual.RemoveDataField(ctx, role, i); err != nil {
			return err
		}
	}
	return nil
}

// AddDataFields binds the configured category column and value measures
func AddDataFields(ctx context.Context, visual report.Visual, cfg models.CreateVisualConfig, roles models.DataRoleNames) error {
	if !visual.Capabilities().Has(report.CapAddDataField) {
		return nil
	}

	if category := cfg.DataRoles.Category; category != nil && category.Column != "" {
		field := models.DataField{
			Schema: models.SchemaColumn,
			Table:  category.Table,
			Column: category.Column,
		}
		if err := visual.AddDataField(ctx, roles.Category, field); err != nil {
			return fmt.Errorf("failed to add category field: %w", err)
		}
	}

	for _, value := range cfg.DataRoles.Values {
		if value.Measure == "" {
			continue
		}
		field := models.DataField{
			Schema:  models.SchemaMeasure,
			Table:   value.Table,
			Measure: value.Measure,
		}
		if err := visual.AddDataField(ctx, roles.Values, field); err != nil {
			return fmt.Errorf("failed to add value field: %w", err)
		}
	}
	return nil
}

// SetVisualTitle turns the title on and sets its text
func SetVisualTitle(ctx context.Context, visual report.Visual, title string) error {
	if !visual.Capabilities().Has(report.CapSetProperty) {
		return nil
	}

	visible := models.PropertyValue{Schema: models.SchemaProperty, Value: true}
	if err := visual.SetProperty(ctx, titleVisibleSelector, visible); err != nil {
		return fmt.Errorf("failed to show title: %w", err)
	}

	text := models.PropertyValue{Schema: models.SchemaProperty, Value: title}
	if err := visual.SetProperty(ctx, titleTextSelector, text); err != nil {
		return fmt.Errorf("failed to set title: %w", err)
	}
	return nil
}

// CreateOrUpdateVisual creates a visual from cfg, or rewrites existing in place.
// Updates replace every bound field rather than diffing the bindings.
func CreateOrUpdateVisual(ctx context.Context, page report.Page, cfg models.CreateVisualConfig, existing report.Visual) (report.Visual, error) {
	roles := RolesFor(cfg.VisualType)
	visual := existing
	var removeErr error

	if existing != nil {
		if cfg.VisualType != existing.Type() && existing.Capabilities().Has(report.CapChangeType) {
			if err := existing.ChangeType(ctx, cfg.VisualType); err != nil {
				return nil, fmt.Errorf("failed to change visual type: %w", err)
			}
		}

		if cfg.Position != nil {
			if err := UpdateVisualPosition(ctx, page, existing.Name(), cfg.Position); err != nil {
				return nil, err
			}
		}

		// Removal is best effort; the new bindings are added even when a role failed.
		if err := RemoveAllDataFields(ctx, existing, roles); err != nil {
			removeErr = fmt.Errorf("failed to remove data fields: %w", err)
		}
	} else {
		created, err := CreateVisual(ctx, page, cfg)
		if err != nil {
			return nil, err
		}
		visual = created
	}

	if err := AddDataFields(ctx, visual, cfg, roles); err != nil {
		return nil, errors.Join(removeErr, err)
	}

	if cfg.Title != "" {
		if err := SetVisualTitle(ctx, visual, cfg.Title); err != nil {
			return nil, errors.Join(removeErr, err)
		}
	}

	if removeErr != nil {
		return nil, removeErr
	}
	return visual, nil
}

// DeleteVisual removes the named visual, preferring the visual's own delete
func DeleteVisual(ctx context.Context, page report.Page, name string) error {
	visuals, err := page.GetVisuals(ctx)
	if err != nil {
		return fmt.Errorf("failed to get visuals: %w", err)
	}

	visual, ok := report.FindVisual(visuals, name)
	if !ok {
		return &NotFoundError{Name: name}
	}

	if visual.Capabilities().Has(report.CapDeleteVisual) {
		return visual.Delete(ctx)
	}
	if page.Capabilities().Has(report.CapDeleteVisualByName) {
		return page.DeleteVisual(ctx, name)
	}
	return report.Unsupported("Delete visual is not supported - no delete method available")
}

// CreatePage adds a page to the report
func CreatePage(ctx context.Context, r report.Report, displayName string) (report.Page, error) {
	if !r.Capabilities().Has(report.CapAddPage) {
		return nil, report.Unsupported("Create page is not supported")
	}
	return r.AddPage(ctx, displayName)
}

// DeletePage removes the named page from the report
func DeletePage(ctx context.Context, r report.Report, name string) error {
	if !r.Capabilities().Has(report.CapDeletePage) {
		return report.Unsupported("Delete page is not supported")
	}
	return r.DeletePage(ctx, name)
}
