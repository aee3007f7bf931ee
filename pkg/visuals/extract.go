package visuals

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
)

var titleTextSelector = models.PropertySelector{ObjectName: "title", PropertyName: "titleText"}

// EditingVisual is a visual opened in the builder
type EditingVisual struct {
	Visual    report.Visual          `json:"-"`
	Type      string                 `json:"type"`
	Name      string                 `json:"name"`
	Title     string                 `json:"title"`
	Position  models.VisualLayout    `json:"position"`
	DataRoles models.VisualDataRoles `json:"dataRoles"`
}

// Extract reads the type, title, layout and bindings of a live visual. The
// title, category and values queries run concurrently and each one that
// fails yields its empty result instead of an error.
func Extract(ctx context.Context, visual report.Visual) *EditingVisual {
	roles := RolesFor(visual.Type())

	var (
		title    string
		category *models.CategoryData
		values   []models.ValueData
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		title = VisualTitle(gctx, visual)
		return nil
	})
	g.Go(func() error {
		category = CategoryBinding(gctx, visual, roles.Category)
		return nil
	})
	g.Go(func() error {
		values = ValueBindings(gctx, visual, roles.Values)
		return nil
	})
	_ = g.Wait()

	if len(values) == 0 {
		values = nil
	}

	return &EditingVisual{
		Visual:   visual,
		Type:     visual.Type(),
		Name:     visual.Name(),
		Title:    title,
		Position: LayoutOf(visual.Layout()),
		DataRoles: models.VisualDataRoles{
			Category: category,
			Values:   values,
		},
	}
}

// CategoryBinding returns the first field bound to role when it names a table and column
func CategoryBinding(ctx context.Context, visual report.Visual, role string) *models.CategoryData {
	if !visual.Capabilities().Has(report.CapGetDataFields) {
		return nil
	}

	fields, err := visual.GetDataFields(ctx, role)
	if err != nil || len(fields) == 0 {
		return nil
	}

	first := fields[0]
	if !first.IsColumn() {
		return nil
	}
	return &models.CategoryData{Table: first.Table, Column: first.Column}
}

// ValueBindings returns every field bound to role that names a table and measure
func ValueBindings(ctx context.Context, visual report.Visual, role string) []models.ValueData {
	values := []models.ValueData{}
	if !visual.Capabilities().Has(report.CapGetDataFields) {
		return values
	}

	fields, err := visual.GetDataFields(ctx, role)
	if err != nil {
		return values
	}

	for _, field := range fields {
		if field.IsMeasure() {
			values = append(values, models.ValueData{Table: field.Table, Measure: field.Measure})
		}
	}
	return values
}

// VisualTitle prefers the title text property, then the handle's title
func VisualTitle(ctx context.Context, visual report.Visual) string {
	if visual.Capabilities().Has(report.CapGetProperty) {
		value, err := visual.GetProperty(ctx, titleTextSelector)
		if text, ok := value.(string); err == nil && ok && text != "" {
			return text
		}
	}
	return visual.Title()
}
