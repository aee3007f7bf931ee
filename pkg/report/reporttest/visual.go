package reporttest

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
)

// Visual is an in-memory visual
type Visual struct {
	page    *Page
	name    string
	typ     string
	title   string
	layout  *models.VisualLayout
	caps    report.CapabilitySet
	fields  map[string][]models.DataField
	props   map[string]any
	filters filterSet
}

// WithFields binds fields to a role without recording a call
func (v *Visual) WithFields(role string, fields ...models.DataField) *Visual {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	v.fields[role] = append(v.fields[role], fields...)
	return v
}

// WithProperty sets a property without recording a call
func (v *Visual) WithProperty(objectName, propertyName string, value any) *Visual {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	v.props[propertyKey(objectName, propertyName)] = value
	return v
}

// WithCapabilities replaces the visual capabilities
func (v *Visual) WithCapabilities(caps report.CapabilitySet) *Visual {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	v.caps = caps
	return v
}

// Fields returns the fields bound to a role
func (v *Visual) Fields(role string) []models.DataField {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	return append([]models.DataField(nil), v.fields[role]...)
}

// Property returns a property value
func (v *Visual) Property(objectName, propertyName string) any {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	return v.props[propertyKey(objectName, propertyName)]
}

func propertyKey(objectName, propertyName string) string {
	return objectName + "." + propertyName
}

func (v *Visual) ensureLayout() {
	if v.layout == nil {
		v.layout = &models.VisualLayout{}
	}
}

func (v *Visual) Name() string  { return v.name }
func (v *Visual) Title() string { return v.title }

func (v *Visual) Type() string {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	return v.typ
}

func (v *Visual) Layout() *models.VisualLayout {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if v.layout == nil {
		return nil
	}
	layout := *v.layout
	return &layout
}

func (v *Visual) Capabilities() report.CapabilitySet {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	return v.caps
}

func (v *Visual) ChangeType(_ context.Context, visualType string) error {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapChangeType, "visual"); err != nil {
		return err
	}
	if err := v.page.report.rec.record("visual.changeType", v.name, visualType); err != nil {
		return err
	}
	v.typ = visualType
	return nil
}

func (v *Visual) GetDataFields(_ context.Context, role string) ([]models.DataField, error) {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapGetDataFields, "visual"); err != nil {
		return nil, err
	}
	if err := v.page.report.rec.record("visual.getDataFields", v.name, role); err != nil {
		return nil, err
	}
	return append([]models.DataField(nil), v.fields[role]...), nil
}

func (v *Visual) AddDataField(_ context.Context, role string, field models.DataField) error {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapAddDataField, "visual"); err != nil {
		return err
	}
	if err := v.page.report.rec.record("visual.addDataField", v.name, role, field.Table, field.Column+field.Measure); err != nil {
		return err
	}
	v.fields[role] = append(v.fields[role], field)
	return nil
}

func (v *Visual) RemoveDataField(_ context.Context, role string, index int) error {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapRemoveDataField, "visual"); err != nil {
		return err
	}
	if err := v.page.report.rec.record("visual.removeDataField", v.name, role, index); err != nil {
		return err
	}
	fields := v.fields[role]
	if index < 0 || index >= len(fields) {
		return fmt.Errorf("no field at index %d of role %s", index, role)
	}
	v.fields[role] = append(fields[:index:index], fields[index+1:]...)
	return nil
}

func (v *Visual) GetProperty(_ context.Context, selector models.PropertySelector) (any, error) {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapGetProperty, "visual"); err != nil {
		return nil, err
	}
	if err := v.page.report.rec.record("visual.getProperty", v.name, selector.ObjectName, selector.PropertyName); err != nil {
		return nil, err
	}
	return v.props[propertyKey(selector.ObjectName, selector.PropertyName)], nil
}

func (v *Visual) SetProperty(_ context.Context, selector models.PropertySelector, value models.PropertyValue) error {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapSetProperty, "visual"); err != nil {
		return err
	}
	if err := v.page.report.rec.record("visual.setProperty", v.name, selector.ObjectName, selector.PropertyName, value.Value); err != nil {
		return err
	}
	v.props[propertyKey(selector.ObjectName, selector.PropertyName)] = value.Value
	return nil
}

func (v *Visual) Delete(_ context.Context) error {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapDeleteVisual, "visual"); err != nil {
		return err
	}
	if err := v.page.report.rec.record("visual.delete", v.name); err != nil {
		return err
	}
	return v.page.removeVisual(v.name)
}

func (v *Visual) GetFilters(_ context.Context) ([]models.Filter, error) {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapGetFilters, "visual"); err != nil {
		return nil, err
	}
	if err := v.page.report.rec.record("visual.getFilters", v.name); err != nil {
		return nil, err
	}
	return v.filters.snapshot(), nil
}

func (v *Visual) SetFilters(_ context.Context, filters []models.Filter) error {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapSetFilters, "visual"); err != nil {
		return err
	}
	if err := v.page.report.rec.record("visual.setFilters", len(filters)); err != nil {
		return err
	}
	v.filters.update(report.FiltersOperationReplaceAll, filters)
	return nil
}

func (v *Visual) UpdateFilters(_ context.Context, op report.FiltersOperation, filters []models.Filter) error {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapUpdateFilters, "visual"); err != nil {
		return err
	}
	if err := v.page.report.rec.record("visual.updateFilters", op, len(filters)); err != nil {
		return err
	}
	v.filters.update(op, filters)
	return nil
}

func (v *Visual) RemoveFilters(_ context.Context) error {
	v.page.report.rec.mu.Lock()
	defer v.page.report.rec.mu.Unlock()
	if err := check(v.caps, report.CapRemoveFilters, "visual"); err != nil {
		return err
	}
	if err := v.page.report.rec.record("visual.removeFilters"); err != nil {
		return err
	}
	v.filters.update(report.FiltersOperationRemoveAll, nil)
	return nil
}
