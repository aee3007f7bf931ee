package bridge

import (
	"context"
	"sync"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
)

// remoteFilterable addresses the report, a page or a visual in the host page
type remoteFilterable struct {
	host   *Host
	kind   string
	page   string
	visual string
	caps   report.CapabilitySet
}

func (f *remoteFilterable) params() Params {
	return Params{Page: f.page, Visual: f.visual}
}

func (f *remoteFilterable) guard(c report.Capability) error {
	if !f.caps.Has(c) {
		return report.Unsupported("%s.%s is not supported", f.kind, c)
	}
	return nil
}

func (f *remoteFilterable) call(ctx context.Context, c report.Capability, method string, params Params, out any) error {
	if err := f.guard(c); err != nil {
		return err
	}
	return f.host.Call(ctx, method, params, out)
}

func (f *remoteFilterable) Capabilities() report.CapabilitySet {
	return f.caps
}

func (f *remoteFilterable) GetFilters(ctx context.Context) ([]models.Filter, error) {
	var filters []models.Filter
	if err := f.call(ctx, report.CapGetFilters, f.kind+"."+MethodGetFilters, f.params(), &filters); err != nil {
		return nil, err
	}
	if filters == nil {
		filters = []models.Filter{}
	}
	return filters, nil
}

func (f *remoteFilterable) SetFilters(ctx context.Context, filters []models.Filter) error {
	params := f.params()
	params.Filters = filters
	return f.call(ctx, report.CapSetFilters, f.kind+"."+MethodSetFilters, params, nil)
}

func (f *remoteFilterable) UpdateFilters(ctx context.Context, op report.FiltersOperation, filters []models.Filter) error {
	params := f.params()
	params.Operation = &op
	params.Filters = filters
	return f.call(ctx, report.CapUpdateFilters, f.kind+"."+MethodUpdateFilters, params, nil)
}

func (f *remoteFilterable) RemoveFilters(ctx context.Context) error {
	return f.call(ctx, report.CapRemoveFilters, f.kind+"."+MethodRemoveFilters, f.params(), nil)
}

type remoteReport struct {
	remoteFilterable
}

func (r *remoteReport) newPage(desc PageDescriptor) *remotePage {
	return &remotePage{
		remoteFilterable: remoteFilterable{host: r.host, kind: "page", page: desc.Name, caps: desc.Capabilities},
		displayName:      desc.DisplayName,
		active:           desc.IsActive,
	}
}

func (r *remoteReport) GetPages(ctx context.Context) ([]report.Page, error) {
	var descs []PageDescriptor
	if err := r.call(ctx, report.CapGetPages, MethodGetPages, Params{}, &descs); err != nil {
		return nil, err
	}
	return ectolinq.Map(descs, func(desc PageDescriptor) report.Page {
		return r.newPage(desc)
	}), nil
}

func (r *remoteReport) SetPage(ctx context.Context, name string) error {
	return r.call(ctx, report.CapSetPage, MethodSetPage, Params{Name: name}, nil)
}

func (r *remoteReport) AddPage(ctx context.Context, displayName string) (report.Page, error) {
	var desc PageDescriptor
	if err := r.call(ctx, report.CapAddPage, MethodAddPage, Params{DisplayName: displayName}, &desc); err != nil {
		return nil, err
	}
	return r.newPage(desc), nil
}

func (r *remoteReport) DeletePage(ctx context.Context, name string) error {
	return r.call(ctx, report.CapDeletePage, MethodDeletePage, Params{Name: name}, nil)
}

func (r *remoteReport) Save(ctx context.Context) error {
	return r.call(ctx, report.CapSave, MethodSave, Params{}, nil)
}

type remotePage struct {
	remoteFilterable
	displayName string
	active      bool
}

func (p *remotePage) Name() string        { return p.page }
func (p *remotePage) DisplayName() string { return p.displayName }
func (p *remotePage) IsActive() bool      { return p.active }

func (p *remotePage) newVisual(desc VisualDescriptor) *remoteVisual {
	return &remoteVisual{
		remoteFilterable: remoteFilterable{host: p.host, kind: "visual", page: p.page, visual: desc.Name, caps: desc.Capabilities},
		typ:              desc.Type,
		title:            desc.Title,
		layout:           desc.Layout,
	}
}

func (p *remotePage) GetVisuals(ctx context.Context) ([]report.Visual, error) {
	var descs []VisualDescriptor
	if err := p.call(ctx, report.CapGetVisuals, MethodGetVisuals, p.params(), &descs); err != nil {
		return nil, err
	}
	return ectolinq.Map(descs, func(desc VisualDescriptor) report.Visual {
		return p.newVisual(desc)
	}), nil
}

func (p *remotePage) CreateVisual(ctx context.Context, visualType string, layout models.VisualLayout) (report.Visual, error) {
	params := p.params()
	params.VisualType = visualType
	params.Layout = &layout

	var desc VisualDescriptor
	if err := p.call(ctx, report.CapCreateVisual, MethodCreateVisual, params, &desc); err != nil {
		return nil, err
	}
	if desc.Layout == nil {
		desc.Layout = &layout
	}
	return p.newVisual(desc), nil
}

func (p *remotePage) DeleteVisual(ctx context.Context, name string) error {
	params := p.params()
	params.Name = name
	return p.call(ctx, report.CapDeleteVisualByName, MethodDeleteVisual, params, nil)
}

func (p *remotePage) MoveVisual(ctx context.Context, name string, x, y float64) error {
	params := p.params()
	params.Name = name
	params.Layout = &models.VisualLayout{X: x, Y: y}
	return p.call(ctx, report.CapMoveVisual, MethodMoveVisual, params, nil)
}

func (p *remotePage) ResizeVisual(ctx context.Context, name string, width, height float64) error {
	params := p.params()
	params.Name = name
	params.Layout = &models.VisualLayout{Width: width, Height: height}
	return p.call(ctx, report.CapResizeVisual, MethodResizeVisual, params, nil)
}

type remoteVisual struct {
	remoteFilterable

	mu     sync.Mutex
	typ    string
	title  string
	layout *models.VisualLayout
}

func (v *remoteVisual) Name() string  { return v.visual }
func (v *remoteVisual) Title() string { return v.title }

func (v *remoteVisual) Type() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.typ
}

func (v *remoteVisual) Layout() *models.VisualLayout {
	if v.layout == nil {
		return nil
	}
	layout := *v.layout
	return &layout
}

func (v *remoteVisual) ChangeType(ctx context.Context, visualType string) error {
	params := v.params()
	params.VisualType = visualType
	if err := v.call(ctx, report.CapChangeType, MethodChangeType, params, nil); err != nil {
		return err
	}
	v.mu.Lock()
	v.typ = visualType
	v.mu.Unlock()
	return nil
}

func (v *remoteVisual) GetDataFields(ctx context.Context, role string) ([]models.DataField, error) {
	params := v.params()
	params.Role = role

	var fields []models.DataField
	if err := v.call(ctx, report.CapGetDataFields, MethodGetDataFields, params, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (v *remoteVisual) AddDataField(ctx context.Context, role string, field models.DataField) error {
	params := v.params()
	params.Role = role
	params.Field = &field
	return v.call(ctx, report.CapAddDataField, MethodAddDataField, params, nil)
}

func (v *remoteVisual) RemoveDataField(ctx context.Context, role string, index int) error {
	params := v.params()
	params.Role = role
	params.Index = &index
	return v.call(ctx, report.CapRemoveDataField, MethodRemoveDataField, params, nil)
}

func (v *remoteVisual) GetProperty(ctx context.Context, selector models.PropertySelector) (any, error) {
	params := v.params()
	params.Selector = &selector

	var value any
	if err := v.call(ctx, report.CapGetProperty, MethodGetProperty, params, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func (v *remoteVisual) SetProperty(ctx context.Context, selector models.PropertySelector, value models.PropertyValue) error {
	params := v.params()
	params.Selector = &selector
	params.Value = &value
	return v.call(ctx, report.CapSetProperty, MethodSetProperty, params, nil)
}

func (v *remoteVisual) Delete(ctx context.Context) error {
	return v.call(ctx, report.CapDeleteVisual, MethodDelete, v.params(), nil)
}
