package reporttest

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
)

// Page is an in-memory report page
type Page struct {
	report      *Report
	name        string
	displayName string
	active      bool
	caps        report.CapabilitySet
	visuals     []*Visual
	filters     filterSet
	visualSeq   int
}

// AddVisual places a visual on the page without recording a call
func (p *Page) AddVisual(visualType, title string, layout *models.VisualLayout) *Visual {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	return p.addVisual(visualType, title, layout)
}

func (p *Page) addVisual(visualType, title string, layout *models.VisualLayout) *Visual {
	p.visualSeq++
	visual := &Visual{
		page:   p,
		name:   fmt.Sprintf("%s_visual%d", p.name, p.visualSeq),
		typ:    visualType,
		title:  title,
		layout: layout,
		caps:   report.AllVisualCapabilities,
		fields: make(map[string][]models.DataField),
		props:  make(map[string]any),
	}
	p.visuals = append(p.visuals, visual)
	return visual
}

// WithCapabilities replaces the page capabilities
func (p *Page) WithCapabilities(caps report.CapabilitySet) *Page {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	p.caps = caps
	return p
}

// Visual returns the visual with the given name, or nil
func (p *Page) Visual(name string) *Visual {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	for _, visual := range p.visuals {
		if visual.name == name {
			return visual
		}
	}
	return nil
}

// VisualCount returns the number of visuals on the page
func (p *Page) VisualCount() int {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	return len(p.visuals)
}

func (p *Page) Name() string        { return p.name }
func (p *Page) DisplayName() string { return p.displayName }

func (p *Page) IsActive() bool {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	return p.active
}

func (p *Page) Capabilities() report.CapabilitySet {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	return p.caps
}

func (p *Page) GetVisuals(_ context.Context) ([]report.Visual, error) {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	if err := check(p.caps, report.CapGetVisuals, "page"); err != nil {
		return nil, err
	}
	if err := p.report.rec.record("page.getVisuals", p.name); err != nil {
		return nil, err
	}
	visuals := make([]report.Visual, len(p.visuals))
	for i, visual := range p.visuals {
		visuals[i] = visual
	}
	return visuals, nil
}

func (p *Page) CreateVisual(_ context.Context, visualType string, layout models.VisualLayout) (report.Visual, error) {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	if err := check(p.caps, report.CapCreateVisual, "page"); err != nil {
		return nil, err
	}
	if err := p.report.rec.record("page.createVisual", visualType, layout.X, layout.Y, layout.Width, layout.Height); err != nil {
		return nil, err
	}
	return p.addVisual(visualType, "", &layout), nil
}

func (p *Page) DeleteVisual(_ context.Context, name string) error {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	if err := check(p.caps, report.CapDeleteVisualByName, "page"); err != nil {
		return err
	}
	if err := p.report.rec.record("page.deleteVisual", name); err != nil {
		return err
	}
	return p.removeVisual(name)
}

func (p *Page) removeVisual(name string) error {
	for i, visual := range p.visuals {
		if visual.name == name {
			p.visuals = append(p.visuals[:i], p.visuals[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("visual %q not found", name)
}

func (p *Page) MoveVisual(_ context.Context, name string, x, y float64) error {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	if err := check(p.caps, report.CapMoveVisual, "page"); err != nil {
		return err
	}
	if err := p.report.rec.record("page.moveVisual", name, x, y); err != nil {
		return err
	}
	for _, visual := range p.visuals {
		if visual.name == name {
			visual.ensureLayout()
			visual.layout.X, visual.layout.Y = x, y
			return nil
		}
	}
	return fmt.Errorf("visual %q not found", name)
}

func (p *Page) ResizeVisual(_ context.Context, name string, width, height float64) error {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	if err := check(p.caps, report.CapResizeVisual, "page"); err != nil {
		return err
	}
	if err := p.report.rec.record("page.resizeVisual", name, width, height); err != nil {
		return err
	}
	for _, visual := range p.visuals {
		if visual.name == name {
			visual.ensureLayout()
			visual.layout.Width, visual.layout.Height = width, height
			return nil
		}
	}
	return fmt.Errorf("visual %q not found", name)
}

func (p *Page) GetFilters(_ context.Context) ([]models.Filter, error) {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	if err := check(p.caps, report.CapGetFilters, "page"); err != nil {
		return nil, err
	}
	if err := p.report.rec.record("page.getFilters", p.name); err != nil {
		return nil, err
	}
	return p.filters.snapshot(), nil
}

func (p *Page) SetFilters(_ context.Context, filters []models.Filter) error {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	if err := check(p.caps, report.CapSetFilters, "page"); err != nil {
		return err
	}
	if err := p.report.rec.record("page.setFilters", len(filters)); err != nil {
		return err
	}
	p.filters.update(report.FiltersOperationReplaceAll, filters)
	return nil
}

func (p *Page) UpdateFilters(_ context.Context, op report.FiltersOperation, filters []models.Filter) error {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	if err := check(p.caps, report.CapUpdateFilters, "page"); err != nil {
		return err
	}
	if err := p.report.rec.record("page.updateFilters", op, len(filters)); err != nil {
		return err
	}
	p.filters.update(op, filters)
	return nil
}

func (p *Page) RemoveFilters(_ context.Context) error {
	p.report.rec.mu.Lock()
	defer p.report.rec.mu.Unlock()
	if err := check(p.caps, report.CapRemoveFilters, "page"); err != nil {
		return err
	}
	if err := p.report.rec.record("page.removeFilters"); err != nil {
		return err
	}
	p.filters.update(report.FiltersOperationRemoveAll, nil)
	return nil
}
