package reporttest

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
)

// Report is an in-memory report
type Report struct {
	rec     *Recorder
	caps    report.CapabilitySet
	pages   []*Page
	filters filterSet
	pageSeq int
	saved   int
}

// NewReport creates a report with full capabilities and the given page display names.
// The first page is active.
func NewReport(displayNames ...string) *Report {
	r := &Report{rec: newRecorder(), caps: report.AllReportCapabilities}
	for i, displayName := range displayNames {
		page := r.newPage(displayName)
		page.active = i == 0
		r.pages = append(r.pages, page)
	}
	return r
}

func (r *Report) newPage(displayName string) *Page {
	r.pageSeq++
	return &Page{
		report:      r,
		name:        fmt.Sprintf("ReportSection%d", r.pageSeq),
		displayName: displayName,
		caps:        report.AllPageCapabilities,
	}
}

// Recorder returns the call recorder shared by the report tree
func (r *Report) Recorder() *Recorder {
	return r.rec
}

// WithCapabilities replaces the report capabilities
func (r *Report) WithCapabilities(caps report.CapabilitySet) *Report {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	r.caps = caps
	return r
}

// Page returns the page at index
func (r *Report) Page(index int) *Page {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	return r.pages[index]
}

// PageCount returns the number of pages
func (r *Report) PageCount() int {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	return len(r.pages)
}

// Activate marks the page at index as active without recording a call
func (r *Report) Activate(index int) {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	for i, page := range r.pages {
		page.active = i == index
	}
}

// SaveCount returns how many times Save succeeded
func (r *Report) SaveCount() int {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	return r.saved
}

func (r *Report) Capabilities() report.CapabilitySet {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	return r.caps
}

func (r *Report) GetPages(_ context.Context) ([]report.Page, error) {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	if err := check(r.caps, report.CapGetPages, "report"); err != nil {
		return nil, err
	}
	if err := r.rec.record("report.getPages"); err != nil {
		return nil, err
	}
	pages := make([]report.Page, len(r.pages))
	for i, page := range r.pages {
		pages[i] = page
	}
	return pages, nil
}

func (r *Report) SetPage(_ context.Context, name string) error {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	if err := check(r.caps, report.CapSetPage, "report"); err != nil {
		return err
	}
	if err := r.rec.record("report.setPage", name); err != nil {
		return err
	}
	found := false
	for _, page := range r.pages {
		if page.name == name {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("page %q not found", name)
	}
	for _, page := range r.pages {
		page.active = page.name == name
	}
	return nil
}

func (r *Report) AddPage(_ context.Context, displayName string) (report.Page, error) {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	if err := check(r.caps, report.CapAddPage, "report"); err != nil {
		return nil, err
	}
	if err := r.rec.record("report.addPage", displayName); err != nil {
		return nil, err
	}
	page := r.newPage(displayName)
	r.pages = append(r.pages, page)
	return page, nil
}

func (r *Report) DeletePage(_ context.Context, name string) error {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	if err := check(r.caps, report.CapDeletePage, "report"); err != nil {
		return err
	}
	if err := r.rec.record("report.deletePage", name); err != nil {
		return err
	}
	for i, page := range r.pages {
		if page.name != name {
			continue
		}
		r.pages = append(r.pages[:i], r.pages[i+1:]...)
		if page.active && len(r.pages) > 0 {
			r.pages[0].active = true
		}
		return nil
	}
	return fmt.Errorf("page %q not found", name)
}

func (r *Report) Save(_ context.Context) error {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	if err := check(r.caps, report.CapSave, "report"); err != nil {
		return err
	}
	if err := r.rec.record("report.save"); err != nil {
		return err
	}
	r.saved++
	return nil
}

func (r *Report) GetFilters(_ context.Context) ([]models.Filter, error) {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	if err := check(r.caps, report.CapGetFilters, "report"); err != nil {
		return nil, err
	}
	if err := r.rec.record("report.getFilters"); err != nil {
		return nil, err
	}
	return r.filters.snapshot(), nil
}

func (r *Report) SetFilters(_ context.Context, filters []models.Filter) error {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	if err := check(r.caps, report.CapSetFilters, "report"); err != nil {
		return err
	}
	if err := r.rec.record("report.setFilters", len(filters)); err != nil {
		return err
	}
	r.filters.update(report.FiltersOperationReplaceAll, filters)
	return nil
}

func (r *Report) UpdateFilters(_ context.Context, op report.FiltersOperation, filters []models.Filter) error {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	if err := check(r.caps, report.CapUpdateFilters, "report"); err != nil {
		return err
	}
	if err := r.rec.record("report.updateFilters", op, len(filters)); err != nil {
		return err
	}
	r.filters.update(op, filters)
	return nil
}

func (r *Report) RemoveFilters(_ context.Context) error {
	r.rec.mu.Lock()
	defer r.rec.mu.Unlock()
	if err := check(r.caps, report.CapRemoveFilters, "report"); err != nil {
		return err
	}
	if err := r.rec.record("report.removeFilters"); err != nil {
		return err
	}
	r.filters.update(report.FiltersOperationRemoveAll, nil)
	return nil
}
