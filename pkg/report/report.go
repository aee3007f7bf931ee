// Package report models the objects exposed by the embedded Power BI SDK.
// Every object advertises the optional operations it supports through a
// CapabilitySet. Callers check capabilities before invoking an operation;
// implementations return an error wrapping ErrNotSupported otherwise.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
)

// ErrNotSupported is matched by every unsupported-operation error
var ErrNotSupported = errors.New("operation not supported")

// UnsupportedError carries a user facing message for an unavailable operation
type UnsupportedError struct {
	Message string
}

func (e *UnsupportedError) Error() string {
	return e.Message
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

// Unsupported returns an UnsupportedError with a formatted message
func Unsupported(format string, args ...any) error {
	return &UnsupportedError{Message: fmt.Sprintf(format, args...)}
}

// FiltersOperation selects how UpdateFilters combines filters with the current set
type FiltersOperation int

// Values match the vendor enum.
const (
	FiltersOperationRemoveAll FiltersOperation = iota
	FiltersOperationReplaceAll
	FiltersOperationAdd
	FiltersOperationRemove
	FiltersOperationReplace
)

func (o FiltersOperation) String() string {
	switch o {
	case FiltersOperationRemoveAll:
		return "RemoveAll"
	case FiltersOperationReplaceAll:
		return "ReplaceAll"
	case FiltersOperationAdd:
		return "Add"
	case FiltersOperationRemove:
		return "Remove"
	case FiltersOperationReplace:
		return "Replace"
	default:
		return fmt.Sprintf("FiltersOperation(%d)", int(o))
	}
}

// Filterable is implemented by the report, its pages and its visuals
type Filterable interface {
	Capabilities() CapabilitySet
	GetFilters(ctx context.Context) ([]models.Filter, error)
	SetFilters(ctx context.Context, filters []models.Filter) error
	UpdateFilters(ctx context.Context, op FiltersOperation, filters []models.Filter) error
	RemoveFilters(ctx context.Context) error
}

// Report is a live embedded report
type Report interface {
	Filterable

	GetPages(ctx context.Context) ([]Page, error)
	SetPage(ctx context.Context, name string) error
	AddPage(ctx context.Context, displayName string) (Page, error)
	DeletePage(ctx context.Context, name string) error
	Save(ctx context.Context) error
}

// Page is one page of an embedded report
type Page interface {
	Filterable

	Name() string
	DisplayName() string
	IsActive() bool

	GetVisuals(ctx context.Context) ([]Visual, error)
	CreateVisual(ctx context.Context, visualType string, layout models.VisualLayout) (Visual, error)
	DeleteVisual(ctx context.Context, name string) error
	MoveVisual(ctx context.Context, name string, x, y float64) error
	ResizeVisual(ctx context.Context, name string, width, height float64) error
}

// Visual is one visual container on a page
type Visual interface {
	Filterable

	Name() string
	Type() string
	Title() string
	// Layout returns nil when the SDK did not report a layout
	Layout() *models.VisualLayout

	ChangeType(ctx context.Context, visualType string) error
	GetDataFields(ctx context.Context, role string) ([]models.DataField, error)
	AddDataField(ctx context.Context, role string, field models.DataField) error
	RemoveDataField(ctx context.Context, role string, index int) error
	GetProperty(ctx context.Context, selector models.PropertySelector) (any, error)
	SetProperty(ctx context.Context, selector models.PropertySelector, value models.PropertyValue) error
	Delete(ctx context.Context) error
}

// Host embeds reports into a browser page that runs the vendor SDK
type Host interface {
	// Ready reports whether the vendor library is loaded in the page
	Ready(ctx context.Context) (bool, error)
	Embed(ctx context.Context, options EmbedOptions) (Report, error)
	// Events delivers report events. The channel is closed when the host goes away.
	Events() <-chan Event
}

// ActivePage returns the page the SDK reports as active
func ActivePage(pages []Page) (Page, bool) {
	for _, page := range pages {
		if page.IsActive() {
			return page, true
		}
	}
	return nil, false
}

// FindVisual returns the visual with the given name
func FindVisual(visuals []Visual, name string) (Visual, bool) {
	for _, visual := range visuals {
		if visual.Name() == name {
			return visual, true
		}
	}
	return nil, false
}

// PageInfos converts pages into view models
func PageInfos(pages []Page) []models.PageInfo {
	infos := make([]models.PageInfo, 0, len(pages))
	for _, page := range pages {
		infos = append(infos, models.PageInfo{Name: page.Name(), DisplayName: page.DisplayName()})
	}
	return infos
}
