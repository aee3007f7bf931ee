// Package bridge implements the report object model over a websocket
// connected to a browser page that runs the vendor SDK.
//
// Both directions exchange JSON messages. The service sends requests
// carrying an id, a method and params. The page answers each request with a
// message carrying the same id and either a result or an error, and pushes
// report events as messages carrying only an event. Messages with a method
// and no id are notifications and expect no answer.
package bridge

import (
	"encoding/json"
	"errors"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
)

// Methods understood by the host page
const (
	MethodReady = "host.ready"
	MethodEmbed = "host.embed"

	MethodGetPages   = "report.getPages"
	MethodSetPage    = "report.setPage"
	MethodAddPage    = "report.addPage"
	MethodDeletePage = "report.deletePage"
	MethodSave       = "report.save"

	MethodGetVisuals   = "page.getVisuals"
	MethodCreateVisual = "page.createVisual"
	MethodDeleteVisual = "page.deleteVisual"
	MethodMoveVisual   = "page.moveVisual"
	MethodResizeVisual = "page.resizeVisual"

	MethodChangeType      = "visual.changeType"
	MethodGetDataFields   = "visual.getDataFields"
	MethodAddDataField    = "visual.addDataField"
	MethodRemoveDataField = "visual.removeDataField"
	MethodGetProperty     = "visual.getProperty"
	MethodSetProperty     = "visual.setProperty"
	MethodDelete          = "visual.delete"

	// Filter methods are prefixed with the owner kind: report, page or visual
	MethodGetFilters    = "getFilters"
	MethodSetFilters    = "setFilters"
	MethodUpdateFilters = "updateFilters"
	MethodRemoveFilters = "removeFilters"

	// MethodState notifies the page of a new session state
	MethodState = "session.state"
)

// Error codes sent by the host page
const (
	CodeNotSupported = "notSupported"
	CodeNotFound     = "notFound"
	CodeSDK          = "sdkError"
)

var (
	ErrClosed  = errors.New("bridge closed")
	ErrTimeout = errors.New("bridge call timed out")
)

// RemoteError is an error reported by the host page
type RemoteError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Is matches report.ErrNotSupported for notSupported errors
func (e *RemoteError) Is(target error) bool {
	return target == report.ErrNotSupported && e.Code == CodeNotSupported
}

// Message is one websocket frame
type Message struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RemoteError    `json:"error,omitempty"`
	Event  *report.Event   `json:"event,omitempty"`
}

// Params addresses the object a method runs on and carries its arguments
type Params struct {
	Page   string `json:"page,omitempty"`
	Visual string `json:"visual,omitempty"`

	Name        string                   `json:"name,omitempty"`
	DisplayName string                   `json:"displayName,omitempty"`
	VisualType  string                   `json:"visualType,omitempty"`
	Layout      *models.VisualLayout     `json:"layout,omitempty"`
	Role        string                   `json:"role,omitempty"`
	Index       *int                     `json:"index,omitempty"`
	Field       *models.DataField        `json:"field,omitempty"`
	Selector    *models.PropertySelector `json:"selector,omitempty"`
	Value       *models.PropertyValue    `json:"value,omitempty"`
	Operation   *report.FiltersOperation `json:"operation,omitempty"`
	Filters     []models.Filter          `json:"filters,omitempty"`
	Options     *report.EmbedOptions     `json:"options,omitempty"`
}

// ReportDescriptor is the result of host.embed
type ReportDescriptor struct {
	Capabilities report.CapabilitySet `json:"capabilities"`
}

// PageDescriptor describes a page returned by the host page
type PageDescriptor struct {
	Name         string               `json:"name"`
	DisplayName  string               `json:"displayName"`
	IsActive     bool                 `json:"isActive"`
	Capabilities report.CapabilitySet `json:"capabilities"`
}

// VisualDescriptor describes a visual returned by the host page
type VisualDescriptor struct {
	Name         string               `json:"name"`
	Type         string               `json:"type"`
	Title        string               `json:"title,omitempty"`
	Layout       *models.VisualLayout `json:"layout,omitempty"`
	Capabilities report.CapabilitySet `json:"capabilities"`
}

// DescribePage converts a page for the wire
func DescribePage(page report.Page) PageDescriptor {
	return PageDescriptor{
		Name:         page.Name(),
		DisplayName:  page.DisplayName(),
		IsActive:     page.IsActive(),
		Capabilities: page.Capabilities(),
	}
}

// DescribeVisual converts a visual for the wire
func DescribeVisual(visual report.Visual) VisualDescriptor {
	return VisualDescriptor{
		Name:         visual.Name(),
		Type:         visual.Type(),
		Title:        visual.Title(),
		Layout:       visual.Layout(),
		Capabilities: visual.Capabilities(),
	}
}

// ErrorCode classifies err for a response
func ErrorCode(err error) string {
	if errors.Is(err, report.ErrNotSupported) {
		return CodeNotSupported
	}
	return CodeSDK
}
