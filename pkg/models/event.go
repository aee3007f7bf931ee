package models

import "time"

// Report mutation event types
const (
	EventEmbedTokenIssued = "embed.token_issued"
	EventPageCreated      = "page.created"
	EventPageDeleted      = "page.deleted"
	EventVisualCreated    = "visual.created"
	EventVisualUpdated    = "visual.updated"
	EventVisualDeleted    = "visual.deleted"
	EventFiltersApplied   = "filters.applied"
	EventFiltersCleared   = "filters.cleared"
	EventFilterRemoved    = "filters.removed"
	EventReportSaved      = "report.saved"
)

// ReportEvent is an audit record of a change made to an embedded report
type ReportEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	ReportID  string    `json:"report_id,omitempty"`
	Page      string    `json:"page,omitempty"`
	Visual    string    `json:"visual,omitempty"`
	Level     string    `json:"level,omitempty"`
	Detail    any       `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`
}
