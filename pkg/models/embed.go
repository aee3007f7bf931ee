package models

// EmbedConfig holds the credentials issued for one embed session
type EmbedConfig struct {
	EmbedToken string `json:"embedToken"`
	EmbedURL   string `json:"embedUrl"`
	ReportID   string `json:"reportId"`
	ReportName string `json:"reportName"`
	DatasetID  string `json:"datasetId,omitempty"`
}

// PageInfo is one page of the embedded report
type PageInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// VisualSummary describes a visual for list views
type VisualSummary struct {
	Name   string       `json:"name"`
	Type   string       `json:"type"`
	Title  string       `json:"title"`
	Label  string       `json:"label"`
	Layout VisualLayout `json:"layout"`
}
