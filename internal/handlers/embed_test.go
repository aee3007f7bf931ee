package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

var noopLogger = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

type staticSource struct {
	cfg models.EmbedConfig
	err error
}

func (s staticSource) EmbedConfig(context.Context) (models.EmbedConfig, error) {
	return s.cfg, s.err
}

func TestGetEmbedConfig(t *testing.T) {
	tests := []struct {
		name     string
		source   staticSource
		wantCode int
		wantBody map[string]any
	}{
		{
			name: "success",
			source: staticSource{cfg: models.EmbedConfig{
				EmbedToken: "embed-token",
				EmbedURL:   "https://embed",
				ReportID:   "R1",
				ReportName: "Sales",
				DatasetID:  "D1",
			}},
			wantCode: http.StatusOK,
			wantBody: map[string]any{
				"embedToken": "embed-token",
				"embedUrl":   "https://embed",
				"reportId":   "R1",
				"reportName": "Sales",
				"datasetId":  "D1",
			},
		},
		{
			name:     "missing configuration",
			source:   staticSource{err: errors.New("Power BI configuration is missing")},
			wantCode: http.StatusInternalServerError,
			wantBody: map[string]any{"error": "Power BI configuration is missing"},
		},
		{
			name:     "token failure",
			source:   staticSource{err: errors.New("Failed to get embed token: boom")},
			wantCode: http.StatusInternalServerError,
			wantBody: map[string]any{"error": "Failed to get embed token: boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			NewEmbedHandler(tt.source, noopLogger).RegisterRoutes(e)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/powerbi", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
