package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/forms"
	"github.com/Ramsey-B/fern/pkg/middleware"
)

const formsDir = "../../config/forms"

func newFormsServer(t *testing.T) *echo.Echo {
	t.Helper()
	schemas, err := forms.LoadDir(formsDir)
	require.NoError(t, err)
	catalog, err := forms.LoadCatalog(filepath.Join(formsDir, forms.CatalogFile))
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(noopLogger)
	NewFormsHandler(schemas, catalog).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func serve(e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeFormState(t *testing.T, rec *httptest.ResponseRecorder) FormState {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var state FormState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	return state
}

func findField(fields []forms.Field, name string) (forms.Field, bool) {
	for _, field := range fields {
		if field.Name == name {
			return field, true
		}
		if child, ok := findField(field.Children, name); ok {
			return child, true
		}
	}
	return forms.Field{}, false
}

func TestForms_List(t *testing.T) {
	e := newFormsServer(t)

	rec := serve(e, http.MethodGet, "/api/v1/forms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []FormSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	assert.Equal(t, []FormSummary{{ID: "visual-builder", Title: "Create Power BI Visual"}}, summaries)

	rec = serve(e, http.MethodGet, "/api/v1/forms/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForms_Get(t *testing.T) {
	e := newFormsServer(t)

	state := decodeFormState(t, serve(e, http.MethodGet, "/api/v1/forms/visual-builder?visualType=lineChart&categoryTable=DimDate", nil))

	assert.Contains(t, state.Visible, "categoryTable")
	assert.NotContains(t, state.Visible, "secondValueTable")
	assert.Equal(t, float64(400), state.Values["width"])

	visualType, ok := findField(state.Schema.Fields, "visualType")
	require.True(t, ok)
	assert.NotEmpty(t, visualType.Options)

	column, ok := findField(state.Schema.Fields, "categoryColumn")
	require.True(t, ok)
	assert.Len(t, column.Options, 7)

	table, ok := findField(state.Schema.Fields, "categoryTable")
	require.True(t, ok)
	assert.Len(t, table.Options, 3)
}

func TestForms_Resolve(t *testing.T) {
	e := newFormsServer(t)

	state := decodeFormState(t, serve(e, http.MethodPost, "/api/v1/forms/visual-builder/resolve", map[string]any{
		"visualType":     "card",
		"valueTable":     "Product measures",
		"addSecondValue": true,
	}))

	assert.NotContains(t, state.Visible, "categoryTable")
	assert.Contains(t, state.Visible, "secondValueTable")

	measure, ok := findField(state.Schema.Fields, "valueMeasure")
	require.True(t, ok)
	assert.Len(t, measure.Options, 7)

	second, ok := findField(state.Schema.Fields, "secondValueMeasure")
	require.True(t, ok)
	assert.Empty(t, second.Options)
}

func TestForms_Validate(t *testing.T) {
	e := newFormsServer(t)

	tests := []struct {
		name       string
		values     map[string]any
		wantCode   int
		wantFields []string
	}{
		{
			name: "valid card",
			values: map[string]any{
				"visualType":   "card",
				"valueTable":   "All Measures",
				"valueMeasure": "Total Sales",
				"width":        400,
				"height":       300,
			},
			wantCode: http.StatusNoContent,
		},
		{
			name:       "missing type and measure",
			values:     map[string]any{"valueTable": "All Measures"},
			wantCode:   http.StatusBadRequest,
			wantFields: []string{"visualType", "valueMeasure"},
		},
		{
			name: "category required for charts",
			values: map[string]any{
				"visualType":   "lineChart",
				"valueTable":   "All Measures",
				"valueMeasure": "Total Sales",
			},
			wantCode:   http.StatusBadRequest,
			wantFields: []string{"categoryTable", "categoryColumn"},
		},
		{
			name: "width out of range",
			values: map[string]any{
				"visualType":   "card",
				"valueTable":   "All Measures",
				"valueMeasure": "Total Sales",
				"width":        50,
			},
			wantCode:   http.StatusBadRequest,
			wantFields: []string{"width"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodPost, "/api/v1/forms/visual-builder/validate", tt.values)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if len(tt.wantFields) == 0 {
				return
			}

			var body middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			fields, ok := body.Meta["fields"].(map[string]any)
			require.True(t, ok, "meta: %v", body.Meta)
			assert.Len(t, fields, len(tt.wantFields))
			for _, name := range tt.wantFields {
				assert.Contains(t, fields, name)
			}
		})
	}
}
