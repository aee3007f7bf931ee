package expressions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportBody = map[string]any{
	"id":        "R1",
	"name":      "Sales",
	"embedUrl":  "https://app.powerbi.com/reportEmbed?reportId=R1",
	"datasetId": "D1",
	"users":     []any{"a", "b"},
	"pages":     float64(12),
}

func TestEvaluator(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		name       string
		expression string
		want       string
	}{
		{"field", "embedUrl", "https://app.powerbi.com/reportEmbed?reportId=R1"},
		{"missing", "error.message", ""},
		{"number", "pages", "12"},
		{"first element", "users[0]", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EvaluateString(tt.expression, reportBody)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_Int(t *testing.T) {
	e := NewEvaluator()

	n, err := e.EvaluateInt("pages", reportBody)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = e.EvaluateInt("name", reportBody)
	assert.Error(t, err)
}

func TestEvaluator_Strings(t *testing.T) {
	e := NewEvaluator()

	got, err := e.EvaluateStrings(map[string]string{"id": "id", "dataset": "datasetId"}, reportBody)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "R1", "dataset": "D1"}, got)

	_, err = e.EvaluateStrings(map[string]string{"bad": "id[?"}, reportBody)
	assert.ErrorContains(t, err, "bad:")
}

func TestEvaluator_Validate(t *testing.T) {
	e := NewEvaluator()
	assert.NoError(t, e.Validate("token"))
	assert.Error(t, e.Validate("token[?"))
}
