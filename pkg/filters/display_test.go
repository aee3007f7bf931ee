package filters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestParse(t *testing.T) {
	basic, err := BuildFilter(customerFilter("A", "B", "C", "D", "E"))
	require.NoError(t, err)
	advanced, err := BuildFilter(RangeFilter("DimDate", "Year", "2020", "2024"))
	require.NoError(t, err)
	untargeted := models.Filter{FilterType: models.FilterTypeBasic}

	applied := Parse([]models.Filter{basic, advanced, untargeted})
	require.Len(t, applied, 3)

	assert.Equal(t, "filter-0", applied[0].ID)
	assert.Equal(t, KindBasic, applied[0].FilterType)
	assert.Equal(t, "dimCustomer", applied[0].Table)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, applied[0].Values)
	assert.Equal(t, "In: A, B, C +2 more", applied[0].Display)

	assert.Equal(t, "filter-1", applied[1].ID)
	assert.Equal(t, KindAdvanced, applied[1].FilterType)
	assert.Equal(t, LogicalAnd, applied[1].Operator)
	assert.Equal(t, `GreaterThanOrEqual "2020" And LessThanOrEqual "2024"`, applied[1].Display)

	assert.Equal(t, "Unknown", applied[2].Table)
	assert.Equal(t, OperatorIn, applied[2].Operator)
	assert.Equal(t, "In: ", applied[2].Display)
}

func TestDisplayText(t *testing.T) {
	tests := []struct {
		name    string
		applied Applied
		want    string
	}{
		{
			name:    "basic under limit",
			applied: Applied{FilterType: KindBasic, Operator: OperatorNotIn, Values: []string{"x", "y"}},
			want:    "NotIn: x, y",
		},
		{
			name:    "basic exactly three",
			applied: Applied{FilterType: KindBasic, Operator: OperatorIn, Values: []string{"1", "2", "3"}},
			want:    "In: 1, 2, 3",
		},
		{
			name: "quotes are kept raw",
			applied: Applied{FilterType: KindAdvanced, Operator: LogicalAnd, Conditions: []models.FilterCondition{
				{Operator: OperatorContains, Value: `say "hi"`},
			}},
			want: `Contains "say "hi""`,
		},
		{
			name: "advanced without values",
			applied: Applied{FilterType: KindAdvanced, Operator: LogicalOr, Conditions: []models.FilterCondition{
				{Operator: OperatorIsBlank},
				{Operator: OperatorEquals, Value: float64(10)},
			}},
			want: `IsBlank Or Equals "10"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayText(tt.applied))
		})
	}
}

func TestParse_LargeNumbers(t *testing.T) {
	var filters []models.Filter
	require.NoError(t, json.Unmarshal([]byte(`[
		{"filterType": 1, "target": {"table": "DimDate", "column": "Year"}, "operator": "In", "values": [2024, 1000000, 25000000, 0.5]},
		{"filterType": 0, "target": {"table": "All Measures", "measure": "Total Sales"}, "logicalOperator": "And",
		 "conditions": [{"operator": "GreaterThan", "value": 1500000}]}
	]`), &filters))

	applied := Parse(filters)
	require.Len(t, applied, 2)

	assert.Equal(t, []string{"2024", "1000000", "25000000", "0.5"}, applied[0].Values)
	assert.Equal(t, "In: 2024, 1000000, 25000000 +1 more", applied[0].Display)
	assert.Equal(t, `GreaterThan "1500000"`, applied[1].Display)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1000000000000000000000", FormatValue(1e21))
	assert.Equal(t, "-2.25", FormatValue(-2.25))
	assert.Equal(t, "abc", FormatValue("abc"))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "7", FormatValue(7))
}
