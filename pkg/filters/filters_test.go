package filters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{name: "integer string", input: "10", want: float64(10)},
		{name: "padded integer", input: " 42 ", want: float64(42)},
		{name: "decimal", input: "3.5", want: 3.5},
		{name: "negative", input: "-7", want: float64(-7)},
		{name: "exponent", input: "1e3", want: float64(1000)},
		{name: "text", input: "ABC", want: "ABC"},
		{name: "empty", input: "", want: ""},
		{name: "whitespace", input: "   ", want: "   "},
		{name: "nan stays text", input: "NaN", want: "NaN"},
		{name: "infinity stays text", input: "Inf", want: "Inf"},
		{name: "spelled infinity stays text", input: "Infinity", want: "Infinity"},
		{name: "hex stays text", input: "0x1A", want: "0x1A"},
		{name: "number untouched", input: 5, want: 5},
		{name: "bool untouched", input: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceValue(tt.input))
		})
	}
}

func TestBuildBasicFilter_RequiresColumn(t *testing.T) {
	tests := []struct {
		name   string
		target models.FilterTarget
	}{
		{name: "no column", target: models.FilterTarget{Table: "All Measures"}},
		{name: "measure only", target: models.FilterTarget{Table: "All Measures", Measure: "Total Sales"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildBasicFilter(Config{FilterType: KindBasic, Target: tt.target, Operator: OperatorIn, Values: []any{"1"}})
			assert.ErrorIs(t, err, ErrColumnRequired)
			assert.Equal(t, "BasicFilter requires a column target. Use AdvancedFilter for measures.", err.Error())
		})
	}
}

func TestBuildFilter_InFilterCoercesValues(t *testing.T) {
	filter, err := BuildFilter(InFilter("dimCustomer", "Customer Code/Name", "Acme", "42"))
	require.NoError(t, err)

	assert.Equal(t, models.SchemaBasicFilter, filter.Schema)
	assert.Equal(t, models.FilterTypeBasic, filter.FilterType)
	assert.Equal(t, OperatorIn, filter.Operator)
	assert.Equal(t, []any{"Acme", float64(42)}, filter.Values)
	assert.Equal(t, models.FilterTarget{Table: "dimCustomer", Column: "Customer Code/Name"}, filter.Target)

	raw, err := json.Marshal(filter)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"$schema": "http://powerbi.com/product/schema#basic",
		"target": {"table": "dimCustomer", "column": "Customer Code/Name"},
		"filterType": 1,
		"operator": "In",
		"values": ["Acme", 42]
	}`, string(raw))
}

func TestBuildAdvancedFilter(t *testing.T) {
	t.Run("measure target wins", func(t *testing.T) {
		filter, err := BuildAdvancedFilter(Config{
			FilterType:      KindAdvanced,
			Target:          models.FilterTarget{Table: "All Measures", Column: "ignored", Measure: "Total Sales"},
			LogicalOperator: LogicalOr,
			Conditions: []Condition{
				{Operator: OperatorGreaterThan, Value: " 100 "},
				{Operator: OperatorIsBlank},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, models.FilterTarget{Table: "All Measures", Measure: "Total Sales"}, filter.Target)
		assert.Equal(t, models.FilterTypeAdvanced, filter.FilterType)
		assert.Equal(t, LogicalOr, filter.LogicalOperator)
		require.Len(t, filter.Conditions, 2)
		assert.Equal(t, float64(100), filter.Conditions[0].Value)
		assert.Nil(t, filter.Conditions[1].Value)
	})

	t.Run("column target", func(t *testing.T) {
		filter, err := BuildFilter(ContainsFilter("dimProduct", "Product Name-Code", "ABC"))
		require.NoError(t, err)

		assert.Equal(t, models.FilterTarget{Table: "dimProduct", Column: "Product Name-Code"}, filter.Target)
		assert.Equal(t, []models.FilterCondition{{Operator: OperatorContains, Value: "ABC"}}, filter.Conditions)
	})

	t.Run("range", func(t *testing.T) {
		filter, err := BuildFilter(RangeFilter("DimDate", "Year", "2020", 2024))
		require.NoError(t, err)

		assert.Equal(t, LogicalAnd, filter.LogicalOperator)
		assert.Equal(t, []models.FilterCondition{
			{Operator: OperatorGreaterThanOrEqual, Value: float64(2020)},
			{Operator: OperatorLessThanOrEqual, Value: 2024},
		}, filter.Conditions)
	})
}

func TestBuildFilter_UnknownKind(t *testing.T) {
	_, err := BuildFilter(Config{FilterType: "fancy"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuildFilters_StopsAtFirstError(t *testing.T) {
	_, err := BuildFilters([]Config{
		InFilter("dimCustomer", "Customer Code/Name", "A"),
		{FilterType: KindBasic, Target: models.FilterTarget{Table: "All Measures", Measure: "Total Sales"}},
	})
	assert.ErrorIs(t, err, ErrColumnRequired)
	assert.Contains(t, err.Error(), "filter 1")
}
