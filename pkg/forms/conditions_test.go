package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckConditions(t *testing.T) {
	tests := []struct {
		name       string
		conditions []Condition
		values     Values
		want       bool
	}{
		{name: "no conditions", want: true},
		{name: "eq match", conditions: []Condition{{Field: "a", Operator: OpEq, Value: "x"}}, values: Values{"a": "x"}, want: true},
		{name: "eq mismatch", conditions: []Condition{{Field: "a", Operator: OpEq, Value: "x"}}, values: Values{"a": "y"}, want: false},
		{name: "eq is strict", conditions: []Condition{{Field: "a", Operator: OpEq, Value: true}}, values: Values{"a": "true"}, want: false},
		{name: "eq numbers across types", conditions: []Condition{{Field: "a", Operator: OpEq, Value: 1}}, values: Values{"a": float64(1)}, want: true},
		{name: "neq", conditions: []Condition{{Field: "a", Operator: OpNeq, Value: "x"}}, values: Values{"a": "y"}, want: true},
		{name: "in", conditions: []Condition{{Field: "a", Operator: OpIn, Value: []any{"x", "y"}}}, values: Values{"a": "y"}, want: true},
		{name: "in string slice", conditions: []Condition{{Field: "a", Operator: OpIn, Value: []string{"x"}}}, values: Values{"a": "x"}, want: true},
		{name: "in not a list", conditions: []Condition{{Field: "a", Operator: OpIn, Value: "x"}}, values: Values{"a": "x"}, want: false},
		{name: "notIn", conditions: []Condition{{Field: "a", Operator: OpNotIn, Value: []any{"x"}}}, values: Values{"a": "y"}, want: true},
		{name: "notIn not a list", conditions: []Condition{{Field: "a", Operator: OpNotIn, Value: "x"}}, values: Values{"a": "y"}, want: false},
		{name: "exists", conditions: []Condition{{Field: "a", Operator: OpExists}}, values: Values{"a": "v"}, want: true},
		{name: "exists empty string", conditions: []Condition{{Field: "a", Operator: OpExists}}, values: Values{"a": ""}, want: false},
		{name: "exists missing", conditions: []Condition{{Field: "a", Operator: OpExists}}, values: Values{}, want: false},
		{name: "exists false", conditions: []Condition{{Field: "a", Operator: OpExists}}, values: Values{"a": false}, want: true},
		{name: "unknown operator", conditions: []Condition{{Field: "a", Operator: "matches"}}, values: Values{}, want: true},
		{
			name: "all must hold",
			conditions: []Condition{
				{Field: "a", Operator: OpEq, Value: "x"},
				{Field: "b", Operator: OpEq, Value: "y"},
			},
			values: Values{"a": "x", "b": "z"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckConditions(tt.conditions, tt.values))
		})
	}
}
