package models

import "encoding/json"

const (
	// SchemaBasicFilter tags a basic filter
	SchemaBasicFilter = "http://powerbi.com/product/schema#basic"
	// SchemaAdvancedFilter tags an advanced filter
	SchemaAdvancedFilter = "http://powerbi.com/product/schema#advanced"
)

// FilterType is the numeric discriminator of the vendor filter wire format
type FilterType int

const (
	FilterTypeAdvanced FilterType = 0
	FilterTypeBasic    FilterType = 1
)

// FilterTarget is the column or measure a filter applies to
type FilterTarget struct {
	Table   string `json:"table"`
	Column  string `json:"column,omitempty"`
	Measure string `json:"measure,omitempty"`
}

// FilterCondition is one comparison of an advanced filter
type FilterCondition struct {
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// Filter is a vendor filter object. Basic filters carry Operator and Values,
// advanced filters carry LogicalOperator and Conditions.
type Filter struct {
	Schema          string            `json:"$schema"`
	Target          FilterTarget      `json:"target"`
	FilterType      FilterType        `json:"filterType"`
	Operator        string            `json:"operator,omitempty"`
	Values          []any             `json:"values,omitempty"`
	LogicalOperator string            `json:"logicalOperator,omitempty"`
	Conditions      []FilterCondition `json:"conditions,omitempty"`
}

// IsBasic reports whether the filter uses the basic shape
func (f Filter) IsBasic() bool {
	return f.FilterType == FilterTypeBasic
}

type basicFilterJSON struct {
	Schema     string       `json:"$schema"`
	Target     FilterTarget `json:"target"`
	FilterType FilterType   `json:"filterType"`
	Operator   string       `json:"operator"`
	Values     []any        `json:"values"`
}

type advancedFilterJSON struct {
	Schema          string            `json:"$schema"`
	Target          FilterTarget      `json:"target"`
	FilterType      FilterType        `json:"filterType"`
	LogicalOperator string            `json:"logicalOperator"`
	Conditions      []FilterCondition `json:"conditions"`
}

// MarshalJSON emits only the fields that belong to the filter's shape
func (f Filter) MarshalJSON() ([]byte, error) {
	switch f.FilterType {
	case FilterTypeBasic:
		values := f.Values
		if values == nil {
			values = []any{}
		}
		return json.Marshal(basicFilterJSON{
			Schema:     f.Schema,
			Target:     f.Target,
			FilterType: f.FilterType,
			Operator:   f.Operator,
			Values:     values,
		})
	case FilterTypeAdvanced:
		conditions := f.Conditions
		if conditions == nil {
			conditions = []FilterCondition{}
		}
		return json.Marshal(advancedFilterJSON{
			Schema:          f.Schema,
			Target:          f.Target,
			FilterType:      f.FilterType,
			LogicalOperator: f.LogicalOperator,
			Conditions:      conditions,
		})
	default:
		type plain Filter
		return json.Marshal(plain(f))
	}
}
