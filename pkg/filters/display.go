package filters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
)

const displayedValues = 3

// Applied is a filter read back from the vendor, reshaped for display
type Applied struct {
	ID         string                   `json:"id"`
	Table      string                   `json:"table"`
	Column     string                   `json:"column,omitempty"`
	Measure    string                   `json:"measure,omitempty"`
	Operator   string                   `json:"operator"`
	Values     []string                 `json:"values,omitempty"`
	Conditions []models.FilterCondition `json:"conditions,omitempty"`
	FilterType Kind                     `json:"filterType"`
	Display    string                   `json:"displayText"`
	Raw        models.Filter            `json:"raw"`
}

// FilterID is the id of the filter at index in a read-back set
func FilterID(index int) string {
	return fmt.Sprintf("filter-%d", index)
}

// Parse classifies read-back filters. filterType 1 is basic, anything else advanced.
func Parse(filters []models.Filter) []Applied {
	applied := make([]Applied, 0, len(filters))
	for i, f := range filters {
		a := Applied{
			ID:      FilterID(i),
			Table:   f.Target.Table,
			Column:  f.Target.Column,
			Measure: f.Target.Measure,
			Raw:     f,
		}
		if a.Table == "" {
			a.Table = "Unknown"
		}

		if f.IsBasic() {
			a.FilterType = KindBasic
			a.Operator = f.Operator
			if a.Operator == "" {
				a.Operator = OperatorIn
			}
			a.Values = ectolinq.Map(f.Values, FormatValue)
		} else {
			a.FilterType = KindAdvanced
			a.Operator = f.LogicalOperator
			if a.Operator == "" {
				a.Operator = LogicalAnd
			}
			a.Conditions = f.Conditions
		}

		a.Display = DisplayText(a)
		applied = append(applied, a)
	}
	return applied
}

// FormatValue renders a filter value for display. Numbers are written in
// plain decimal notation, never exponent form.
func FormatValue(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// DisplayText renders "In: a, b, c +2 more" for basic filters and
// `GreaterThan "10" And LessThan "20"` for advanced ones
func DisplayText(a Applied) string {
	if a.FilterType == KindBasic {
		shown := a.Values
		if len(shown) > displayedValues {
			shown = shown[:displayedValues]
		}
		text := fmt.Sprintf("%s: %s", a.Operator, strings.Join(shown, ", "))
		if extra := len(a.Values) - displayedValues; extra > 0 {
			text += fmt.Sprintf(" +%d more", extra)
		}
		return text
	}

	parts := ectolinq.Map(a.Conditions, func(c models.FilterCondition) string {
		if c.Value == nil {
			return c.Operator
		}
		return c.Operator + ` "` + FormatValue(c.Value) + `"`
	})
	return strings.Join(parts, " "+a.Operator+" ")
}
