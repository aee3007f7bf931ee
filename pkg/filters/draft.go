package filters

import (
	"errors"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
)

// TargetType selects whether a draft filters a column or a measure
type TargetType string

const (
	TargetColumn  TargetType = "column"
	TargetMeasure TargetType = "measure"
)

var (
	// ErrIncompleteDraft is returned when a draft has no target or no usable values
	ErrIncompleteDraft = errors.New("filter draft is incomplete")

	// ErrBasicMeasure is returned when a basic filter is requested for a measure target
	ErrBasicMeasure = errors.New("basic filters are not available for measures")
)

// DraftCondition is an advanced condition as typed into the builder
type DraftCondition struct {
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Draft is the state of the filter builder form
type Draft struct {
	Level           Level            `json:"level"`
	FilterType      Kind             `json:"filterType"`
	TargetType      TargetType       `json:"targetType"`
	Table           string           `json:"table"`
	Field           string           `json:"field"`
	BasicOperator   string           `json:"basicOperator"`
	BasicValues     []string         `json:"basicValues"`
	LogicalOperator string           `json:"logicalOperator"`
	Conditions      []DraftCondition `json:"conditions"`
}

// NewDraft returns an empty basic column draft
func NewDraft(level Level) *Draft {
	return &Draft{
		Level:           level,
		FilterType:      KindBasic,
		TargetType:      TargetColumn,
		BasicOperator:   OperatorIn,
		BasicValues:     []string{""},
		LogicalOperator: LogicalAnd,
		Conditions:      []DraftCondition{{Operator: OperatorEquals}},
	}
}

// SetTargetType switches between column and measure. Measures force an advanced filter.
func (d *Draft) SetTargetType(t TargetType) {
	d.TargetType = t
	d.Field = ""
	if t == TargetMeasure {
		d.FilterType = KindAdvanced
	}
}

// SetFilterType switches the filter kind
func (d *Draft) SetFilterType(kind Kind) error {
	if kind == KindBasic && d.TargetType == TargetMeasure {
		return ErrBasicMeasure
	}
	d.FilterType = kind
	return nil
}

// SetTable selects a table and clears the selected field
func (d *Draft) SetTable(table string) {
	d.Table = table
	d.Field = ""
}

// Config converts the draft into a filter config. Blank basic values are
// dropped, and so are blank conditions unless the operator takes no value.
func (d *Draft) Config() (Config, error) {
	if d.Table == "" || d.Field == "" {
		return Config{}, ErrIncompleteDraft
	}

	target := models.FilterTarget{Table: d.Table}
	if d.TargetType == TargetMeasure {
		target.Measure = d.Field
	} else {
		target.Column = d.Field
	}

	if d.FilterType == KindBasic {
		if d.TargetType == TargetMeasure {
			return Config{}, ErrBasicMeasure
		}
		values := ectolinq.Filter(d.BasicValues, func(v string) bool {
			return strings.TrimSpace(v) != ""
		})
		if len(values) == 0 {
			return Config{}, ErrIncompleteDraft
		}
		return Config{
			FilterType: KindBasic,
			Target:     target,
			Operator:   d.BasicOperator,
			Values:     ectolinq.Map(values, func(v string) any { return v }),
		}, nil
	}

	var conditions []Condition
	for _, c := range d.Conditions {
		if takesNoValue(c.Operator) {
			conditions = append(conditions, Condition{Operator: c.Operator})
			continue
		}
		if strings.TrimSpace(c.Value) == "" {
			continue
		}
		conditions = append(conditions, Condition{Operator: c.Operator, Value: c.Value})
	}
	if len(conditions) == 0 {
		return Config{}, ErrIncompleteDraft
	}

	return Config{
		FilterType:      KindAdvanced,
		Target:          target,
		LogicalOperator: d.LogicalOperator,
		Conditions:      conditions,
	}, nil
}

func takesNoValue(operator string) bool {
	return operator == OperatorIsBlank || operator == OperatorIsNotBlank
}
