// Package filters translates declarative filter configs into vendor filter
// objects and applies them to a report, a page or a visual.
package filters

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Level is the scope a filter is applied at
type Level string

const (
	LevelVisual Level = "visual"
	LevelPage   Level = "page"
	LevelReport Level = "report"
)

// Kind selects the filter shape
type Kind string

const (
	KindBasic    Kind = "basic"
	KindAdvanced Kind = "advanced"
)

// Basic filter operators
const (
	OperatorIn    = "In"
	OperatorNotIn = "NotIn"
	OperatorAll   = "All"
)

// Advanced filter condition operators
const (
	OperatorEquals             = "Equals"
	OperatorNotEquals          = "NotEquals"
	OperatorLessThan           = "LessThan"
	OperatorLessThanOrEqual    = "LessThanOrEqual"
	OperatorGreaterThan        = "GreaterThan"
	OperatorGreaterThanOrEqual = "GreaterThanOrEqual"
	OperatorContains           = "Contains"
	OperatorDoesNotContain     = "DoesNotContain"
	OperatorStartsWith         = "StartsWith"
	OperatorDoesNotStartWith   = "DoesNotStartWith"
	OperatorEndsWith           = "EndsWith"
	OperatorDoesNotEndWith     = "DoesNotEndWith"
	OperatorIsBlank            = "IsBlank"
	OperatorIsNotBlank         = "IsNotBlank"
)

// Logical operators joining advanced conditions
const (
	LogicalAnd = "And"
	LogicalOr  = "Or"
)

var (
	// ErrColumnRequired is returned when a basic filter targets no column
	ErrColumnRequired = errors.New("BasicFilter requires a column target. Use AdvancedFilter for measures.")

	// ErrInvalidConfig is returned for configs that cannot be translated
	ErrInvalidConfig = errors.New("invalid filter config")

	// ErrFilterNotFound is returned by Remove for an unknown filter id
	ErrFilterNotFound = errors.New("filter not found")
)

// Operator is a selectable operator with its display label
type Operator struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// BasicOperators are offered by the filter builder for basic filters
var BasicOperators = []Operator{
	{Label: "Is one of", Value: OperatorIn},
	{Label: "Is not one of", Value: OperatorNotIn},
}

// AdvancedOperators are offered by the filter builder for advanced conditions
var AdvancedOperators = []Operator{
	{Label: "Equals", Value: OperatorEquals},
	{Label: "Not equals", Value: OperatorNotEquals},
	{Label: "Greater than", Value: OperatorGreaterThan},
	{Label: "Greater than or equal", Value: OperatorGreaterThanOrEqual},
	{Label: "Less than", Value: OperatorLessThan},
	{Label: "Less than or equal", Value: OperatorLessThanOrEqual},
	{Label: "Contains", Value: OperatorContains},
	{Label: "Does not contain", Value: OperatorDoesNotContain},
	{Label: "Starts with", Value: OperatorStartsWith},
	{Label: "Ends with", Value: OperatorEndsWith},
	{Label: "Is blank", Value: OperatorIsBlank},
	{Label: "Is not blank", Value: OperatorIsNotBlank},
}

// Condition is one comparison of an advanced config. A nil Value is omitted.
type Condition struct {
	Operator string `json:"operator" validate:"required"`
	Value    any    `json:"value,omitempty"`
}

// Config is a declarative filter. Basic configs use Operator and Values,
// advanced configs use LogicalOperator and Conditions.
type Config struct {
	FilterType      Kind                `json:"filterType" validate:"required,oneof=basic advanced"`
	Target          models.FilterTarget `json:"target"`
	Operator        string              `json:"operator,omitempty"`
	Values          []any               `json:"values,omitempty"`
	LogicalOperator string              `json:"logicalOperator,omitempty"`
	Conditions      []Condition         `json:"conditions,omitempty"`
}

// CoerceValue converts a string that trims to a valid number into a float64.
// Everything else is returned unchanged.
func CoerceValue(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return value
	}

	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return value
	}
	return n
}

// BuildBasicFilter builds a column membership filter
func BuildBasicFilter(cfg Config) (models.Filter, error) {
	if cfg.Target.Column == "" {
		return models.Filter{}, ErrColumnRequired
	}

	return models.Filter{
		Schema: models.SchemaBasicFilter,
		Target: models.FilterTarget{
			Table:  cfg.Target.Table,
			Column: cfg.Target.Column,
		},
		FilterType: models.FilterTypeBasic,
		Operator:   cfg.Operator,
		Values:     ectolinq.Map(cfg.Values, CoerceValue),
	}, nil
}

// BuildAdvancedFilter builds a condition filter. A measure target wins over a column.
func BuildAdvancedFilter(cfg Config) (models.Filter, error) {
	target := models.FilterTarget{Table: cfg.Target.Table}
	if cfg.Target.Measure != "" {
		target.Measure = cfg.Target.Measure
	} else {
		target.Column = cfg.Target.Column
	}

	conditions := ectolinq.Map(cfg.Conditions, func(c Condition) models.FilterCondition {
		condition := models.FilterCondition{Operator: c.Operator}
		if c.Value != nil {
			condition.Value = CoerceValue(c.Value)
		}
		return condition
	})

	return models.Filter{
		Schema:          models.SchemaAdvancedFilter,
		Target:          target,
		FilterType:      models.FilterTypeAdvanced,
		LogicalOperator: cfg.LogicalOperator,
		Conditions:      conditions,
	}, nil
}

// BuildFilter dispatches on the config kind
func BuildFilter(cfg Config) (models.Filter, error) {
	switch cfg.FilterType {
	case KindBasic:
		return BuildBasicFilter(cfg)
	case KindAdvanced:
		return BuildAdvancedFilter(cfg)
	default:
		return models.Filter{}, fmt.Errorf("%w: unknown filter type %q", ErrInvalidConfig, cfg.FilterType)
	}
}

// BuildFilters builds every config, stopping at the first error
func BuildFilters(cfgs []Config) ([]models.Filter, error) {
	built := make([]models.Filter, 0, len(cfgs))
	for i, cfg := range cfgs {
		filter, err := BuildFilter(cfg)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		built = append(built, filter)
	}
	return built, nil
}

// InFilter returns a basic "In" config
func InFilter(table, column string, values ...any) Config {
	return Config{
		FilterType: KindBasic,
		Target:     models.FilterTarget{Table: table, Column: column},
		Operator:   OperatorIn,
		Values:     values,
	}
}

// RangeFilter returns an inclusive range config
func RangeFilter(table, column string, low, high any) Config {
	return Config{
		FilterType:      KindAdvanced,
		Target:          models.FilterTarget{Table: table, Column: column},
		LogicalOperator: LogicalAnd,
		Conditions: []Condition{
			{Operator: OperatorGreaterThanOrEqual, Value: low},
			{Operator: OperatorLessThanOrEqual, Value: high},
		},
	}
}

// ContainsFilter returns a substring match config
func ContainsFilter(table, column, value string) Config {
	return Config{
		FilterType:      KindAdvanced,
		Target:          models.FilterTarget{Table: table, Column: column},
		LogicalOperator: LogicalAnd,
		Conditions:      []Condition{{Operator: OperatorContains, Value: value}},
	}
}
