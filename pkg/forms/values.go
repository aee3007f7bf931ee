package forms

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidValues = errors.New("invalid form values")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError maps field names to their first failing message
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidValues, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidValues
}

// DefaultValues collects the initial value of every field, descending into groups.
// Multiselect fields without a default start as an empty list.
func DefaultValues(fields []Field) Values {
	values := Values{}
	collectDefaults(fields, values)
	return values
}

func collectDefaults(fields []Field, values Values) {
	for _, field := range fields {
		if field.IsContainer() {
			collectDefaults(field.Children, values)
			continue
		}
		switch {
		case field.DefaultValue != nil:
			values[field.Name] = field.DefaultValue
		case field.Type == FieldMultiselect:
			values[field.Name] = []any{}
		}
	}
}

// VisibleFields flattens the fields shown for the given values. Groups whose
// conditions fail hide all of their children.
func VisibleFields(fields []Field, values Values) []Field {
	var visible []Field
	for _, field := range fields {
		if field.Hidden || !CheckConditions(field.Conditions, values) {
			continue
		}
		if field.IsContainer() {
			visible = append(visible, VisibleFields(field.Children, values)...)
			continue
		}
		visible = append(visible, field)
	}
	return visible
}

// Validate checks the visible fields of the schema. Hidden fields are never validated.
func (s *Schema) Validate(values Values) error {
	failures := map[string]string{}
	for _, field := range VisibleFields(s.Fields, values) {
		if msg := validateField(field, values[field.Name]); msg != "" {
			failures[field.Name] = msg
		}
	}

	if len(failures) > 0 {
		return &ValidationError{Fields: failures}
	}
	return nil
}

func validateField(field Field, value any) string {
	if isEmpty(value) {
		if field.Required {
			return fmt.Sprintf("%s is required", labelOf(field))
		}
		return ""
	}

	rules := field.Validation
	if rules == nil {
		return ""
	}

	if n, ok := numberOf(value); ok {
		if rules.Min != nil && validate.Var(n, fmt.Sprintf("gte=%v", *rules.Min)) != nil {
			return messageOr(rules, fmt.Sprintf("%s must be at least %v", labelOf(field), *rules.Min))
		}
		if rules.Max != nil && validate.Var(n, fmt.Sprintf("lte=%v", *rules.Max)) != nil {
			return messageOr(rules, fmt.Sprintf("%s must be at most %v", labelOf(field), *rules.Max))
		}
	}

	if s, ok := value.(string); ok {
		if rules.MinLength != nil && validate.Var(s, fmt.Sprintf("min=%d", *rules.MinLength)) != nil {
			return messageOr(rules, fmt.Sprintf("%s must be at least %d characters", labelOf(field), *rules.MinLength))
		}
		if rules.MaxLength != nil && validate.Var(s, fmt.Sprintf("max=%d", *rules.MaxLength)) != nil {
			return messageOr(rules, fmt.Sprintf("%s must be at most %d characters", labelOf(field), *rules.MaxLength))
		}
		if rules.Pattern != "" {
			re, err := regexp.Compile(rules.Pattern)
			if err != nil || !re.MatchString(s) {
				return messageOr(rules, "Invalid format")
			}
		}
	}

	return ""
}

func labelOf(field Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func messageOr(rules *Validation, fallback string) string {
	if rules.Message != "" {
		return rules.Message
	}
	return fallback
}

// numberOf accepts numeric values and number-field strings
func numberOf(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return toFloat(v)
}

// isEmpty treats nil, blank strings, false checkboxes and empty lists as missing
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return !val
	}
	if items, ok := asList(v); ok {
		return len(items) == 0
	}
	return false
}
