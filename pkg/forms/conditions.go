package forms

import (
	"reflect"
)

// CheckConditions reports whether every condition holds for values.
// Unknown operators hold.
func CheckConditions(conditions []Condition, values Values) bool {
	for _, c := range conditions {
		if !checkCondition(c, values[c.Field]) {
			return false
		}
	}
	return true
}

func checkCondition(c Condition, value any) bool {
	switch c.Operator {
	case OpEq:
		return strictEqual(value, c.Value)
	case OpNeq:
		return !strictEqual(value, c.Value)
	case OpIn:
		items, ok := asList(c.Value)
		return ok && contains(items, value)
	case OpNotIn:
		items, ok := asList(c.Value)
		return ok && !contains(items, value)
	case OpExists:
		return !isBlank(value)
	default:
		return true
	}
}

// strictEqual compares scalars by kind and value. Numbers of any Go type compare by value.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if na, ok := toFloat(a); ok {
		nb, ok := toFloat(b)
		return ok && na == nb
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if !ta.Comparable() || !tb.Comparable() {
		return false
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func asList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func contains(items []any, value any) bool {
	for _, item := range items {
		if strictEqual(item, value) {
			return true
		}
	}
	return false
}

// isBlank is true for nil and the empty string
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
