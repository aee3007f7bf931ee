// Package forms evaluates declarative form schemas: default values,
// conditional visibility and validation of submitted values.
package forms

// FieldType is the kind of input a field renders
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldCheckbox    FieldType = "checkbox"
	FieldRadio       FieldType = "radio"
	FieldTextarea    FieldType = "textarea"
	FieldGroup       FieldType = "group"
	FieldRepeater    FieldType = "repeater"
)

// Layout arranges the top level fields of a form
type Layout string

const (
	LayoutVertical   Layout = "vertical"
	LayoutHorizontal Layout = "horizontal"
	LayoutGrid       Layout = "grid"
)

// Condition operators
const (
	OpEq     = "eq"
	OpNeq    = "neq"
	OpIn     = "in"
	OpNotIn  = "notIn"
	OpExists = "exists"
)

// Option is one choice of a select, multiselect or radio field
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
}

// Condition makes a field visible depending on another field's value
type Condition struct {
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Validation constrains a field's value
type Validation struct {
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Message   string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// Field is one input, or a group of inputs when Type is group
type Field struct {
	Name         string      `json:"name" yaml:"name"`
	Type         FieldType   `json:"type" yaml:"type"`
	Label        string      `json:"label" yaml:"label"`
	Placeholder  string      `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Help         string      `json:"help,omitempty" yaml:"help,omitempty"`
	Required     bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Disabled     bool        `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Hidden       bool        `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	DefaultValue any         `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Options      []Option    `json:"options,omitempty" yaml:"options,omitempty"`
	OptionsFrom  string      `json:"optionsFrom,omitempty" yaml:"optionsFrom,omitempty"`
	Validation   *Validation `json:"validation,omitempty" yaml:"validation,omitempty"`
	Conditions   []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Children     []Field     `json:"children,omitempty" yaml:"children,omitempty"`
	Columns      int         `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// IsContainer reports whether the field only holds children
func (f Field) IsContainer() bool {
	return f.Type == FieldGroup
}

// Schema is a complete form
type Schema struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title,omitempty" yaml:"title,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
	SubmitLabel string  `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	Layout      Layout  `json:"layout,omitempty" yaml:"layout,omitempty"`
	Columns     int     `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// Values are submitted form values keyed by field name
type Values map[string]any
