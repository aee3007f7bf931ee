package models

const (
	// SchemaColumn tags a column data field
	SchemaColumn = "http://powerbi.com/product/schema#column"
	// SchemaMeasure tags a measure data field
	SchemaMeasure = "http://powerbi.com/product/schema#measure"
	// SchemaProperty tags a visual property value
	SchemaProperty = "http://powerbi.com/product/schema#property"
)

// VisualLayout is the position and size of a visual on its page
type VisualLayout struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LayoutInput is a partially specified layout. Nil axes take defaults.
type LayoutInput struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// Input returns a fully specified input for the layout
func (l VisualLayout) Input() *LayoutInput {
	x, y, w, h := l.X, l.Y, l.Width, l.Height
	return &LayoutInput{X: &x, Y: &y, Width: &w, Height: &h}
}

// DataField is a column or measure bound to a visual data role
type DataField struct {
	Schema  string `json:"$schema,omitempty"`
	Table   string `json:"table"`
	Column  string `json:"column,omitempty"`
	Measure string `json:"measure,omitempty"`
}

// IsColumn reports whether the field targets a column
func (f DataField) IsColumn() bool {
	return f.Table != "" && f.Column != ""
}

// IsMeasure reports whether the field targets a measure
func (f DataField) IsMeasure() bool {
	return f.Table != "" && f.Measure != ""
}

// CategoryData is the category (axis) binding of a visual
type CategoryData struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ValueData is one value binding of a visual
type ValueData struct {
	Table   string `json:"table"`
	Measure string `json:"measure"`
}

// VisualDataRoles groups the bindings applied to a visual
type VisualDataRoles struct {
	Category *CategoryData `json:"category,omitempty"`
	Values   []ValueData   `json:"values"`
}

// CreateVisualConfig declares a visual to create or update
type CreateVisualConfig struct {
	VisualType string          `json:"visualType" validate:"required"`
	Title      string          `json:"title,omitempty"`
	DataRoles  VisualDataRoles `json:"dataRoles"`
	Position   *LayoutInput    `json:"position,omitempty"`
}

// DataRoleNames are the role names a visual type uses for its category and values
type DataRoleNames struct {
	Category string `json:"category"`
	Values   string `json:"values"`
}

// PropertySelector addresses a visual formatting property
type PropertySelector struct {
	ObjectName   string `json:"objectName"`
	PropertyName string `json:"propertyName"`
}

// PropertyValue is a schema-tagged property value
type PropertyValue struct {
	Schema string `json:"schema"`
	Value  any    `json:"value"`
}
