package visuals

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/fern/pkg/models"
)

// ErrInvalidForm is returned when builder input fails validation
var ErrInvalidForm = errors.New("invalid visual form")

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BuilderValue is one measure row of the builder form
type BuilderValue struct {
	Table   string `json:"table" validate:"required"`
	Measure string `json:"measure" validate:"required"`
}

// BuilderForm is the submitted state of the visual builder
type BuilderForm struct {
	VisualType     string         `json:"visualType" validate:"required"`
	Title          string         `json:"title"`
	CategoryTable  string         `json:"categoryTable"`
	CategoryColumn string         `json:"categoryColumn"`
	Values         []BuilderValue `json:"values" validate:"min=1,dive"`
	PosX           float64        `json:"posX" validate:"gte=0"`
	PosY           float64        `json:"posY" validate:"gte=0"`
	Width          float64        `json:"width" validate:"gte=100,lte=1920"`
	Height         float64        `json:"height" validate:"gte=100,lte=1080"`
}

// NewBuilderForm returns the empty create form
func NewBuilderForm() BuilderForm {
	return BuilderForm{
		Values: []BuilderValue{{}},
		PosX:   DefaultLayout.X,
		PosY:   DefaultLayout.Y,
		Width:  DefaultLayout.Width,
		Height: DefaultLayout.Height,
	}
}

// FormFromVisual prefills the builder from an extracted visual
func FormFromVisual(v *EditingVisual) BuilderForm {
	form := NewBuilderForm()
	if v == nil {
		return form
	}

	form.VisualType = v.Type
	form.Title = v.Title
	if category := v.DataRoles.Category; category != nil {
		form.CategoryTable = category.Table
		form.CategoryColumn = category.Column
	}
	if len(v.DataRoles.Values) > 0 {
		form.Values = make([]BuilderValue, 0, len(v.DataRoles.Values))
		for _, value := range v.DataRoles.Values {
			form.Values = append(form.Values, BuilderValue{Table: value.Table, Measure: value.Measure})
		}
	}
	form.PosX = v.Position.X
	form.PosY = v.Position.Y
	form.Width = v.Position.Width
	form.Height = v.Position.Height
	return form
}

// FormFromValues reads the flat field values produced by the visual builder
// form schema, including the optional second measure.
func FormFromValues(values map[string]any) BuilderForm {
	form := NewBuilderForm()
	form.VisualType = stringValue(values["visualType"])
	form.Title = stringValue(values["title"])
	form.CategoryTable = stringValue(values["categoryTable"])
	form.CategoryColumn = stringValue(values["categoryColumn"])

	form.Values = []BuilderValue{{
		Table:   stringValue(values["valueTable"]),
		Measure: stringValue(values["valueMeasure"]),
	}}
	if second, _ := values["addSecondValue"].(bool); second {
		form.Values = append(form.Values, BuilderValue{
			Table:   stringValue(values["secondValueTable"]),
			Measure: stringValue(values["secondValueMeasure"]),
		})
	}

	if n, ok := numberValue(values["posX"]); ok {
		form.PosX = n
	}
	if n, ok := numberValue(values["posY"]); ok {
		form.PosY = n
	}
	if n, ok := numberValue(values["width"]); ok {
		form.Width = n
	}
	if n, ok := numberValue(values["height"]); ok {
		form.Height = n
	}
	return form
}

// Validate checks the form the way the builder does before submitting
func (f BuilderForm) Validate() error {
	var problems []string

	if err := validate.Struct(f); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return fmt.Errorf("%w: %s", ErrInvalidForm, err.Error())
		}
		for _, fe := range validationErrors {
			problems = append(problems, describeFieldError(fe))
		}
	}

	if LookupType(f.VisualType).NeedsCategory {
		if f.CategoryTable == "" {
			problems = append(problems, "categoryTable is required")
		}
		if f.CategoryColumn == "" {
			problems = append(problems, "categoryColumn is required")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(problems, "; "))
	}
	return nil
}

// Config validates the form and converts it into a visual config. The
// category is only kept for types that need one.
func (f BuilderForm) Config() (models.CreateVisualConfig, error) {
	if err := f.Validate(); err != nil {
		return models.CreateVisualConfig{}, err
	}

	cfg := models.CreateVisualConfig{
		VisualType: f.VisualType,
		Title:      strings.TrimSpace(f.Title),
		DataRoles:  models.VisualDataRoles{Values: []models.ValueData{}},
		Position: models.VisualLayout{
			X:      f.PosX,
			Y:      f.PosY,
			Width:  f.Width,
			Height: f.Height,
		}.Input(),
	}

	for _, value := range f.Values {
		if value.Table != "" && value.Measure != "" {
			cfg.DataRoles.Values = append(cfg.DataRoles.Values, models.ValueData{Table: value.Table, Measure: value.Measure})
		}
	}

	if LookupType(f.VisualType).NeedsCategory && f.CategoryTable != "" && f.CategoryColumn != "" {
		cfg.DataRoles.Category = &models.CategoryData{Table: f.CategoryTable, Column: f.CategoryColumn}
	}

	return cfg, nil
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
