package handlers

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/forms"
	"github.com/Ramsey-B/fern/pkg/visuals"
)

// VisualTypesOption is the catalog list the visual builder's type select reads
const VisualTypesOption = "visualTypes"

// FormsHandler serves the declarative form schemas
type FormsHandler struct {
	schemas map[string]*forms.Schema
	catalog *forms.Catalog
}

// NewFormsHandler creates a forms handler. The catalog gains the visual type list.
func NewFormsHandler(schemas map[string]*forms.Schema, catalog *forms.Catalog) *FormsHandler {
	if catalog == nil {
		catalog = &forms.Catalog{}
	}
	if catalog.Extra == nil {
		catalog.Extra = map[string][]forms.Option{}
	}
	if _, ok := catalog.Extra[VisualTypesOption]; !ok {
		for _, option := range visuals.TypeOptions() {
			catalog.Extra[VisualTypesOption] = append(catalog.Extra[VisualTypesOption], forms.Option{Label: option.Label, Value: option.Value})
		}
	}

	return &FormsHandler{schemas: schemas, catalog: catalog}
}

// FormSummary is one row of the form list
type FormSummary struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// FormState is a schema resolved against the current values
type FormState struct {
	Schema  *forms.Schema `json:"schema"`
	Values  forms.Values  `json:"values"`
	Visible []string      `json:"visible"`
}

// RegisterRoutes registers the form routes
func (h *FormsHandler) RegisterRoutes(g *echo.Group) {
	f := g.Group("/forms")
	f.GET("", h.List)
	f.GET("/:id", h.Get)
	f.POST("/:id/resolve", h.Resolve)
	f.POST("/:id/validate", h.Validate)
}

func (h *FormsHandler) schema(c echo.Context) (*forms.Schema, error) {
	schema, ok := h.schemas[c.Param("id")]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "form %s not found", c.Param("id"))
	}
	return schema, nil
}

func bindValues(c echo.Context) (forms.Values, error) {
	values := forms.Values{}
	if c.Request().ContentLength == 0 {
		return values, nil
	}
	if err := (&echo.DefaultBinder{}).BindBody(c, &values); err != nil {
		return nil, BadRequest("invalid request body")
	}
	return values, nil
}

// Resolved fills the schema's options and visibility for values. Unset values
// take their defaults.
func (h *FormsHandler) Resolved(schema *forms.Schema, values forms.Values) FormState {
	merged := forms.DefaultValues(schema.Fields)
	for name, value := range values {
		merged[name] = value
	}

	visible := []string{}
	for _, field := range forms.VisibleFields(schema.Fields, merged) {
		visible = append(visible, field.Name)
	}

	return FormState{
		Schema:  h.catalog.Resolve(schema, merged),
		Values:  merged,
		Visible: visible,
	}
}

// List handles GET /forms
func (h *FormsHandler) List(c echo.Context) error {
	summaries := []FormSummary{}
	for _, id := range forms.IDs(h.schemas) {
		summaries = append(summaries, FormSummary{ID: id, Title: h.schemas[id].Title})
	}
	return SuccessResponse(c, summaries)
}

// Get handles GET /forms/:id. Query parameters are treated as field values.
func (h *FormsHandler) Get(c echo.Context) error {
	schema, err := h.schema(c)
	if err != nil {
		return err
	}

	values := forms.Values{}
	for name, v := range c.QueryParams() {
		if len(v) > 0 {
			values[name] = v[0]
		}
	}
	return SuccessResponse(c, h.Resolved(schema, values))
}

// Resolve handles POST /forms/:id/resolve
func (h *FormsHandler) Resolve(c echo.Context) error {
	schema, err := h.schema(c)
	if err != nil {
		return err
	}

	values, err := bindValues(c)
	if err != nil {
		return err
	}
	return SuccessResponse(c, h.Resolved(schema, values))
}

// Validate handles POST /forms/:id/validate. Failures answer 400 with the
// failing fields in meta.
func (h *FormsHandler) Validate(c echo.Context) error {
	schema, err := h.schema(c)
	if err != nil {
		return err
	}

	values, err := bindValues(c)
	if err != nil {
		return err
	}

	if err := schema.Validate(values); err != nil {
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			return httperror.NewHTTPError(http.StatusBadRequest, err.Error()).AddMetaValue("fields", verr.Fields)
		}
		return err
	}
	return NoContentResponse(c)
}
