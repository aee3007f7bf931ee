package reporttest

import "github.com/Ramsey-B/fern/pkg/models"

// DemoPages are the display names of the simulated report's pages
var DemoPages = []string{
	"Executive Summary",
	"Sales Trend",
	"Customers",
	"Products",
	"Principals",
	"Brokerage",
	"Growth",
	"Weekly Detail",
	"Scratch",
	"Scratch 2",
}

type demoVisual struct {
	typ      string
	title    string
	layout   models.VisualLayout
	category *models.DataField
	values   []string
}

func measure(name string) models.DataField {
	return models.DataField{Schema: models.SchemaMeasure, Table: "All Measures", Measure: name}
}

func columnField(table, column string) *models.DataField {
	return &models.DataField{Schema: models.SchemaColumn, Table: table, Column: column}
}

var demoVisuals = map[int][]demoVisual{
	0: {
		{typ: "card", title: "Total Sales", layout: models.VisualLayout{X: 0, Y: 0, Width: 300, Height: 150}, values: []string{"Total Sales"}},
		{typ: "card", title: "Total Cases", layout: models.VisualLayout{X: 320, Y: 0, Width: 300, Height: 150}, values: []string{"Total Cases"}},
		{typ: "lineChart", title: "Sales Over Time", layout: models.VisualLayout{X: 0, Y: 170, Width: 620, Height: 300},
			category: columnField("DimDate", "Month-Year"), values: []string{"Total Sales"}},
	},
	1: {
		{typ: "lineClusteredColumnComboChart", title: "Sales vs Brokerage", layout: models.VisualLayout{X: 0, Y: 0, Width: 800, Height: 400},
			category: columnField("DimDate", "Month-Year"), values: []string{"Total Sales", "Calculated Brokerage"}},
	},
	2: {
		{typ: "clusteredBarChart", title: "Sales by Customer", layout: models.VisualLayout{X: 0, Y: 0, Width: 600, Height: 400},
			category: columnField("dimCustomer", "Customer Code/Name"), values: []string{"Total Sales"}},
		{typ: "slicer", layout: models.VisualLayout{X: 620, Y: 0, Width: 250, Height: 400},
			category: columnField("dimCustomer", "Customer Code/Name")},
	},
	3: {
		{typ: "clusteredBarChart", title: "Sales by Product", layout: models.VisualLayout{X: 0, Y: 0, Width: 600, Height: 400},
			category: columnField("dimProduct", "Product Name-Code"), values: []string{"Total Sales"}},
	},
	4: {
		{typ: "pieChart", title: "Sales by Principal", layout: models.VisualLayout{X: 0, Y: 0, Width: 500, Height: 400},
			category: columnField("dimProduct", "Principal Name-Code"), values: []string{"Total Sales"}},
	},
}

// NewDemoReport builds a populated report used by the simulated host. The
// first page is active.
func NewDemoReport() *Report {
	r := NewReport(DemoPages...)
	for index, specs := range demoVisuals {
		page := r.pages[index]
		for _, spec := range specs {
			layout := spec.layout
			visual := page.addVisual(spec.typ, spec.title, &layout)
			if spec.category != nil {
				// slicers bind their column to the Values role
				role := "Category"
				if spec.typ == "slicer" {
					role = "Values"
				}
				visual.fields[role] = []models.DataField{*spec.category}
			}
			valuesRole := "Y"
			if spec.typ == "card" {
				valuesRole = "Fields"
			}
			for _, name := range spec.values {
				visual.fields[valuesRole] = append(visual.fields[valuesRole], measure(name))
			}
			if spec.title != "" {
				visual.props[propertyKey("title", "titleText")] = spec.title
			}
		}
	}
	return r
}

// NewDemoHost returns a host serving a fresh demo report. The loaded event
// follows every embed.
func NewDemoHost() *Host {
	return NewHost(NewDemoReport()).AutoLoad()
}
