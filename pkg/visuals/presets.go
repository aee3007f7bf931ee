package visuals

import (
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Data model names used by the presets
const (
	tableDate     = "DimDate"
	tableCustomer = "dimCustomer"
	tableProduct  = "dimProduct"
	tableMeasures = "All Measures"

	columnMonthYear = "Month-Year"
	columnCustomer  = "Customer Code/Name"
	columnProduct   = "Product Name-Code"
	columnPrincipal = "Principal Name-Code"

	measureTotalSales = "Total Sales"
	measureTotalCases = "Total Cases"
	measureBrokerage  = "Calculated Brokerage"
)

// Preset builds a ready-made visual config at an optional position
type Preset func(position *models.LayoutInput) models.CreateVisualConfig

func preset(visualType, title string, category *models.CategoryData, measures ...string) Preset {
	return func(position *models.LayoutInput) models.CreateVisualConfig {
		values := make([]models.ValueData, 0, len(measures))
		for _, measure := range measures {
			values = append(values, models.ValueData{Table: tableMeasures, Measure: measure})
		}
		return models.CreateVisualConfig{
			VisualType: visualType,
			Title:      title,
			DataRoles:  models.VisualDataRoles{Category: category, Values: values},
			Position:   position,
		}
	}
}

func column(table, name string) *models.CategoryData {
	return &models.CategoryData{Table: table, Column: name}
}

// Presets are keyed by name. Slicers bind their column through the category,
// which maps to the slicer's Values role.
var Presets = map[string]Preset{
	"salesOverTime":    preset(TypeLineChart, "Sales Over Time", column(tableDate, columnMonthYear), measureTotalSales),
	"salesByCustomer":  preset(TypeClusteredBarChart, "Sales by Customer", column(tableCustomer, columnCustomer), measureTotalSales),
	"salesByProduct":   preset(TypeClusteredBarChart, "Sales by Product", column(tableProduct, columnProduct), measureTotalSales),
	"salesByPrincipal": preset(TypePieChart, "Sales by Principal", column(tableProduct, columnPrincipal), measureTotalSales),
	"kpiTotalSales":    preset(TypeCard, "Total Sales", nil, measureTotalSales),
	"kpiTotalCases":    preset(TypeCard, "Total Cases", nil, measureTotalCases),
	"kpiBrokerage":     preset(TypeCard, "Calculated Brokerage", nil, measureBrokerage),
	"salesVsBrokerage": preset(TypeComboChart, "Sales vs Brokerage", column(tableDate, columnMonthYear), measureTotalSales, measureBrokerage),
	"customerSlicer":   preset(TypeSlicer, "", column(tableCustomer, columnCustomer)),
	"dateSlicer":       preset(TypeSlicer, "", column(tableDate, columnMonthYear)),
	"principalSlicer":  preset(TypeSlicer, "", column(tableProduct, columnPrincipal)),
}

// PresetNames returns the preset names in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
