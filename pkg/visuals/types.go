// Package visuals reads and writes visuals on an embedded report page.
package visuals

import (
	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Visual type identifiers understood by the vendor SDK
const (
	TypeClusteredBarChart    = "clusteredBarChart"
	TypeClusteredColumnChart = "clusteredColumnChart"
	TypeBarChart             = "barChart"
	TypeColumnChart          = "columnChart"
	TypeLineChart            = "lineChart"
	TypeAreaChart            = "areaChart"
	TypePieChart             = "pieChart"
	TypeDonutChart           = "donutChart"
	TypeCard                 = "card"
	TypeMultiRowCard         = "multiRowCard"
	TypeTable                = "tableEx"
	TypeMatrix               = "matrix"
	TypeGauge                = "gauge"
	TypeSlicer               = "slicer"
	TypeTreemap              = "treemap"
	TypeFunnel               = "funnel"
	TypeScatterChart         = "scatterChart"
	TypeComboChart           = "lineClusteredColumnComboChart"
)

// Category groups visual types in pickers
type Category string

const (
	CategoryChart  Category = "chart"
	CategoryCard   Category = "card"
	CategoryTable  Category = "table"
	CategorySlicer Category = "slicer"
	CategoryOther  Category = "other"
)

// TypeInfo describes a visual type
type TypeInfo struct {
	Type          string               `json:"type"`
	Label         string               `json:"label"`
	Roles         models.DataRoleNames `json:"dataRoles"`
	Category      Category             `json:"category"`
	NeedsCategory bool                 `json:"needsCategory"`
}

// DefaultRoles are used for visual types missing from the table
var DefaultRoles = models.DataRoleNames{Category: "Category", Values: "Y"}

var (
	chartRoles = DefaultRoles
	cardRoles  = models.DataRoleNames{Category: "Fields", Values: "Fields"}
)

// knownTypes is ordered the way pickers list them
var knownTypes = []TypeInfo{
	{Type: TypeClusteredBarChart, Label: "Bar Chart", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
	{Type: TypeClusteredColumnChart, Label: "Column Chart", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
	{Type: TypeBarChart, Label: "Bar Chart", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
	{Type: TypeColumnChart, Label: "Column Chart", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
	{Type: TypeLineChart, Label: "Line Chart", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
	{Type: TypeAreaChart, Label: "Area Chart", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
	{Type: TypePieChart, Label: "Pie Chart", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
	{Type: TypeDonutChart, Label: "Donut Chart", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
	{Type: TypeCard, Label: "Card", Roles: cardRoles, Category: CategoryCard},
	{Type: TypeMultiRowCard, Label: "Multi-Row Card", Roles: cardRoles, Category: CategoryCard},
	{Type: TypeTable, Label: "Table", Roles: models.DataRoleNames{Category: "Values", Values: "Values"}, Category: CategoryTable},
	{Type: TypeMatrix, Label: "Matrix", Roles: models.DataRoleNames{Category: "Rows", Values: "Values"}, Category: CategoryTable},
	{Type: TypeGauge, Label: "Gauge", Roles: models.DataRoleNames{Category: "Y", Values: "Y"}, Category: CategoryCard},
	{Type: TypeSlicer, Label: "Slicer", Roles: models.DataRoleNames{Category: "Values", Values: "Values"}, Category: CategorySlicer},
	{Type: TypeTreemap, Label: "Treemap", Roles: models.DataRoleNames{Category: "Group", Values: "Values"}, Category: CategoryChart, NeedsCategory: true},
	{Type: TypeFunnel, Label: "Funnel", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
	{Type: TypeScatterChart, Label: "Scatter Chart", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
	{Type: TypeComboChart, Label: "Combo Chart", Roles: chartRoles, Category: CategoryChart, NeedsCategory: true},
}

var typesByName = func() map[string]TypeInfo {
	m := make(map[string]TypeInfo, len(knownTypes))
	for _, info := range knownTypes {
		m[info.Type] = info
	}
	return m
}()

// Types returns every known visual type in picker order
func Types() []TypeInfo {
	return append([]TypeInfo(nil), knownTypes...)
}

// LookupType returns the metadata of a visual type. Unknown types are labelled
// with their own name, use DefaultRoles and need no category.
func LookupType(visualType string) TypeInfo {
	if info, ok := typesByName[visualType]; ok {
		return info
	}
	return TypeInfo{
		Type:     visualType,
		Label:    visualType,
		Roles:    DefaultRoles,
		Category: CategoryOther,
	}
}

// IsKnownType reports whether the type is in the table
func IsKnownType(visualType string) bool {
	_, ok := typesByName[visualType]
	return ok
}

// TypeLabel returns the display label of a visual type
func TypeLabel(visualType string) string {
	return LookupType(visualType).Label
}

// RolesFor returns the data role names of a visual type
func RolesFor(visualType string) models.DataRoleNames {
	return LookupType(visualType).Roles
}

// TypesWithCategory returns the types that require a category binding
func TypesWithCategory() []string {
	return ectolinq.Map(ectolinq.Filter(knownTypes, func(info TypeInfo) bool {
		return info.NeedsCategory
	}), typeName)
}

// TypesInCategory returns the types grouped under category
func TypesInCategory(category Category) []string {
	return ectolinq.Map(ectolinq.Filter(knownTypes, func(info TypeInfo) bool {
		return info.Category == category
	}), typeName)
}

// TypeOption is a select option for a visual type
type TypeOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TypeOptions returns select options for every known type
func TypeOptions() []TypeOption {
	return ectolinq.Map(knownTypes, func(info TypeInfo) TypeOption {
		return TypeOption{Label: info.Label, Value: info.Type}
	})
}

func typeName(info TypeInfo) string {
	return info.Type
}
