package visuals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestLookupType(t *testing.T) {
	tests := []struct {
		visualType    string
		label         string
		roles         models.DataRoleNames
		category      Category
		needsCategory bool
	}{
		{visualType: TypeClusteredBarChart, label: "Bar Chart", roles: DefaultRoles, category: CategoryChart, needsCategory: true},
		{visualType: TypeComboChart, label: "Combo Chart", roles: DefaultRoles, category: CategoryChart, needsCategory: true},
		{visualType: TypeCard, label: "Card", roles: models.DataRoleNames{Category: "Fields", Values: "Fields"}, category: CategoryCard},
		{visualType: TypeTable, label: "Table", roles: models.DataRoleNames{Category: "Values", Values: "Values"}, category: CategoryTable},
		{visualType: TypeMatrix, label: "Matrix", roles: models.DataRoleNames{Category: "Rows", Values: "Values"}, category: CategoryTable},
		{visualType: TypeGauge, label: "Gauge", roles: models.DataRoleNames{Category: "Y", Values: "Y"}, category: CategoryCard},
		{visualType: TypeSlicer, label: "Slicer", roles: models.DataRoleNames{Category: "Values", Values: "Values"}, category: CategorySlicer},
		{visualType: TypeTreemap, label: "Treemap", roles: models.DataRoleNames{Category: "Group", Values: "Values"}, category: CategoryChart, needsCategory: true},
		{visualType: "waterfallChart", label: "waterfallChart", roles: DefaultRoles, category: CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.visualType, func(t *testing.T) {
			info := LookupType(tt.visualType)
			assert.Equal(t, tt.label, info.Label)
			assert.Equal(t, tt.roles, info.Roles)
			assert.Equal(t, tt.category, info.Category)
			assert.Equal(t, tt.needsCategory, info.NeedsCategory)
		})
	}
}

func TestTypeGroups(t *testing.T) {
	assert.Len(t, Types(), 18)
	assert.Contains(t, TypesWithCategory(), TypeTreemap)
	assert.NotContains(t, TypesWithCategory(), TypeCard)
	assert.Equal(t, []string{TypeCard, TypeMultiRowCard, TypeGauge}, TypesInCategory(CategoryCard))
	assert.Equal(t, TypeOption{Label: "Bar Chart", Value: TypeClusteredBarChart}, TypeOptions()[0])
	assert.False(t, IsKnownType("waterfallChart"))
}

func TestPresets(t *testing.T) {
	assert.Len(t, PresetNames(), 11)

	slicer := Presets["customerSlicer"](nil)
	assert.Equal(t, TypeSlicer, slicer.VisualType)
	assert.Equal(t, &models.CategoryData{Table: "dimCustomer", Column: "Customer Code/Name"}, slicer.DataRoles.Category)
	assert.Empty(t, slicer.DataRoles.Values)

	combo := Presets["salesVsBrokerage"](nil)
	assert.Equal(t, []models.ValueData{
		{Table: "All Measures", Measure: "Total Sales"},
		{Table: "All Measures", Measure: "Calculated Brokerage"},
	}, combo.DataRoles.Values)
}

func TestGridLayout(t *testing.T) {
	configs := []models.CreateVisualConfig{
		Presets["kpiTotalSales"](nil),
		Presets["kpiTotalCases"](nil),
		Presets["kpiBrokerage"](nil),
	}

	placed := GridLayout(configs, DefaultGridOptions())
	a := assert.New(t)
	a.Equal(models.VisualLayout{X: 0, Y: 0, Width: 400, Height: 300}, NormalizePosition(placed[0].Position))
	a.Equal(models.VisualLayout{X: 420, Y: 0, Width: 400, Height: 300}, NormalizePosition(placed[1].Position))
	a.Equal(models.VisualLayout{X: 0, Y: 320, Width: 400, Height: 300}, NormalizePosition(placed[2].Position))
	a.Nil(configs[0].Position)

	three := GridLayout(configs, GridOptions{Columns: 3, StartX: 10, Width: 200, Height: 100, GapX: 5})
	a.Equal(models.VisualLayout{X: 420, Y: 0, Width: 200, Height: 100}, NormalizePosition(three[2].Position))
}
