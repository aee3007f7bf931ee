package visuals

import (
	"math"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Size limits accepted by the visual builder
const (
	MinWidth  = 100
	MinHeight = 100
	MaxWidth  = 1920
	MaxHeight = 1080
)

// DefaultLayout is used for every axis a caller leaves unset
var DefaultLayout = models.VisualLayout{X: 0, Y: 0, Width: 400, Height: 300}

// NormalizePosition fills unset axes from DefaultLayout
func NormalizePosition(input *models.LayoutInput) models.VisualLayout {
	layout := DefaultLayout
	if input == nil {
		return layout
	}
	if input.X != nil {
		layout.X = *input.X
	}
	if input.Y != nil {
		layout.Y = *input.Y
	}
	if input.Width != nil {
		layout.Width = *input.Width
	}
	if input.Height != nil {
		layout.Height = *input.Height
	}
	return layout
}

// LayoutOf returns the visual's layout with defaults for anything the SDK did not report
func LayoutOf(layout *models.VisualLayout) models.VisualLayout {
	if layout == nil {
		return DefaultLayout
	}
	return *layout
}

// ClampLayout keeps x and y non-negative and the size within the builder limits
func ClampLayout(layout models.VisualLayout) models.VisualLayout {
	return models.VisualLayout{
		X:      math.Max(layout.X, 0),
		Y:      math.Max(layout.Y, 0),
		Width:  math.Min(math.Max(layout.Width, MinWidth), MaxWidth),
		Height: math.Min(math.Max(layout.Height, MinHeight), MaxHeight),
	}
}

// GridOptions places visuals on a grid. Zero Columns, Width or Height take the defaults.
type GridOptions struct {
	Columns int
	StartX  float64
	StartY  float64
	Width   float64
	Height  float64
	GapX    float64
	GapY    float64
}

// DefaultGridOptions returns two columns of 400x300 visuals 20 apart
func DefaultGridOptions() GridOptions {
	return GridOptions{
		Columns: 2,
		Width:   DefaultLayout.Width,
		Height:  DefaultLayout.Height,
		GapX:    20,
		GapY:    20,
	}
}

// GridLayout returns copies of configs positioned row by row on a grid
func GridLayout(configs []models.CreateVisualConfig, opts GridOptions) []models.CreateVisualConfig {
	defaults := DefaultGridOptions()
	if opts.Columns <= 0 {
		opts.Columns = defaults.Columns
	}
	if opts.Width <= 0 {
		opts.Width = defaults.Width
	}
	if opts.Height <= 0 {
		opts.Height = defaults.Height
	}

	placed := make([]models.CreateVisualConfig, len(configs))
	for i, cfg := range configs {
		col := i % opts.Columns
		row := i / opts.Columns
		cfg.Position = models.VisualLayout{
			X:      opts.StartX + float64(col)*(opts.Width+opts.GapX),
			Y:      opts.StartY + float64(row)*(opts.Height+opts.GapY),
			Width:  opts.Width,
			Height: opts.Height,
		}.Input()
		placed[i] = cfg
	}
	return placed
}
