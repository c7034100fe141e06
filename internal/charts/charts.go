// Package charts renders the heatmap and GEX-style PNG charts for a strike table.
package charts

import (
	"options-dashboard/internal/config"
	"options-dashboard/internal/models"
)

// Options holds chart dimensions in pixels.
type Options struct {
	GEXWidth         int
	GEXHeight        int
	HeatmapCellWidth int
	HeatmapRowHeight int
	HeatmapMaxWidth  int
}

// DefaultOptions returns the default chart dimensions.
func DefaultOptions() Options {
	return Options{
		GEXWidth:         1600,
		GEXHeight:        1200,
		HeatmapCellWidth: 150,
		HeatmapRowHeight: 220,
		HeatmapMaxWidth:  2400,
	}
}

// OptionsFromConfig converts the [charts] config section, keeping defaults
// for non-positive values.
func OptionsFromConfig(cfg config.ChartsConfig) Options {
	opts := DefaultOptions()
	if cfg.GEXWidth > 0 {
		opts.GEXWidth = cfg.GEXWidth
	}
	if cfg.GEXHeight > 0 {
		opts.GEXHeight = cfg.GEXHeight
	}
	if cfg.HeatmapCellWidth > 0 {
		opts.HeatmapCellWidth = cfg.HeatmapCellWidth
	}
	if cfg.HeatmapRowHeight > 0 {
		opts.HeatmapRowHeight = cfg.HeatmapRowHeight
	}
	if cfg.HeatmapMaxWidth > 0 {
		opts.HeatmapMaxWidth = cfg.HeatmapMaxWidth
	}
	return opts
}

// Renderer renders charts with fixed dimensions. Each call draws on a fresh
// canvas, so a Renderer is safe for concurrent use.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// RenderHeatmap renders the volume heatmap with default dimensions.
func RenderHeatmap(table *models.ChainTable) ([]byte, error) {
	return NewRenderer(DefaultOptions()).Heatmap(table)
}

// RenderGEX renders the GEX-style chart with default dimensions.
func RenderGEX(table *models.ChainTable, metrics models.DerivedMetrics, spot float64) ([]byte, error) {
	return NewRenderer(DefaultOptions()).GEX(table, metrics, spot)
}
