package charts

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"options-dashboard/internal/chain"
	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/models"
	"options-dashboard/pkg/utils"
)

// GEXTitle is drawn above the GEX-style chart.
const GEXTitle = "Options Activity (GEX-style) by Strike"

const (
	gexPadTop      = 60
	gexPadBottom   = 80
	gexMaxTicks    = 40
	gexLabelShare  = 0.05
	gexBarFill     = 0.8
	gexMaxBarWidth = 60
)

// referenceLine is one labelled horizontal level on the GEX chart.
type referenceLine struct {
	label string
	level float64
	color drawing.Color
	dash  []float64
}

// GEX renders one horizontal bar per strike of call OI minus put OI
// (missing OI counts as zero) with the spot, max pain, vol trigger and
// support wall levels drawn across.
func (r *Renderer) GEX(table *models.ChainTable, metrics models.DerivedMetrics, spot float64) ([]byte, error) {
	n := table.Len()
	if n == 0 {
		return nil, apperrors.ErrEmptyTable
	}

	strikes := table.Strikes()
	gex := make(stats.Float64Data, n)
	for i, row := range table.Rows {
		gex[i] = float64(row.NetOI())
	}

	refs := referenceLines(metrics, spot)

	xMin, xMax := gexXRange(gex)
	yMin, yMax, gap := gexYRange(strikes, refs)

	plotHeight := float64(r.opts.GEXHeight - gexPadTop - gexPadBottom)
	barWidth := gexBarFill * plotHeight * gap / (yMax - yMin)
	barWidth = math.Max(1, math.Min(gexMaxBarWidth, barWidth))

	series := make([]chart.Series, 0, n+len(refs)+3)
	for i, strike := range strikes {
		if gex[i] == 0 {
			continue
		}
		color := colorPositive
		if gex[i] < 0 {
			color = colorNegative
		}
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{0, gex[i]},
			YValues: []float64{strike, strike},
			Style: chart.Style{
				StrokeColor: withAlpha(color, 180),
				StrokeWidth: barWidth,
			},
		})
	}

	series = append(series, chart.ContinuousSeries{
		Name:    "zero",
		XValues: []float64{0, 0},
		YValues: []float64{yMin, yMax},
		Style:   chart.Style{StrokeColor: colorAxis, StrokeWidth: 2},
	})

	refLabels := chart.AnnotationSeries{
		Name:  "levels",
		Style: chart.Style{FontSize: 12, StrokeWidth: 1, FillColor: withAlpha(colorBackground, 220)},
	}
	labelX := xMax - 0.3*(xMax-xMin)
	for _, ref := range refs {
		series = append(series, chart.ContinuousSeries{
			Name:    ref.label,
			XValues: []float64{xMin, xMax},
			YValues: []float64{ref.level, ref.level},
			Style: chart.Style{
				StrokeColor:     ref.color,
				StrokeWidth:     3,
				StrokeDashArray: ref.dash,
			},
		})
		refLabels.Annotations = append(refLabels.Annotations, chart.Value2{
			XValue: labelX,
			YValue: ref.level,
			Label:  ref.label,
			Style:  chart.Style{FontColor: ref.color, StrokeColor: ref.color, FillColor: withAlpha(colorBackground, 220)},
		})
	}

	if values := valueLabels(strikes, gex, xMax-xMin); len(values.Annotations) > 0 {
		series = append(series, values)
	}
	if len(refLabels.Annotations) > 0 {
		series = append(series, refLabels)
	}

	graph := chart.Chart{
		Title:      GEXTitle,
		TitleStyle: chart.Style{FontSize: 18},
		Width:      r.opts.GEXWidth,
		Height:     r.opts.GEXHeight,
		Background: chart.Style{Padding: chart.Box{Top: gexPadTop, Left: 30, Right: 40, Bottom: 30}},
		XAxis: chart.XAxis{
			Name:           "GEX (Call OI - Put OI)",
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
			ValueFormatter: countFormatter,
			GridMajorStyle: chart.Style{StrokeColor: withAlpha(colorAxis, 40), StrokeWidth: 1},
		},
		YAxis: chart.YAxis{
			Name:  "Strike Price",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
			Ticks: strikeTicks(strikes),
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering GEX chart: %w", err)
	}
	return buf.Bytes(), nil
}

func referenceLines(metrics models.DerivedMetrics, spot float64) []referenceLine {
	var refs []referenceLine
	if spot > 0 {
		refs = append(refs, referenceLine{
			label: "Spot: " + strconv.FormatFloat(spot, 'f', -1, 64),
			level: spot,
			color: colorSpot,
			dash:  []float64{10, 6},
		})
	}
	if metrics.MaxPain != nil {
		refs = append(refs, referenceLine{
			label: "Max Pain: " + chain.FormatOneDecimal(*metrics.MaxPain),
			level: *metrics.MaxPain,
			color: colorMaxPain,
			dash:  []float64{3, 5},
		})
	}
	if metrics.VolTrigger != nil {
		refs = append(refs, referenceLine{
			label: "Vol Trigger: " + chain.FormatOneDecimal(*metrics.VolTrigger),
			level: *metrics.VolTrigger,
			color: colorVolTrigger,
			dash:  []float64{12, 5, 3, 5},
		})
	}
	if metrics.SupportWall != nil {
		refs = append(refs, referenceLine{
			label: "Y Wall: " + chain.FormatOneDecimal(*metrics.SupportWall),
			level: *metrics.SupportWall,
			color: colorSupportWall,
		})
	}
	return refs
}

// gexXRange spans zero and every bar with room for the value labels.
func gexXRange(gex stats.Float64Data) (float64, float64) {
	lo, _ := stats.Min(gex)
	hi, _ := stats.Max(gex)
	lo = math.Min(lo, 0)
	hi = math.Max(hi, 0)

	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - 0.15*span, hi + 0.15*span
}

// gexYRange spans the strikes and reference levels padded by one strike
// step, and returns that step.
func gexYRange(strikes []float64, refs []referenceLine) (float64, float64, float64) {
	gap := math.Inf(1)
	for i := 1; i < len(strikes); i++ {
		if d := strikes[i] - strikes[i-1]; d > 0 && d < gap {
			gap = d
		}
	}
	if math.IsInf(gap, 1) {
		gap = math.Max(1, math.Abs(strikes[0])*0.01)
	}

	lo, hi := strikes[0], strikes[len(strikes)-1]
	for _, ref := range refs {
		lo = math.Min(lo, ref.level)
		hi = math.Max(hi, ref.level)
	}
	return lo - gap, hi + gap, gap
}

// valueLabels annotates bars larger than 5% of the largest magnitude.
func valueLabels(strikes []float64, gex stats.Float64Data, xSpan float64) chart.AnnotationSeries {
	labels := chart.AnnotationSeries{
		Name: "values",
		Style: chart.Style{
			FontSize:    10,
			FontColor:   colorAxis,
			StrokeColor: drawing.ColorTransparent,
			FillColor:   drawing.ColorTransparent,
		},
	}

	largest := 0.0
	for _, g := range gex {
		largest = math.Max(largest, math.Abs(g))
	}
	if largest == 0 {
		return labels
	}

	for i, g := range gex {
		if math.Abs(g) <= largest*gexLabelShare {
			continue
		}
		x := g + 0.01*xSpan
		if g < 0 {
			x = g - 0.08*xSpan
		}
		labels.Annotations = append(labels.Annotations, chart.Value2{
			XValue: x,
			YValue: strikes[i],
			Label:  utils.FormatCount(int64(g)),
		})
	}
	return labels
}

// strikeTicks labels the strikes, thinned to at most gexMaxTicks.
func strikeTicks(strikes []float64) []chart.Tick {
	step := (len(strikes) + gexMaxTicks - 1) / gexMaxTicks
	if step < 1 {
		step = 1
	}
	ticks := make([]chart.Tick, 0, len(strikes)/step+1)
	for i := 0; i < len(strikes); i += step {
		ticks = append(ticks, chart.Tick{
			Value: strikes[i],
			Label: strconv.FormatFloat(strikes[i], 'f', -1, 64),
		})
	}
	return ticks
}

func countFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return utils.FormatCount(int64(math.Round(f)))
	}
	return ""
}
