package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/montanaflynn/stats"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/models"
	"options-dashboard/pkg/utils"
)

// HeatmapTitle is drawn above the heatmap.
const HeatmapTitle = "Call/Put Volume Heatmap by Strike"

const (
	heatmapLeft     = 90
	heatmapRight    = 130
	heatmapTop      = 50
	heatmapBottom   = 60
	heatmapMinCell  = 24
	heatmapBarGap   = 20
	heatmapBarWidth = 18
)

var heatmapRows = []string{"Call Vol", "Put Vol"}

// heatmapColumn is one grid column: a strike, or a run of adjacent strikes
// when the table is too wide for the canvas.
type heatmapColumn struct {
	label string
	call  float64
	put   float64
}

// heatmapColumns returns at most maxCols columns. Runs of adjacent strikes
// are merged by summing their volume and labelled "first-last".
func heatmapColumns(table *models.ChainTable, maxCols int) []heatmapColumn {
	n := table.Len()
	if maxCols < 1 {
		maxCols = 1
	}
	size := (n + maxCols - 1) / maxCols
	if size < 1 {
		size = 1
	}

	cols := make([]heatmapColumn, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		var col heatmapColumn
		for _, row := range table.Rows[start:end] {
			col.call += float64(models.Value(row.CallVolume))
			col.put += float64(models.Value(row.PutVolume))
		}
		col.label = strconv.FormatFloat(table.Rows[start].Strike, 'f', -1, 64)
		if end-start > 1 {
			col.label += "-" + strconv.FormatFloat(table.Rows[end-1].Strike, 'f', -1, 64)
		}
		cols = append(cols, col)
	}
	return cols
}

// Heatmap renders a 2 x N grid of call and put volume per strike. Missing
// volume is drawn as zero and the colour scale runs from 0 to the largest
// volume in the table. Past HeatmapMaxWidth adjacent strikes share a column.
func (r *Renderer) Heatmap(table *models.ChainTable) ([]byte, error) {
	if table.Len() == 0 {
		return nil, apperrors.ErrEmptyTable
	}

	cols := heatmapColumns(table, (r.opts.HeatmapMaxWidth-heatmapLeft-heatmapRight)/heatmapMinCell)
	n := len(cols)
	values := [2][]float64{make([]float64, n), make([]float64, n)}
	for i, col := range cols {
		values[0][i] = col.call
		values[1][i] = col.put
	}
	maxVol, err := stats.Max(append(append(stats.Float64Data{}, values[0]...), values[1]...))
	if err != nil {
		return nil, fmt.Errorf("heatmap scale: %w", err)
	}

	cellW := r.opts.HeatmapCellWidth
	if fit := (r.opts.HeatmapMaxWidth - heatmapLeft - heatmapRight) / n; fit < cellW {
		cellW = fit
	}
	if cellW < heatmapMinCell {
		cellW = heatmapMinCell
	}
	rowH := r.opts.HeatmapRowHeight

	width := heatmapLeft + n*cellW + heatmapRight
	height := heatmapTop + len(heatmapRows)*rowH + heatmapBottom

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	text := image.NewUniform(colorText)

	drawCentered(img, face, text, width/2, heatmapTop/2+5, HeatmapTitle)

	for ri, label := range heatmapRows {
		y0 := heatmapTop + ri*rowH
		for ci := 0; ci < n; ci++ {
			x0 := heatmapLeft + ci*cellW
			t := 0.0
			if maxVol > 0 {
				t = values[ri][ci] / maxVol
			}
			cell := image.Rect(x0, y0, x0+cellW, y0+rowH)
			draw.Draw(img, cell, image.NewUniform(scaleColor(t)), image.Point{}, draw.Src)
		}
		lw := font.MeasureString(face, label).Ceil()
		drawText(img, face, text, heatmapLeft-lw-8, y0+rowH/2+4, label)
	}
	drawGrid(img, n, cellW, rowH)

	// Strike labels, thinned so they never overlap.
	labels := make([]string, n)
	widest := 0
	for i, col := range cols {
		labels[i] = col.label
		if w := font.MeasureString(face, labels[i]).Ceil(); w > widest {
			widest = w
		}
	}
	step := (widest + 6 + cellW - 1) / cellW
	if step < 1 {
		step = 1
	}
	gridBottom := heatmapTop + len(heatmapRows)*rowH
	for i := 0; i < n; i += step {
		drawCentered(img, face, text, heatmapLeft+i*cellW+cellW/2, gridBottom+18, labels[i])
	}
	axis := "Strike"
	if n < table.Len() {
		axis = "Strike (adjacent strikes summed)"
	}
	drawCentered(img, face, text, heatmapLeft+n*cellW/2, gridBottom+44, axis)

	drawColorBar(img, face, text, heatmapLeft+n*cellW+heatmapBarGap, heatmapTop, gridBottom, maxVol)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding heatmap: %w", err)
	}
	return buf.Bytes(), nil
}

// drawGrid separates the cells with thin white lines.
func drawGrid(img *image.RGBA, n, cellW, rowH int) {
	line := image.NewUniform(colorGrid)
	bottom := heatmapTop + len(heatmapRows)*rowH
	right := heatmapLeft + n*cellW
	for ci := 1; ci < n; ci++ {
		x := heatmapLeft + ci*cellW
		draw.Draw(img, image.Rect(x, heatmapTop, x+1, bottom), line, image.Point{}, draw.Src)
	}
	for ri := 1; ri < len(heatmapRows); ri++ {
		y := heatmapTop + ri*rowH
		draw.Draw(img, image.Rect(heatmapLeft, y, right, y+1), line, image.Point{}, draw.Src)
	}
}

// drawColorBar draws the vertical scale with 0, mid and max ticks.
func drawColorBar(img *image.RGBA, face font.Face, src image.Image, x, top, bottom int, maxVol float64) {
	h := bottom - top
	for y := 0; y < h; y++ {
		t := 1 - float64(y)/float64(h-1)
		draw.Draw(img, image.Rect(x, top+y, x+heatmapBarWidth, top+y+1), image.NewUniform(scaleColor(t)), image.Point{}, draw.Src)
	}

	ticks := []float64{maxVol, maxVol / 2, 0}
	for i, v := range ticks {
		y := top + i*(h-1)/(len(ticks)-1)
		draw.Draw(img, image.Rect(x+heatmapBarWidth, y, x+heatmapBarWidth+4, y+1), image.NewUniform(colorAxis), image.Point{}, draw.Src)
		drawText(img, face, src, x+heatmapBarWidth+7, y+4, utils.FormatCount(int64(v)))
	}
}

func drawText(img draw.Image, face font.Face, src image.Image, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  src,
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

func drawCentered(img draw.Image, face font.Face, src image.Image, cx, y int, s string) {
	w := font.MeasureString(face, s).Ceil()
	drawText(img, face, src, cx-w/2, y, s)
}

