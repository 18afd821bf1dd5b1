package eda

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	chartWidth  = 980
	chartHeight = 560
	histBins    = 30
	barTopK     = 10

	marginLeft   = 80
	marginRight  = 24
	marginTop    = 40
	marginBottom = 70
)

var (
	colWhite   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colInk     = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colGrid    = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	colBar     = color.RGBA{0x1f, 0x77, 0xb4, 0xff}
	colPresent = color.RGBA{0x44, 0x01, 0x54, 0xff}
	colMissing = color.RGBA{0xfd, 0xe7, 0x25, 0xff}
	colNaN     = color.RGBA{0xbb, 0xbb, 0xbb, 0xff}
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SafeFileName replaces characters that are not safe in a file name with '_'.
func SafeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}

// ImageDir returns <storageRoot>/images/<datasetID>.
func ImageDir(storageRoot, datasetID string) string {
	return filepath.Join(storageRoot, "images", datasetID)
}

// RenderCharts writes the chart PNGs for f into dir and returns them in slide
// order.
func RenderCharts(f *Frame, dir string, opts Options) ([]Chart, error) {
	opts = opts.withDefaults()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	charts := []Chart{}
	add := func(title, file string, c *canvas) error {
		p := filepath.Join(dir, file)
		if err := c.save(p); err != nil {
			return err
		}
		charts = append(charts, Chart{Title: title, Path: p})
		return nil
	}

	if hasMissing(f) {
		if err := add("Missingness", "missingness.png", missingnessChart(f)); err != nil {
			return nil, err
		}
	}

	num := f.NumericColumns()
	if len(num) >= 2 {
		if err := add("Correlation heatmap", "correlation.png", correlationChart(num)); err != nil {
			return nil, err
		}
	}

	for i, c := range num {
		if i >= opts.MaxNumericHists || i >= opts.MaxCols {
			break
		}
		if err := add("Distribution — "+c.Name, "hist_"+SafeFileName(c.Name)+".png", histogramChart(c)); err != nil {
			return nil, err
		}
	}

	for i, c := range f.CategoricalColumns() {
		if i >= opts.MaxCategoricalBars {
			break
		}
		if err := add("Top categories — "+c.Name, "bar_"+SafeFileName(c.Name)+".png", barChart(c)); err != nil {
			return nil, err
		}
	}
	return charts, nil
}

func hasMissing(f *Frame) bool {
	for _, c := range f.Columns {
		if c.MissingCount() > 0 {
			return true
		}
	}
	return false
}

type canvas struct {
	img  *image.RGBA
	face font.Face
}

func newCanvas(w, h int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(colWhite), image.Point{}, draw.Src)
	return &canvas{img: img, face: basicfont.Face7x13}
}

func (c *canvas) fill(x0, y0, x1, y1 int, col color.Color) {
	draw.Draw(c.img, image.Rect(x0, y0, x1, y1), image.NewUniform(col), image.Point{}, draw.Src)
}

// text draws s with its baseline at y.
func (c *canvas) text(x, y int, s string, col color.Color) {
	d := &font.Drawer{Dst: c.img, Src: image.NewUniform(col), Face: c.face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func (c *canvas) textWidth(s string) int {
	return font.MeasureString(c.face, s).Ceil()
}

func (c *canvas) centered(cx, y int, s string, col color.Color) {
	c.text(cx-c.textWidth(s)/2, y, s, col)
}

func (c *canvas) title(s string) {
	c.centered(c.img.Bounds().Dx()/2, marginTop-16, s, colInk)
}

func (c *canvas) axes(x0, y0, x1, y1 int) {
	c.fill(x0, y0, x0+1, y1, colInk)
	c.fill(x0, y1-1, x1, y1, colInk)
}

func (c *canvas) save(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := png.Encode(fh, c.img); err != nil {
		fh.Close()
		return fmt.Errorf("encode chart: %w", err)
	}
	return fh.Close()
}

func plotArea() (x0, y0, x1, y1 int) {
	return marginLeft, marginTop, chartWidth - marginRight, chartHeight - marginBottom
}

func truncateLabel(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max < 2 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "~"
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// missingnessChart draws the row x column NA mask, one band per column.
func missingnessChart(f *Frame) *canvas {
	c := newCanvas(chartWidth, chartHeight)
	c.title("Missingness by row/column")
	x0, y0, x1, y1 := plotArea()
	w, h := x1-x0, y1-y0
	ncols := len(f.Columns)
	if ncols == 0 || f.NRows == 0 {
		c.axes(x0, y0, x1, y1)
		return c
	}
	for px := 0; px < w; px++ {
		col := f.Columns[px*ncols/w]
		for py := 0; py < h; py++ {
			row := py * f.NRows / h
			shade := colPresent
			if col.Missing[row] {
				shade = colMissing
			}
			c.img.Set(x0+px, y0+py, shade)
		}
	}
	c.axes(x0, y0, x1, y1)
	c.centered((x0+x1)/2, y1+40, "Columns", colInk)
	c.text(8, (y0+y1)/2, "Rows", colInk)
	return c
}

// diverging maps r in [-1, 1] to blue-white-red.
func diverging(r float64) color.RGBA {
	if math.IsNaN(r) {
		return colNaN
	}
	r = math.Max(-1, math.Min(1, r))
	t := uint8(255 * (1 - math.Abs(r)))
	if r >= 0 {
		return color.RGBA{0xff, t, t, 0xff}
	}
	return color.RGBA{t, t, 0xff, 0xff}
}

func correlationChart(num []*Column) *canvas {
	c := newCanvas(chartWidth, chartHeight+120)
	c.title("Correlation heatmap")
	n := len(num)
	left, top := 140, marginTop
	size := chartHeight - marginTop
	if avail := chartWidth - left - 120; avail < size {
		size = avail
	}
	cell := size / n
	if cell < 1 {
		cell = 1
	}
	maxChars := 18
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r := 1.0
			if i != j {
				var ok bool
				if r, ok = PairwisePearson(num[i], num[j]); !ok {
					r = math.NaN()
				}
			}
			c.fill(left+j*cell, top+i*cell, left+(j+1)*cell, top+(i+1)*cell, diverging(r))
		}
		if cell >= 10 {
			label := truncateLabel(num[i].Name, maxChars)
			c.text(left-6-c.textWidth(label), top+i*cell+cell/2+4, label, colInk)
			c.text(left+i*cell+2, top+n*cell+16+(i%2)*14, truncateLabel(num[i].Name, cell/7), colInk)
		}
	}

	// legend
	lx := left + n*cell + 30
	for py := 0; py < size; py++ {
		r := 1 - 2*float64(py)/float64(size)
		c.fill(lx, top+py, lx+20, top+py+1, diverging(r))
	}
	c.text(lx+26, top+10, "1", colInk)
	c.text(lx+26, top+size/2+4, "0", colInk)
	c.text(lx+26, top+size, "-1", colInk)
	return c
}

func histogramChart(col *Column) *canvas {
	c := newCanvas(chartWidth, chartHeight)
	c.title("Distribution of " + col.Name)
	x0, y0, x1, y1 := plotArea()
	vals := col.Values()
	counts, lo, hi := histogram(vals, histBins)

	peak := 0
	for _, n := range counts {
		if n > peak {
			peak = n
		}
	}
	c.fill(x0, y0, x1, y0+1, colGrid)
	if peak > 0 {
		bw := float64(x1-x0) / float64(len(counts))
		for i, n := range counts {
			bh := int(float64(n) / float64(peak) * float64(y1-y0))
			bx0 := x0 + int(float64(i)*bw)
			bx1 := x0 + int(float64(i+1)*bw) - 1
			c.fill(bx0, y1-bh, bx1, y1, colBar)
		}
		c.text(x0-8-c.textWidth(strconv.Itoa(peak)), y0+4, strconv.Itoa(peak), colInk)
		c.text(x0, y1+16, formatTick(lo), colInk)
		hiLabel := formatTick(hi)
		c.text(x1-c.textWidth(hiLabel), y1+16, hiLabel, colInk)
	}
	c.axes(x0, y0, x1, y1)
	c.centered((x0+x1)/2, y1+40, col.Name, colInk)
	c.text(8, (y0+y1)/2, "Count", colInk)
	return c
}

// histogram bins vals into n equal-width bins over [min, max]. A constant
// series is centred in a unit-wide range.
func histogram(vals []float64, n int) ([]int, float64, float64) {
	counts := make([]int, n)
	if len(vals) == 0 {
		return counts, math.NaN(), math.NaN()
	}
	lo, hi := MinMax(vals)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		counts[i]++
	}
	return counts, lo, hi
}

func barChart(col *Column) *canvas {
	c := newCanvas(chartWidth, chartHeight)
	c.title("Top " + strconv.Itoa(barTopK) + " " + col.Name)
	x0, y0, x1, y1 := plotArea()
	top := TopValues(col, barTopK)

	peak := 0
	for _, t := range top {
		if t.Count > peak {
			peak = t.Count
		}
	}
	if peak > 0 {
		slot := (x1 - x0) / len(top)
		for i, t := range top {
			bh := int(float64(t.Count) / float64(peak) * float64(y1-y0))
			bx0 := x0 + i*slot + slot/8
			bx1 := x0 + (i+1)*slot - slot/8
			c.fill(bx0, y1-bh, bx1, y1, colBar)
			c.centered((bx0+bx1)/2, y1+16+(i%2)*14, truncateLabel(t.Name, slot/7), colInk)
		}
		c.text(x0-8-c.textWidth(strconv.Itoa(peak)), y0+4, strconv.Itoa(peak), colInk)
	}
	c.axes(x0, y0, x1, y1)
	c.centered((x0+x1)/2, y1+50, col.Name, colInk)
	c.text(8, (y0+y1)/2, "Count", colInk)
	return c
}
