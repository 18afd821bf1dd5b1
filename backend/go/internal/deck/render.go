package deck

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"autoeda/backend/go/internal/eda"
	"autoeda/backend/go/internal/narrative"

	"github.com/unidoc/unioffice/v2/common/license"
	"github.com/unidoc/unioffice/v2/measurement"
)

const (
	slideWidth  measurement.Distance = 10 * measurement.Inch
	slideHeight measurement.Distance = 7.5 * measurement.Inch
	marginX     measurement.Distance = 0.8 * measurement.Inch
)

// 渲染引擎名称。
const (
	EngineUnioffice = "unioffice"
	EngineOOXML     = "ooxml"
)

// canvas 是一个幻灯片绘制后端。版式代码只通过它绘制，两个引擎输出相同的布局。
type canvas interface {
	addSlide(bg RGB)
	rect(x, y, w, h measurement.Distance, fill RGB)
	text(x, y, w, h measurement.Distance, lines []string, size measurement.Distance, bold bool, fg RGB)
	picture(path string, x, y, w, h measurement.Distance) error
	save(outPath string) error
}

// Builder writes planned slides to PPTX files. With a license key it renders
// through unioffice, otherwise through the built-in OOXML writer.
type Builder struct {
	licenseKey string
	once       sync.Once
	licenseErr error
}

// NewBuilder returns a Builder. A non-empty key is registered with unioffice
// on first use.
func NewBuilder(licenseKey string) *Builder {
	return &Builder{licenseKey: licenseKey}
}

// Engine 返回当前使用的渲染引擎。
func (b *Builder) Engine() string {
	if b.licenseKey == "" {
		return EngineOOXML
	}
	return EngineUnioffice
}

func (b *Builder) ensureLicense() error {
	b.once.Do(func() {
		if err := license.SetMeteredKey(b.licenseKey); err != nil {
			b.licenseErr = fmt.Errorf("register office license: %w", err)
		}
	})
	return b.licenseErr
}

func (b *Builder) newCanvas() (canvas, error) {
	if b.licenseKey == "" {
		return newOOXMLCanvas(), nil
	}
	if err := b.ensureLicense(); err != nil {
		return nil, err
	}
	return newOfficeCanvas(), nil
}

// Build renders the report for res into reportsDir and returns the file name
// only, so downloads resolve it against the reports directory.
func (b *Builder) Build(res *eda.Result, n narrative.Narrative, reportsDir, theme, accent string) (string, error) {
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	pal, err := ParsePalette(theme, accent)
	if err != nil {
		return "", err
	}
	name := ReportName(res.DatasetID, theme)
	if err := b.Render(Plan(res, n), pal, filepath.Join(reportsDir, name)); err != nil {
		return "", err
	}
	return name, nil
}

// Render writes slides to outPath.
func (b *Builder) Render(slides []Slide, pal Palette, outPath string) error {
	c, err := b.newCanvas()
	if err != nil {
		return err
	}
	for _, s := range slides {
		c.addSlide(pal.Background)
		switch s.Kind {
		case KindTitle:
			drawTitle(c, s, pal)
		case KindSection:
			drawSection(c, s, pal)
		case KindChart:
			err = drawChart(c, s, pal)
		}
		if err != nil {
			return err
		}
	}
	return c.save(outPath)
}

func drawTitle(c canvas, s Slide, pal Palette) {
	c.text(marginX, 1.8*measurement.Inch, 9*measurement.Inch, 1.2*measurement.Inch, []string{s.Title}, 44*measurement.Point, true, pal.Text)
	c.rect(marginX, 3.0*measurement.Inch, 2.5*measurement.Inch, 0.12*measurement.Inch, pal.Accent)
	c.text(marginX, 3.4*measurement.Inch, 9*measurement.Inch, 0.8*measurement.Inch, []string{s.Subtitle}, 20*measurement.Point, false, pal.Text)
}

func drawSection(c canvas, s Slide, pal Palette) {
	c.text(marginX, marginX, 9*measurement.Inch, 1.0*measurement.Inch, []string{s.Title}, 28*measurement.Point, true, pal.Text)
	c.rect(marginX, 1.75*measurement.Inch, 1.8*measurement.Inch, 0.08*measurement.Inch, pal.Accent)
	lines := s.Lines
	if len(lines) == 0 {
		lines = []string{""}
	}
	c.text(marginX, 2.1*measurement.Inch, 9.2*measurement.Inch, 4.5*measurement.Inch, lines, 18*measurement.Point, false, pal.Text)
}

func drawChart(c canvas, s Slide, pal Palette) error {
	c.text(marginX, 0.6*measurement.Inch, 9*measurement.Inch, 0.8*measurement.Inch, []string{s.Title}, 22*measurement.Point, true, pal.Text)

	px, py, err := imageSize(s.Image)
	if err != nil {
		return fmt.Errorf("load chart %s: %w", s.Image, err)
	}

	var left, top, width measurement.Distance = marginX, 1.4 * measurement.Inch, 8.8 * measurement.Inch
	if pal.Dark {
		// white mat behind the chart
		c.rect(left, top, width, 5.0*measurement.Inch, RGB{255, 255, 255})
		pad := measurement.Distance(0.15 * measurement.Inch)
		left, top, width = left+pad, top+pad, width-2*pad
	}
	height := width * 0.6
	if px > 0 {
		height = width * measurement.Distance(py) / measurement.Distance(px)
	}
	if maxH := slideHeight - top - 0.3*measurement.Inch; height > maxH {
		width = width * maxH / height
		height = maxH
	}
	return c.picture(s.Image, left, top, width, height)
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
