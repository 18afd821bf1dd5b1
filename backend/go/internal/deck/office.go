package deck

import (
	"fmt"

	"github.com/unidoc/unioffice/v2/color"
	"github.com/unidoc/unioffice/v2/common"
	"github.com/unidoc/unioffice/v2/measurement"
	"github.com/unidoc/unioffice/v2/presentation"
)

// officeCanvas 通过 unioffice 绘制，需要已注册的许可证。
type officeCanvas struct {
	ppt   *presentation.Presentation
	slide presentation.Slide
}

func newOfficeCanvas() *officeCanvas {
	return &officeCanvas{ppt: presentation.New()}
}

func rgb(c RGB) color.Color {
	return color.RGB(c.R, c.G, c.B)
}

func (c *officeCanvas) addSlide(bg RGB) {
	c.slide = c.ppt.AddSlide()
	c.rect(0, 0, slideWidth, slideHeight, bg)
}

func (c *officeCanvas) rect(x, y, w, h measurement.Distance, fill RGB) {
	box := c.slide.AddTextBox()
	box.Properties().SetPosition(x, y)
	box.Properties().SetSize(w, h)
	box.Properties().SetSolidFill(rgb(fill))
}

func (c *officeCanvas) text(x, y, w, h measurement.Distance, lines []string, size measurement.Distance, bold bool, fg RGB) {
	box := c.slide.AddTextBox()
	box.Properties().SetPosition(x, y)
	box.Properties().SetSize(w, h)
	for _, line := range lines {
		run := box.AddParagraph().AddRun()
		run.SetText(line)
		run.Properties().SetSize(size)
		run.Properties().SetBold(bold)
		run.Properties().SetSolidFill(rgb(fg))
	}
}

func (c *officeCanvas) picture(path string, x, y, w, h measurement.Distance) error {
	img, err := common.ImageFromFile(path)
	if err != nil {
		return fmt.Errorf("load chart %s: %w", path, err)
	}
	ref, err := c.ppt.AddImage(img)
	if err != nil {
		return fmt.Errorf("add chart %s: %w", path, err)
	}
	pic := c.slide.AddImage(ref)
	pic.Properties().SetPosition(x, y)
	pic.Properties().SetSize(w, h)
	return nil
}

func (c *officeCanvas) save(outPath string) error {
	if err := c.ppt.SaveToFile(outPath); err != nil {
		return fmt.Errorf("save presentation: %w", err)
	}
	return nil
}
