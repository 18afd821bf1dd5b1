package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/unidoc/unioffice/v2/measurement"
)

const (
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	relSlide    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relLayout   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relMaster   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTheme    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relImage    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relDoc      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCore     = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relExtended = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"

	ctPresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctLayout       = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ctMaster       = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ctTheme        = "application/vnd.openxmlformats-officedocument.theme+xml"
	ctCore         = "application/vnd.openxmlformats-package.core-properties+xml"
	ctExtended     = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// ooxmlCanvas 直接写出 PresentationML 包：一个母版、一个空白版式、一个主题，
// 每张幻灯片一个部件，图片放在 ppt/media 下。
type ooxmlCanvas struct {
	slides []*ooxmlSlide
	media  []string
}

type ooxmlSlide struct {
	bg     RGB
	body   strings.Builder
	nextID int
	images []int // ppt/media 下标，关系 id 为 rId2 起
}

func newOOXMLCanvas() *ooxmlCanvas {
	return &ooxmlCanvas{}
}

func emu(d measurement.Distance) int64 {
	return measurement.ToEMU(float64(d))
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func (c *ooxmlCanvas) current() *ooxmlSlide {
	return c.slides[len(c.slides)-1]
}

func (c *ooxmlCanvas) addSlide(bg RGB) {
	c.slides = append(c.slides, &ooxmlSlide{bg: bg, nextID: 2})
}

func (s *ooxmlSlide) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func xfrm(x, y, w, h measurement.Distance) string {
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, emu(x), emu(y), emu(w), emu(h))
}

func solidFill(c RGB) string {
	return `<a:solidFill><a:srgbClr val="` + c.Hex() + `"/></a:solidFill>`
}

func (c *ooxmlCanvas) rect(x, y, w, h measurement.Distance, fill RGB) {
	s := c.current()
	id := s.id()
	fmt.Fprintf(&s.body, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Rectangle %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`, id, id)
	s.body.WriteString(`<p:spPr>` + xfrm(x, y, w, h) + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>` + solidFill(fill) + `<a:ln><a:noFill/></a:ln></p:spPr>`)
	s.body.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>`)
}

func (c *ooxmlCanvas) text(x, y, w, h measurement.Distance, lines []string, size measurement.Distance, bold bool, fg RGB) {
	s := c.current()
	id := s.id()
	fmt.Fprintf(&s.body, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, id)
	s.body.WriteString(`<p:spPr>` + xfrm(x, y, w, h) + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`)
	s.body.WriteString(`<p:txBody><a:bodyPr wrap="square" rtlCol="0"/><a:lstStyle/>`)
	b := "0"
	if bold {
		b = "1"
	}
	// sz 以百分之一磅为单位
	rPr := fmt.Sprintf(`<a:rPr lang="en-US" sz="%d" b="%s" dirty="0">%s</a:rPr>`, int(size*100), b, solidFill(fg))
	for _, line := range lines {
		s.body.WriteString(`<a:p><a:r>` + rPr + `<a:t>` + escape(line) + `</a:t></a:r></a:p>`)
	}
	if len(lines) == 0 {
		s.body.WriteString(`<a:p><a:endParaRPr lang="en-US"/></a:p>`)
	}
	s.body.WriteString(`</p:txBody></p:sp>`)
}

func (c *ooxmlCanvas) picture(path string, x, y, w, h measurement.Distance) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("load chart %s: %w", path, err)
	}
	s := c.current()
	c.media = append(c.media, path)
	s.images = append(s.images, len(c.media)-1)
	rid := len(s.images) + 1
	id := s.id()
	fmt.Fprintf(&s.body, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`, id, id)
	fmt.Fprintf(&s.body, `<p:blipFill><a:blip r:embed="rId%d"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, rid)
	s.body.WriteString(`<p:spPr>` + xfrm(x, y, w, h) + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`)
	return nil
}

func (c *ooxmlCanvas) save(outPath string) (err error) {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("save presentation: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("save presentation: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(outPath)
		}
	}()
	if err := c.write(f); err != nil {
		return fmt.Errorf("save presentation: %w", err)
	}
	return nil
}

// write 按 OPC 约定输出全部部件。
func (c *ooxmlCanvas) write(w io.Writer) error {
	zw := zip.NewWriter(w)
	put := func(name, body string) error {
		fw, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = io.WriteString(fw, body)
		return err
	}

	parts := []struct{ name, body string }{
		{"[Content_Types].xml", c.contentTypes()},
		{"_rels/.rels", rels(
			rel{"rId1", relDoc, "ppt/presentation.xml"},
			rel{"rId2", relCore, "docProps/core.xml"},
			rel{"rId3", relExtended, "docProps/app.xml"},
		)},
		{"docProps/core.xml", coreXML},
		{"docProps/app.xml", appXML},
		{"ppt/presentation.xml", c.presentation()},
		{"ppt/_rels/presentation.xml.rels", c.presentationRels()},
		{"ppt/slideMasters/slideMaster1.xml", masterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", rels(
			rel{"rId1", relLayout, "../slideLayouts/slideLayout1.xml"},
			rel{"rId2", relTheme, "../theme/theme1.xml"},
		)},
		{"ppt/slideLayouts/slideLayout1.xml", layoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", rels(
			rel{"rId1", relMaster, "../slideMasters/slideMaster1.xml"},
		)},
		{"ppt/theme/theme1.xml", themeXML},
	}
	for _, p := range parts {
		if err := put(p.name, p.body); err != nil {
			return err
		}
	}

	for i, s := range c.slides {
		n := i + 1
		if err := put(fmt.Sprintf("ppt/slides/slide%d.xml", n), s.xml()); err != nil {
			return err
		}
		rs := []rel{{"rId1", relLayout, "../slideLayouts/slideLayout1.xml"}}
		for j, m := range s.images {
			rs = append(rs, rel{fmt.Sprintf("rId%d", j+2), relImage, fmt.Sprintf("../media/image%d.png", m+1)})
		}
		if err := put(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), rels(rs...)); err != nil {
			return err
		}
	}

	for i, path := range c.media {
		if err := copyInto(zw, fmt.Sprintf("ppt/media/image%d.png", i+1), path); err != nil {
			return err
		}
	}
	return zw.Close()
}

func copyInto(zw *zip.Writer, name, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

type rel struct {
	id, typ, target string
}

func rels(rs ...rel) string {
	var b strings.Builder
	b.WriteString(xmlHeader + `<Relationships xmlns="` + nsRel + `">`)
	for _, r := range rs {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, r.typ, r.target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func (c *ooxmlCanvas) contentTypes() string {
	var b strings.Builder
	b.WriteString(xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	override := func(part, ct string) {
		fmt.Fprintf(&b, `<Override PartName="%s" ContentType="%s"/>`, part, ct)
	}
	override("/ppt/presentation.xml", ctPresentation)
	override("/ppt/slideMasters/slideMaster1.xml", ctMaster)
	override("/ppt/slideLayouts/slideLayout1.xml", ctLayout)
	override("/ppt/theme/theme1.xml", ctTheme)
	override("/docProps/core.xml", ctCore)
	override("/docProps/app.xml", ctExtended)
	for i := range c.slides {
		override(fmt.Sprintf("/ppt/slides/slide%d.xml", i+1), ctSlide)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

func (c *ooxmlCanvas) presentation() string {
	var b strings.Builder
	b.WriteString(xmlHeader + `<p:presentation xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">`)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	if len(c.slides) > 0 {
		b.WriteString(`<p:sldIdLst>`)
		for i := range c.slides {
			fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+3)
		}
		b.WriteString(`</p:sldIdLst>`)
	}
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="%d" cy="%d"/>`,
		emu(slideWidth), emu(slideHeight), emu(slideHeight), emu(slideWidth))
	b.WriteString(`</p:presentation>`)
	return b.String()
}

func (c *ooxmlCanvas) presentationRels() string {
	rs := []rel{
		{"rId1", relMaster, "slideMasters/slideMaster1.xml"},
		{"rId2", relTheme, "theme/theme1.xml"},
	}
	for i := range c.slides {
		rs = append(rs, rel{fmt.Sprintf("rId%d", i+3), relSlide, fmt.Sprintf("slides/slide%d.xml", i+1)})
	}
	return rels(rs...)
}

func (s *ooxmlSlide) xml() string {
	return xmlHeader + `<p:sld xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
		`<p:cSld><p:bg><p:bgPr>` + solidFill(s.bg) + `<a:effectLst/></p:bgPr></p:bg>` +
		`<p:spTree>` + emptyGroup + s.body.String() + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

const emptyGroup = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

var coreXML = xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
	`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
	`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
	`<dc:title>` + escape(DeckTitle) + `</dc:title><dc:creator>autoeda</dc:creator></cp:coreProperties>`

const appXML = xmlHeader + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>autoeda</Application></Properties>`

const masterXML = xmlHeader + `<p:sldMaster xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
	`<p:cSld><p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" ` +
	`accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

const layoutXML = xmlHeader + `<p:sldLayout xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" type="blank" preserve="1">` +
	`<p:cSld name="Blank"><p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const themeXML = xmlHeader + `<a:theme xmlns:a="` + nsA + `" name="autoeda"><a:themeElements>` +
	`<a:clrScheme name="autoeda">` +
	`<a:dk1><a:srgbClr val="111111"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1F2937"/></a:dk2><a:lt2><a:srgbClr val="F3F4F6"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="1F77B4"/></a:accent1><a:accent2><a:srgbClr val="FF7F0E"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="2CA02C"/></a:accent3><a:accent4><a:srgbClr val="D62728"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="9467BD"/></a:accent5><a:accent6><a:srgbClr val="8C564B"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="autoeda">` +
	`<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="autoeda">` +
	`<a:fillStyleLst>` + themeFill + themeFill + themeFill + `</a:fillStyleLst>` +
	`<a:lnStyleLst>` + themeLine + themeLine + themeLine + `</a:lnStyleLst>` +
	`<a:effectStyleLst>` + themeEffect + themeEffect + themeEffect + `</a:effectStyleLst>` +
	`<a:bgFillStyleLst>` + themeFill + themeFill + themeFill + `</a:bgFillStyleLst>` +
	`</a:fmtScheme></a:themeElements><a:objectDefaults/><a:extraClrSchemeLst/></a:theme>`

const (
	themeFill   = `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	themeLine   = `<a:ln w="9525"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`
	themeEffect = `<a:effectStyle><a:effectLst/></a:effectStyle>`
)
