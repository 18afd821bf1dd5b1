package deck

import (
	"archive/zip"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"autoeda/backend/go/internal/eda"
	"autoeda/backend/go/internal/narrative"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	cases := map[string]RGB{
		"#1f77b4":   {0x1f, 0x77, 0xb4},
		"1F77B4":    {0x1f, 0x77, 0xb4},
		"#abc":      {0xaa, 0xbb, 0xcc},
		"#12":       {0x12, 0x00, 0x00},
		"#12345678": {0x12, 0x34, 0x56},
		"":          {0, 0, 0},
	}
	for in, want := range cases {
		got, err := ParseHex(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"#zz0000", "#12345g", "red"} {
		_, err := ParseHex(bad)
		assert.Error(t, err, bad)
	}
}

func TestRGBHex(t *testing.T) {
	assert.Equal(t, "1F77B4", RGB{0x1f, 0x77, 0xb4}.Hex())
	assert.Equal(t, "000000", RGB{}.Hex())
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette("dark", "#f00")
	require.NoError(t, err)
	assert.True(t, p.Dark)
	assert.Equal(t, RGB{17, 17, 17}, p.Background)
	assert.Equal(t, RGB{255, 255, 255}, p.Text)
	assert.Equal(t, RGB{255, 0, 0}, p.Accent)

	for _, theme := range []string{"light", "", "solarized"} {
		p, err := ParsePalette(theme, "")
		require.NoError(t, err)
		assert.False(t, p.Dark, theme)
		assert.Equal(t, RGB{255, 255, 255}, p.Background)
		assert.Equal(t, RGB{0x1f, 0x77, 0xb4}, p.Accent)
	}
	p, err = ParsePalette("DARK", "")
	require.NoError(t, err)
	assert.True(t, p.Dark)

	_, err = ParsePalette("light", "#nothex")
	assert.Error(t, err)
}

func TestPlan(t *testing.T) {
	res := &eda.Result{
		DatasetID: "abc",
		Charts: []eda.Chart{
			{Title: "Missingness", Path: "/s/images/abc/missingness.png"},
			{Title: "Distribution — x", Path: "/s/images/abc/hist_x.png"},
		},
	}
	n := narrative.Narrative{
		ExecutiveSummary: "Summary.",
		DataOverview:     "a: mean=1\nb: mean=2",
		KeyDrivers:       []string{"d1"},
		Anomalies:        []string{"a1"},
		Recommendations:  []string{"r1", "r2", "r3"},
	}

	slides := Plan(res, n)
	require.Len(t, slides, 8)

	assert.Equal(t, Slide{Kind: KindTitle, Title: "Auto EDA & Storytelling", Subtitle: "Dataset: abc"}, slides[0])
	titles := make([]string, len(slides))
	for i, s := range slides {
		titles[i] = s.Title
	}
	assert.Equal(t, []string{
		"Auto EDA & Storytelling", "Executive Summary", "Data Overview", "Key Drivers",
		"Anomalies & Caveats", "Recommendations", "Missingness", "Distribution — x",
	}, titles)
	assert.Equal(t, []string{"a: mean=1", "b: mean=2"}, slides[2].Lines)
	assert.Equal(t, KindChart, slides[7].Kind)
	assert.Equal(t, "/s/images/abc/hist_x.png", slides[7].Image)
}

func TestReportName(t *testing.T) {
	assert.Equal(t, "report_abc_light.pptx", ReportName("abc", "light"))
	assert.Equal(t, "report_abc_dark.pptx", ReportName("abc", "dark"))
	assert.Equal(t, "report_dataset_light.pptx", ReportName("", ""))
	assert.Equal(t, "report_.._x_light.pptx", ReportName("../x", "light"))
}

func TestEngine(t *testing.T) {
	assert.Equal(t, EngineOOXML, NewBuilder("").Engine())
	assert.Equal(t, EngineUnioffice, NewBuilder("key").Engine())
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{31, 119, 180, 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = string(b)
	}
	return files
}

func sampleDeckInput(t *testing.T) (*eda.Result, narrative.Narrative) {
	dir := t.TempDir()
	chart := filepath.Join(dir, "hist_revenue.png")
	writePNG(t, chart, 400, 240)
	res := &eda.Result{
		DatasetID: "sales",
		Charts:    []eda.Chart{{Title: "Distribution — revenue", Path: chart}},
	}
	n := narrative.Narrative{
		ExecutiveSummary: "Dataset with 3 rows and 2 columns.",
		DataOverview:     "revenue: mean=10, std=2, skew=0.1",
		KeyDrivers:       []string{"units and revenue move together (|r|=0.9)."},
		Anomalies:        []string{"No major data quality issues detected at a glance."},
		Recommendations:  []string{"Standardize numeric features before modeling (z-score)."},
	}
	return res, n
}

func TestBuildWritesPresentation(t *testing.T) {
	res, n := sampleDeckInput(t)
	reports := filepath.Join(t.TempDir(), "reports")

	name, err := NewBuilder("").Build(res, n, reports, "dark", "#ff7f0e")
	require.NoError(t, err)
	assert.Equal(t, "report_sales_dark.pptx", name)

	out := filepath.Join(reports, name)
	require.FileExists(t, out)
	files := readZip(t, out)

	for _, part := range []string{
		"[Content_Types].xml", "_rels/.rels", "ppt/presentation.xml", "ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml", "ppt/slideLayouts/slideLayout1.xml", "ppt/theme/theme1.xml",
		"ppt/media/image1.png",
	} {
		assert.Contains(t, files, part)
	}

	planned := Plan(res, n)
	slideParts := 0
	for name := range files {
		if regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`).MatchString(name) {
			slideParts++
		}
	}
	assert.Equal(t, len(planned), slideParts)
	assert.Equal(t, len(planned), strings.Count(files["ppt/presentation.xml"], "<p:sldId "))
	assert.Equal(t, len(planned), strings.Count(files["[Content_Types].xml"], "presentationml.slide+xml"))

	title := files["ppt/slides/slide1.xml"]
	assert.Contains(t, title, "Auto EDA &amp; Storytelling")
	assert.Contains(t, title, `<a:srgbClr val="111111"/>`)
	assert.Contains(t, title, `<a:srgbClr val="FF7F0E"/>`)
	assert.Contains(t, files["ppt/slides/slide5.xml"], "Anomalies &amp; Caveats")

	chart := files["ppt/slides/slide7.xml"]
	assert.Contains(t, chart, `r:embed="rId2"`)
	assert.Contains(t, files["ppt/slides/_rels/slide7.xml.rels"], "../media/image1.png")

	src, err := os.ReadFile(res.Charts[0].Path)
	require.NoError(t, err)
	assert.Equal(t, string(src), files["ppt/media/image1.png"])
}

func TestBuildRejectsBadAccent(t *testing.T) {
	res, n := sampleDeckInput(t)
	reports := t.TempDir()

	_, err := NewBuilder("").Build(res, n, reports, "light", "#xyz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid accent colour")

	entries, err := os.ReadDir(reports)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderMissingChart(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report_x_light.pptx")
	pal, err := ParsePalette("light", "")
	require.NoError(t, err)

	err = NewBuilder("").Render([]Slide{
		{Kind: KindTitle, Title: DeckTitle, Subtitle: "Dataset: x"},
		{Kind: KindChart, Title: "Missingness", Image: filepath.Join(t.TempDir(), "missing.png")},
	}, pal, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load chart")
	assert.NoFileExists(t, out)
}
