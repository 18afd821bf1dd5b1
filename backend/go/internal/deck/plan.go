// Package deck lays out the report slides and writes them as a PPTX file.
package deck

import (
	"strings"

	"autoeda/backend/go/internal/eda"
	"autoeda/backend/go/internal/narrative"
)

// DeckTitle is the heading of the first slide.
const DeckTitle = "Auto EDA & Storytelling"

// Kind distinguishes slide layouts.
type Kind int

const (
	KindTitle Kind = iota
	KindSection
	KindChart
)

// Slide is one planned slide, independent of the output format.
type Slide struct {
	Kind     Kind
	Title    string
	Subtitle string
	Lines    []string
	Image    string
}

// Plan returns the slides for a report in presentation order.
func Plan(res *eda.Result, n narrative.Narrative) []Slide {
	slides := []Slide{
		{Kind: KindTitle, Title: DeckTitle, Subtitle: "Dataset: " + res.DatasetID},
		{Kind: KindSection, Title: "Executive Summary", Lines: []string{n.ExecutiveSummary}},
		{Kind: KindSection, Title: "Data Overview", Lines: splitLines(n.DataOverview)},
		{Kind: KindSection, Title: "Key Drivers", Lines: n.KeyDrivers},
		{Kind: KindSection, Title: "Anomalies & Caveats", Lines: n.Anomalies},
		{Kind: KindSection, Title: "Recommendations", Lines: n.Recommendations},
	}
	for _, c := range res.Charts {
		slides = append(slides, Slide{Kind: KindChart, Title: c.Title, Image: c.Path})
	}
	return slides
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// ReportName returns report_<dataset_id>_<theme>.pptx with both parts made safe
// for a file name.
func ReportName(datasetID, theme string) string {
	if datasetID == "" {
		datasetID = "dataset"
	}
	if theme == "" {
		theme = "light"
	}
	return "report_" + eda.SafeFileName(datasetID) + "_" + eda.SafeFileName(theme) + ".pptx"
}
