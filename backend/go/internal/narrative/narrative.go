// Package narrative turns EDA statistics into short, decision-oriented text
// sections for the slide deck.
package narrative

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"autoeda/backend/go/internal/eda"
)

// Narrative 是幻灯片使用的文字段落。
type Narrative struct {
	ExecutiveSummary string   `json:"executive_summary"`
	DataOverview     string   `json:"data_overview"`
	KeyDrivers       []string `json:"key_drivers"`
	Anomalies        []string `json:"anomalies"`
	Recommendations  []string `json:"recommendations"`
}

const (
	maxMissingMentioned = 5
	maxOverviewColumns  = 3
	maxDrivers          = 3
	wideDatasetCols     = 60
)

var recommendations = []string{
	"Prioritize data cleaning for columns with highest missingness.",
	"Validate correlations with domain knowledge and downstream modeling.",
	"Standardize numeric features before modeling (z-score).",
}

// Generate 根据统计结果生成规则化的叙述，结果是确定的。
func Generate(res *eda.Result) Narrative {
	st := res.Stats

	// 取 missing_by_col 的前几列（已按缺失数降序），缺失数为 0 的列也照常列出。
	missing := st.MissingByCol
	if len(missing) > maxMissingMentioned {
		missing = missing[:maxMissingMentioned]
	}

	summary := []string{fmt.Sprintf("Dataset with %s rows and %d columns.", thousands(st.NRows), st.NCols)}
	if len(missing) > 0 {
		parts := make([]string, len(missing))
		for i, c := range missing {
			parts[i] = fmt.Sprintf("%s (%d)", c.Name, c.Count)
		}
		summary = append(summary, "Missing values concentrated in: "+strings.Join(parts, ", ")+".")
	}
	if len(st.TopCorrelations) > 0 {
		c := st.TopCorrelations[0]
		summary = append(summary, fmt.Sprintf("Strongest numeric relationship: %s ~ %s (|r|=%s).", c.ColX, c.ColY, pyFloat(c.AbsR)))
	}

	var overview []string
	for i, row := range st.NumericSummary {
		if i == maxOverviewColumns {
			break
		}
		overview = append(overview, fmt.Sprintf("%s: mean=%s, std=%s, skew=%s",
			row.Column, g3(float64(row.Mean)), g3(float64(row.Std)), g3(float64(row.Skew))))
	}
	dataOverview := "Basic overview available."
	if len(overview) > 0 {
		dataOverview = strings.Join(overview, "\n")
	}

	var drivers []string
	for i, c := range st.TopCorrelations {
		if i == maxDrivers {
			break
		}
		drivers = append(drivers, fmt.Sprintf("%s and %s move together (|r|=%s).", c.ColX, c.ColY, pyFloat(c.AbsR)))
	}
	if len(drivers) == 0 {
		drivers = []string{"No strong numeric drivers detected (insufficient numeric columns)."}
	}

	var anomalies []string
	if len(missing) > 0 {
		anomalies = append(anomalies, "High missingness in key columns may bias results; consider imputation.")
	}
	if st.NCols > wideDatasetCols {
		anomalies = append(anomalies, "Wide dataset; feature selection or dimensionality reduction may help.")
	}
	if len(anomalies) == 0 {
		anomalies = []string{"No major data quality issues detected at a glance."}
	}

	return Narrative{
		ExecutiveSummary: strings.Join(summary, " "),
		DataOverview:     dataOverview,
		KeyDrivers:       drivers,
		Anomalies:        anomalies,
		Recommendations:  append([]string(nil), recommendations...),
	}
}

// thousands 以逗号分隔千位，例如 1234567 -> "1,234,567"。
func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// g3 formats with three significant digits, "nan" for undefined values.
func g3(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', 3, 64)
}

// pyFloat keeps a trailing ".0" on integral values, so 1 prints as "1.0".
func pyFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
