package cmd

import (
	"fmt"
	"io"
	"math"

	"autoeda/backend/go/internal/eda"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

var (
	xlsxOut    string
	sampleRows int
)

var profileCmd = &cobra.Command{
	Use:   "profile [file]",
	Short: "Profile a local .csv or .xlsx file without the API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := eda.DefaultOptions()
		if sampleRows != 0 {
			opts.SampleRows = sampleRows
		}
		maxRows := opts.SampleRows
		if maxRows < 0 {
			maxRows = 0
		}
		f, err := eda.Load(args[0], maxRows)
		if err != nil {
			return err
		}
		st := eda.Profile(f, opts)
		printProfile(cmd.OutOrStdout(), st)
		if xlsxOut == "" {
			return nil
		}
		if err := writeWorkbook(st, xlsxOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", xlsxOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVar(&xlsxOut, "xlsx", "", "export the profile to an .xlsx workbook")
	profileCmd.Flags().IntVar(&sampleRows, "sample-rows", 0, "rows to read, 0 keeps the default, negative reads all")
}

func printProfile(w io.Writer, st eda.Stats) {
	fmt.Fprintf(w, "Rows: %d  Columns: %d\n", st.NRows, st.NCols)
	for _, c := range st.Columns {
		fmt.Fprintf(w, "  %-24s %s\n", c, st.Dtypes[c])
	}
	if len(st.NumericSummary) > 0 {
		fmt.Fprintln(w, "Numeric summary:")
		for _, s := range st.NumericSummary {
			fmt.Fprintf(w, "  %-24s mean=%s std=%s min=%s max=%s\n", s.Column, num(s.Mean), num(s.Std), num(s.Min), num(s.Max))
		}
	}
	if len(st.TopCorrelations) > 0 {
		fmt.Fprintln(w, "Top correlations:")
		for _, c := range st.TopCorrelations {
			fmt.Fprintf(w, "  %s ~ %s  |r|=%.3f\n", c.ColX, c.ColY, c.AbsR)
		}
	}
}

func num(f eda.Float) string {
	if math.IsNaN(float64(f)) {
		return "-"
	}
	return fmt.Sprintf("%.4g", float64(f))
}

// cellValue 把 NaN 写成空单元格。
func cellValue(f eda.Float) any {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return nil
	}
	return float64(f)
}

// writeWorkbook 导出数值摘要、缺失值和相关性三个工作表。
func writeWorkbook(st eda.Stats, path string) error {
	wb := excelize.NewFile()
	defer wb.Close()

	const summary = "numeric_summary"
	if err := wb.SetSheetName("Sheet1", summary); err != nil {
		return err
	}
	header := []any{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max", "skew", "kurtosis"}
	if err := wb.SetSheetRow(summary, "A1", &header); err != nil {
		return err
	}
	for i, s := range st.NumericSummary {
		row := []any{s.Column, s.Count, cellValue(s.Mean), cellValue(s.Std), cellValue(s.Min), cellValue(s.Q25),
			cellValue(s.Q50), cellValue(s.Q75), cellValue(s.Max), cellValue(s.Skew), cellValue(s.Kurtosis)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := wb.SetSheetRow(summary, cell, &row); err != nil {
			return err
		}
	}

	const missing = "missing"
	if _, err := wb.NewSheet(missing); err != nil {
		return err
	}
	if err := wb.SetSheetRow(missing, "A1", &[]any{"column", "missing"}); err != nil {
		return err
	}
	for i, c := range st.MissingByCol {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := wb.SetSheetRow(missing, cell, &[]any{c.Name, c.Count}); err != nil {
			return err
		}
	}

	const corr = "top_correlations"
	if _, err := wb.NewSheet(corr); err != nil {
		return err
	}
	if err := wb.SetSheetRow(corr, "A1", &[]any{"col_x", "col_y", "abs_r"}); err != nil {
		return err
	}
	for i, c := range st.TopCorrelations {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := wb.SetSheetRow(corr, cell, &[]any{c.ColX, c.ColY, c.AbsR}); err != nil {
			return err
		}
	}
	return wb.SaveAs(path)
}
