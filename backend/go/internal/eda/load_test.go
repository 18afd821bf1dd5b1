package eda

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const mixedCSV = "id,score,,city,score,when\n" +
	"1,1.5,a,Paris,10,2024-01-01\n" +
	"2,NA,b,,20,2024-01-02\n" +
	"3,3.5,c,Paris,30,2024-01-03\n" +
	"4,4.5\n"

func frameFromCSV(t *testing.T, data string) *Frame {
	t.Helper()
	header, rows, err := ReadCSV(strings.NewReader(data), 0)
	require.NoError(t, err)
	f := buildFrame("test", header, rows)
	InferTypes(f)
	return f
}

func column(t *testing.T, f *Frame, name string) *Column {
	t.Helper()
	for _, c := range f.Columns {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not found", name)
	return nil
}

func TestLoadCSV_HeadersAndRaggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.csv")
	require.NoError(t, os.WriteFile(path, []byte(mixedCSV), 0o644))

	f, err := Load(path, 0)
	require.NoError(t, err)

	assert.Equal(t, "mixed", f.Name)
	assert.Equal(t, 4, f.NRows)
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"id", "score", "Unnamed: 2", "city", "score.1", "when"}, names)

	city := column(t, f, "city")
	assert.Equal(t, 2, city.MissingCount())
	when := column(t, f, "when")
	assert.True(t, when.Missing[3], "padded cell is missing")
}

func TestLoadCSV_MaxRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.csv")
	require.NoError(t, os.WriteFile(path, []byte(mixedCSV), 0o644))

	f, err := Load(path, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, f.NRows)
}

func TestLoadCSV_StripsBOM(t *testing.T) {
	f := frameFromCSV(t, "\ufeffa,b\n1,2\n")
	assert.Equal(t, "a", f.Columns[0].Name)
}

func TestLoadCSV_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := Load(path, 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"x", "label"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]any{1, "a"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A3", &[]any{2, "b"}))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	f, err := Load(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, f.NRows)
	assert.Equal(t, KindInt, column(t, f, "x").Kind)
	assert.Equal(t, KindObject, column(t, f, "label").Kind)
}

func TestIsMissing(t *testing.T) {
	for _, s := range []string{"", " ", "NA", "N/A", "nan", "NULL", "None", "#N/A", "<NA>"} {
		assert.True(t, IsMissing(s), s)
	}
	for _, s := range []string{"0", "n", "missing"} {
		assert.False(t, IsMissing(s), s)
	}
}
