package eda

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned when a file cannot be parsed as a table.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Load reads a CSV or XLSX file into a Frame and infers column types.
// maxRows > 0 caps the number of data rows read. Unknown extensions are read
// as CSV.
func Load(path string, maxRows int) (*Frame, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		header, rows, err = readXLSX(path, maxRows)
	default:
		header, rows, err = readCSVFile(path, maxRows)
	}
	if err != nil {
		return nil, err
	}
	f := buildFrame(Stem(path), header, rows)
	InferTypes(f)
	return f, nil
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readCSVFile(path string, maxRows int) ([]string, [][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer fh.Close()
	return ReadCSV(fh, maxRows)
}

// ReadCSV parses CSV data. The first record is the header.
func ReadCSV(r io.Reader, maxRows int) ([]string, [][]string, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty file", ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for maxRows <= 0 || len(rows) < maxRows {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func readXLSX(path string, maxRows int) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", ErrUnsupportedFormat)
	}
	it, err := f.Rows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer it.Close()

	var header []string
	var rows [][]string
	for it.Next() {
		cols, err := it.Columns()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		if header == nil {
			header = cols
			continue
		}
		if maxRows > 0 && len(rows) >= maxRows {
			break
		}
		rows = append(rows, cols)
	}
	if header == nil {
		return nil, nil, fmt.Errorf("%w: empty sheet", ErrUnsupportedFormat)
	}
	return header, rows, nil
}

// buildFrame pads or truncates ragged rows to the header width and makes
// column names unique.
func buildFrame(name string, header []string, rows [][]string) *Frame {
	names := uniqueNames(header)
	width := len(names)
	cols := make([][]string, width)
	for j := range cols {
		cols[j] = make([]string, len(rows))
	}
	for i, rec := range rows {
		for j := 0; j < width; j++ {
			if j < len(rec) {
				cols[j][i] = rec[j]
			}
		}
	}
	f := &Frame{Name: name, NRows: len(rows)}
	for j, n := range names {
		f.Columns = append(f.Columns, newColumn(n, cols[j]))
	}
	return f
}

func uniqueNames(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			h = h + "." + strconv.Itoa(n+1)
		} else {
			seen[h] = 0
		}
		out[i] = h
	}
	return out
}
