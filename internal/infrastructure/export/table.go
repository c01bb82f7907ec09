// Package export writes report tables as CSV or XLSX downloads and reads
// CSV files back into header-keyed rows.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Format is a download format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// MIME types
const (
	MIMECSV  = "text/csv"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ParseFormat maps a query value to a Format; "" selects CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return MIMEXLSX
	}
	return MIMECSV
}

// Filename returns <reportType>_<YYYY-MM-DD>.<ext>. The date is the export
// day, not the reported range.
func Filename(reportType string, f Format, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", reportType, now.Format("2006-01-02"), f)
}

// Column extracts one cell of a T row.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Table is a header row plus data rows, all pre-formatted.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// BuildTable applies the columns to every item in order.
func BuildTable[T any](name string, cols []Column[T], items []T) Table {
	t := Table{
		Name:    name,
		Headers: make([]string, len(cols)),
		Rows:    make([][]string, 0, len(items)),
	}
	for i, c := range cols {
		t.Headers[i] = c.Header
	}
	for _, item := range items {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = c.Value(item)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
