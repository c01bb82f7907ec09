package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Reader errors
var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")
	ErrMissingHeader   = errors.New("CSV file missing header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one parsed data row keyed by header.
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the value of a column, or "" when the column is absent.
func (r Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty reports whether every field is blank.
func (r Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Sheet is a parsed CSV file.
type Sheet struct {
	Headers []string
	Rows    []Row
	index   map[string]int
}

// HasHeader reports whether the header row names the column.
func (s *Sheet) HasHeader(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Missing returns the required headers the file lacks.
func (s *Sheet) Missing(required ...string) []string {
	var out []string
	for _, h := range required {
		if !s.HasHeader(h) {
			out = append(out, h)
		}
	}
	return out
}

// Table converts the sheet back into a Table.
func (s *Sheet) Table() Table {
	t := Table{Headers: s.Headers, Rows: make([][]string, 0, len(s.Rows))}
	for _, r := range s.Rows {
		row := make([]string, len(s.Headers))
		for i, h := range s.Headers {
			row[i] = r.Data[h]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ParseCSV reads a whole CSV file. A leading UTF-8 BOM is stripped, header
// names and values are trimmed, and fully blank rows are skipped. Line
// numbers count the header as line 1.
func ParseCSV(r io.Reader) (*Sheet, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	if err := checkUTF8(br); err != nil {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	s := &Sheet{Headers: make([]string, len(header)), index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(h)
		s.Headers[i] = h
		s.index[h] = i
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return s, fmt.Errorf("read row %d: %w", line, err)
		}
		row := Row{Line: line, Data: make(map[string]string, len(s.Headers))}
		for i, h := range s.Headers {
			if i < len(record) {
				row.Data[h] = strings.TrimSpace(record[i])
			} else {
				row.Data[h] = ""
			}
		}
		if row.IsEmpty() {
			continue
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

func checkUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read file: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	// A multi-byte rune may straddle the peek boundary.
	if len(content) == checkSize {
		for i := 0; i < utf8.UTFMax-1 && !utf8.Valid(content); i++ {
			content = content[:len(content)-1]
		}
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}
