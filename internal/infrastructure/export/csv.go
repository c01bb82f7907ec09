package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the header row then one row per record. encoding/csv
// quotes fields containing the delimiter, a quote or a line break and
// doubles interior quotes.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
