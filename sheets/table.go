package sheets

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// SheetPreamble is the number of title lines above the header of the
// selections sheet.
const SheetPreamble = 2

// Table is a header line plus the data rows below it. Rows may be ragged.
type Table struct {
	Header []string
	Rows   [][]string
}

// Width is the column count the data is interpreted against: the header
// width, or the widest row when there is no header.
func (t *Table) Width() int {
	if len(t.Header) > 0 {
		return len(t.Header)
	}
	w := 0
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Column returns the index of the header cell matching name case-insensitively, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// NewTable drops preamble records, then takes the next record as the header.
func NewTable(records [][]string, preamble int) *Table {
	if preamble >= len(records) {
		return &Table{}
	}
	records = records[preamble:]
	return &Table{Header: records[0], Rows: records[1:]}
}

// ReadCSV parses CSV text into a Table, skipping preamble lines first.
func ReadCSV(r io.Reader, preamble int) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("sheets: parse csv: %w", err)
	}
	return NewTable(records, preamble), nil
}
