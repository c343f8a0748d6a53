package sheets

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first worksheet of a workbook into a Table. excelize
// drops trailing empty cells, so the header is padded to the widest row to
// keep the last week block when its header cells are blank.
func ReadXLSX(path string, preamble int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("sheets: open workbook %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("sheets: no worksheet found in %q", path)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("sheets: read worksheet %q: %w", sheetName, err)
	}
	t := NewTable(rows, preamble)
	padHeader(t)
	return t, nil
}

func padHeader(t *Table) {
	for _, r := range t.Rows {
		if len(r) > len(t.Header) {
			t.Header = append(t.Header, make([]string, len(r)-len(t.Header))...)
		}
	}
}
