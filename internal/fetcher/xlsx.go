package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions selects what ReadXLSX returns.
type XLSXOptions struct {
	Sheet    string // sheet name; empty means the first sheet
	SkipRows int
}

// ReadXLSX parses an in-memory workbook and returns the rows of one sheet
// as trimmed strings. Trailing empty cells are dropped from each row.
func ReadXLSX(data []byte, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open xlsx")
	}

	sheet, err := pickSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		if i < opts.SkipRows || row == nil {
			continue
		}
		rows = append(rows, cellStrings(row))
	}
	return rows, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name == "" {
		if len(f.Sheets) == 0 {
			return nil, eris.New("fetcher: xlsx has no sheets")
		}
		return f.Sheets[0], nil
	}
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Errorf("fetcher: xlsx sheet %q not found", name)
	}
	return sheet, nil
}

func cellStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	last := -1
	for i, c := range row.Cells {
		out[i] = strings.TrimSpace(c.String())
		if out[i] != "" {
			last = i
		}
	}
	return out[:last+1]
}
