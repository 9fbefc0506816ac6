package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/fetcher"
	"github.com/sells-group/techco-etl/internal/model"
)

// RawColumns is the header of a raw company list.
var RawColumns = []string{"Symbol", "Company Name", "Industry", "Country"}

// Source opens an input location.
type Source interface {
	ReadAll(ctx context.Context, src string) ([]byte, error)
}

// LoadRaw reads a raw company list from src, choosing the format from the
// file extension (.xlsx, otherwise CSV).
func LoadRaw(ctx context.Context, source Source, src string) ([]model.RawRecord, error) {
	data, err := source.ReadAll(ctx, src)
	if err != nil {
		return nil, err
	}

	var records []model.RawRecord
	if strings.EqualFold(filepath.Ext(fetcher.BaseName(src)), ".xlsx") {
		records, err = ReadRawXLSX(data)
	} else {
		records, err = ReadRawCSV(bytes.NewReader(data))
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: load %s", src)
	}

	zap.L().Info("loaded raw records", zap.String("src", src), zap.Int("records", len(records)))
	return records, nil
}

// ReadRawCSV decodes a raw company list. A leading BOM is ignored and header
// names are trimmed.
func ReadRawCSV(r io.Reader) ([]model.RawRecord, error) {
	cr := csv.NewReader(NewBOMReader(r))
	header, err := cr.Read()
	if err == io.EOF {
		return nil, eris.New("dataset: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read header")
	}
	header = trimAll(header)
	if err := requireColumns(header, RawColumns); err != nil {
		return nil, err
	}

	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: csv decoder")
	}

	var out []model.RawRecord
	for {
		var rec model.RawRecord
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "dataset: decode row %d", len(out)+1)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadRawXLSX reads a raw company list from the first sheet of an XLSX
// document.
func ReadRawXLSX(data []byte) ([]model.RawRecord, error) {
	rows, err := fetcher.ReadXLSX(data, fetcher.XLSXOptions{})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.New("dataset: empty sheet")
	}

	header := trimAll(rows[0])
	if err := requireColumns(header, RawColumns); err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	cell := func(row []string, col string) string {
		if i := idx[col]; i < len(row) {
			return row[i]
		}
		return ""
	}

	out := make([]model.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		out = append(out, model.RawRecord{
			Symbol:   cell(row, "Symbol"),
			Name:     cell(row, "Company Name"),
			Industry: cell(row, "Industry"),
			Country:  cell(row, "Country"),
		})
	}
	return out, nil
}

// WriteRawCSV writes records as a raw company list.
func WriteRawCSV(w io.Writer, records []model.RawRecord) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(model.RawRecord{}); err != nil {
		return eris.Wrap(err, "dataset: encode header")
	}
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return eris.Wrapf(err, "dataset: encode %s", r.Symbol)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "dataset: flush csv")
}

func requireColumns(header, required []string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, c := range required {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("dataset: missing columns %q", missing)
	}
	return nil
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
