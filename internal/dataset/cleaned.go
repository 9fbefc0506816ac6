package dataset

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/techco-etl/internal/model"
)

// CleanedSheetName is the sheet written by WriteCleanedXLSX.
const CleanedSheetName = "Cleaned Companies"

// WriteCleanedCSV writes the full cleaned column set, header first.
func WriteCleanedCSV(w io.Writer, records []model.CleanedRecord) error {
	cw := csv.NewWriter(w)
	if err := encodeCleaned(cw, records); err != nil {
		return err
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "dataset: flush csv")
}

// ReadCleanedCSV decodes a file written by WriteCleanedCSV.
func ReadCleanedCSV(r io.Reader) ([]model.CleanedRecord, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(NewBOMReader(r)))
	if err == io.EOF {
		return nil, eris.New("dataset: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read header")
	}

	var out []model.CleanedRecord
	for {
		var rec model.CleanedRecord
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "dataset: decode row %d", len(out)+1)
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteCleanedCSVFile creates path and writes records to it.
func WriteCleanedCSVFile(path string, records []model.CleanedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", path)
	}
	if err := WriteCleanedCSV(f, records); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "dataset: close %s", path)
}

// ReadCleanedCSVFile reads a cleaned dataset from path.
func ReadCleanedCSVFile(path string) ([]model.CleanedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadCleanedCSV(f)
}

// WriteCleanedXLSX exports records to a single-sheet workbook with the same
// columns as the cleaned CSV.
func WriteCleanedXLSX(path string, records []model.CleanedRecord) error {
	var rows rowCollector
	if err := encodeCleaned(&rows, records); err != nil {
		return err
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(CleanedSheetName)
	if err != nil {
		return eris.Wrap(err, "dataset: add sheet")
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "dataset: save %s", path)
	}
	return nil
}

func encodeCleaned(w csvutil.Writer, records []model.CleanedRecord) error {
	enc := csvutil.NewEncoder(w)
	if err := enc.EncodeHeader(model.CleanedRecord{}); err != nil {
		return eris.Wrap(err, "dataset: encode header")
	}
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return eris.Wrapf(err, "dataset: encode %s", r.Symbol)
		}
	}
	return nil
}

// rowCollector buffers encoded rows in memory.
type rowCollector [][]string

func (c *rowCollector) Write(row []string) error {
	*c = append(*c, append([]string(nil), row...))
	return nil
}
