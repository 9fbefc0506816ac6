// Package dataset reads and writes the tabular files exchanged between the
// extract, clean and load stages.
package dataset

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewBOMReader strips a leading byte-order mark. Input without a BOM is read
// as UTF-8.
func NewBOMReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// NewBOMWriter prefixes the output with a UTF-8 byte-order mark so
// spreadsheet tools detect the encoding. Close flushes it.
func NewBOMWriter(w io.Writer) io.WriteCloser {
	return transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
}
