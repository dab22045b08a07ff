// Package csvio reads and writes the pipeline's semicolon-delimited CSV
// files. Files are written with a UTF-8 BOM so spreadsheet tools and the
// BI layer pick up the encoding, and the reader strips it back off.
package csvio

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Delimiter is the field separator used by every CSV in the pipeline.
const Delimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer writes semicolon CSV with a BOM and a fixed header.
type Writer struct {
	w    *csv.Writer
	rows int
}

// NewWriter writes the BOM and header, then returns a row writer.
func NewWriter(out io.Writer, header []string) (*Writer, error) {
	if _, err := out.Write(utf8BOM); err != nil {
		return nil, eris.Wrap(err, "csvio: write bom")
	}
	w := csv.NewWriter(out)
	w.Comma = Delimiter
	if err := w.Write(header); err != nil {
		return nil, eris.Wrap(err, "csvio: write header")
	}
	return &Writer{w: w}, nil
}

// Write appends one record.
func (w *Writer) Write(record []string) error {
	if err := w.w.Write(record); err != nil {
		return eris.Wrap(err, "csvio: write record")
	}
	w.rows++
	return nil
}

// Rows reports how many records have been written, header excluded.
func (w *Writer) Rows() int {
	return w.rows
}

// Flush flushes buffered records and reports any write error.
func (w *Writer) Flush() error {
	w.w.Flush()
	return eris.Wrap(w.w.Error(), "csvio: flush")
}

// ReadAll reads a whole semicolon CSV, returning the header and records
// separately. A leading BOM is removed from the first header cell.
func ReadAll(in io.Reader) (header []string, records [][]string, err error) {
	r := csv.NewReader(in)
	r.Comma = Delimiter
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrap(err, "csvio: read")
	}
	if len(rows) == 0 {
		return nil, nil, eris.New("csvio: empty file, header expected")
	}

	header = rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], string(utf8BOM))
	}
	return header, rows[1:], nil
}
