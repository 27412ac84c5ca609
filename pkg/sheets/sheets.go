// Package sheets reads tabular payloads (xlsx workbooks or delimited text)
// into a plain grid of cell strings.
package sheets

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrUnsupportedFormat is returned when a payload is neither a workbook nor text.
var ErrUnsupportedFormat = errors.New("unsupported sheet format")

// Kind is the coarse family of a detected payload.
type Kind int

const (
	KindUnknown Kind = iota
	KindWorkbook
	KindText
)

// Classify walks the detected type and its parents. Workbooks are zip
// containers, so a bare zip is treated as a workbook candidate.
func Classify(mtype *mimetype.MIME) Kind {
	for m := mtype; m != nil; m = m.Parent() {
		switch {
		case m.Is(xlsxMIME), m.Is("application/zip"):
			return KindWorkbook
		case m.Is("text/plain"):
			return KindText
		}
	}
	return KindUnknown
}

// Detect sniffs data and returns its kind along with the detected MIME string.
func Detect(data []byte) (Kind, string) {
	mtype := mimetype.Detect(data)
	return Classify(mtype), mtype.String()
}

// ReadGrid decodes data into rows of cells, whatever the supported format.
func ReadGrid(data []byte) ([][]string, error) {
	kind, mime := Detect(data)
	switch kind {
	case KindWorkbook:
		return ReadXLSX(bytes.NewReader(data))
	case KindText:
		return ReadCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
}

// ReadXLSX returns the rows of the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheetList[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetList[0], err)
	}
	return rows, nil
}

// ReadCSV parses comma or semicolon separated text. A UTF-8 BOM is ignored and
// rows may have differing widths.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func sniffDelimiter(data []byte) rune {
	firstLine := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}
