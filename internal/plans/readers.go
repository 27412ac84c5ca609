package plans

import (
	"fmt"
	"io"
	"strings"

	"github.com/angelmondragon/sitestock/pkg/sheets"
)

const planColumns = 3

// Row is one raw plan line: name, unit and quantity text in that order.
// Line is the 1-based row number in the source sheet.
type Row struct {
	Line   int
	Name   string
	Unit   string
	RawQty string
	// Short marks rows that had fewer than three cells and were padded.
	Short bool
}

// ReadXLSX reads the first sheet of a workbook, skipping headerRows leading rows.
func ReadXLSX(r io.Reader, headerRows int) ([]Row, error) {
	cells, err := sheets.ReadXLSX(r)
	if err != nil {
		return nil, err
	}
	return ToRows(cells, headerRows), nil
}

// ReadCSV reads delimited text, skipping headerRows leading rows.
func ReadCSV(r io.Reader, headerRows int) ([]Row, error) {
	cells, err := sheets.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return ToRows(cells, headerRows), nil
}

// Read sniffs the upload and dispatches to the workbook or text reader.
func Read(r io.Reader, headerRows int) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	cells, err := sheets.ReadGrid(data)
	if err != nil {
		return nil, err
	}
	return ToRows(cells, headerRows), nil
}

// ToRows maps a grid onto plan rows. Fully blank lines are dropped.
func ToRows(cells [][]string, headerRows int) []Row {
	if headerRows < 0 {
		headerRows = 0
	}
	rows := make([]Row, 0, len(cells))
	for i, record := range cells {
		if i < headerRows || isBlank(record) {
			continue
		}
		padded := make([]string, planColumns)
		copy(padded, record)
		rows = append(rows, Row{
			Line:   i + 1,
			Name:   padded[0],
			Unit:   padded[1],
			RawQty: padded[2],
			Short:  len(record) < planColumns,
		})
	}
	return rows
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
