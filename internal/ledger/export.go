package ledger

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/sitestock/pkg/db/models"
	"github.com/angelmondragon/sitestock/pkg/enums"
)

const (
	historySheet  = "History"
	historyLayout = "2006-01-02 15:04:05"
)

var historyHeader = []string{"Материал", "Ед. изм.", "Кол-во", "Тип опер.", "Кто", "Магазин", "№ Док.", "Примечание", "Дата"}

func historyRecord(entry models.HistoryEntry) []string {
	return []string{
		entry.MaterialName,
		entry.MaterialUnit,
		entry.Qty.String(),
		entry.OpType.String(),
		entry.UserName,
		entry.Store,
		entry.DocNumber,
		entry.Note,
		entry.OccurredAt.UTC().Format(historyLayout),
	}
}

// WriteHistoryCSV serialises entries without the internal event id.
func WriteHistoryCSV(w io.Writer, entries []models.HistoryEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, entry := range entries {
		if err := cw.Write(historyRecord(entry)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHistoryXLSX writes entries into a single "History" sheet. Quantities are
// stored as numbers so the sheet can be summed directly.
func WriteHistoryXLSX(w io.Writer, entries []models.HistoryEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), historySheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(historyHeader))
	for i, h := range historyHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(historySheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, entry := range entries {
		record := historyRecord(entry)
		row := make([]any, len(record))
		for j, v := range record {
			row[j] = v
		}
		row[2] = entry.Qty.InexactFloat64()

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteHistory dispatches on format.
func WriteHistory(w io.Writer, format enums.ExportFormat, entries []models.HistoryEntry) error {
	switch format {
	case enums.ExportFormatCSV:
		return WriteHistoryCSV(w, entries)
	case enums.ExportFormatXLSX:
		return WriteHistoryXLSX(w, entries)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
