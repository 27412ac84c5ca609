package reconcile

import (
	"strings"

	"github.com/angelmondragon/sitestock/pkg/config"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
	"github.com/angelmondragon/sitestock/pkg/sheets"
)

// Layout locates the stock columns in a headerless grid. Indices are 0-based.
type Layout struct {
	MinColumns  int
	NameColumn  int
	StoreColumn int
	QtyColumn   int
	ShelfColumn int
}

// DefaultLayout matches the warehouse export the service was built around.
func DefaultLayout() Layout {
	return Layout{MinColumns: 17, NameColumn: 1, StoreColumn: 12, QtyColumn: 13, ShelfColumn: 16}
}

// LayoutFromConfig reads the layout from stock configuration.
func LayoutFromConfig(cfg config.StockConfig) Layout {
	return Layout{
		MinColumns:  cfg.MinColumns,
		NameColumn:  cfg.NameColumn,
		StoreColumn: cfg.StoreColumn,
		QtyColumn:   cfg.QtyColumn,
		ShelfColumn: cfg.ShelfColumn,
	}
}

func (l Layout) validate() error {
	for _, col := range []int{l.NameColumn, l.StoreColumn, l.QtyColumn, l.ShelfColumn} {
		if col < 0 || (l.MinColumns > 0 && col >= l.MinColumns) {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "stock column %d is outside the %d column layout", col, l.MinColumns)
		}
	}
	return nil
}

// ParseGrid extracts stock rows. The grid width is its widest row; a grid
// narrower than MinColumns is rejected as a whole. Rows without a name are
// dropped and unparsable quantities count as zero.
func ParseGrid(grid [][]string, layout Layout) ([]StockRow, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}

	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}
	if width < layout.MinColumns {
		return nil, pkgerrors.Newf(pkgerrors.CodeStockFormat,
			"stock sheet must have at least %d columns, found %d", layout.MinColumns, width).
			WithDetails(map[string]any{"min_columns": layout.MinColumns, "found_columns": width})
	}

	out := make([]StockRow, 0, len(grid))
	for _, row := range grid {
		name := strings.TrimSpace(cell(row, layout.NameColumn))
		if name == "" {
			continue
		}
		qty, _ := sheets.ParseNumber(cell(row, layout.QtyColumn))
		out = append(out, StockRow{
			Name:  name,
			Store: strings.TrimSpace(cell(row, layout.StoreColumn)),
			Qty:   qty,
			Shelf: strings.TrimSpace(cell(row, layout.ShelfColumn)),
		})
	}
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
