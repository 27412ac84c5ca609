package models

import "github.com/shopspring/decimal"

// QtyScale is the number of fractional digits the numeric(20,4) quantity
// columns keep.
const QtyScale = 4

// FitsQtyScale reports whether q survives storage without rounding.
func FitsQtyScale(q decimal.Decimal) bool {
	return q.Equal(q.Round(QtyScale))
}
