package plans

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sitestock/pkg/sheets"
)

// ParseQuantity reads a planned quantity cell. Unparsable text yields zero and false.
func ParseQuantity(text string) (decimal.Decimal, bool) {
	return sheets.ParseNumber(text)
}
