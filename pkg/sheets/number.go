package sheets

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

var numberCleaner = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "\t", "", ",", ".")

// ParseNumber reads a number as typed into a spreadsheet cell: digit groups
// separated by regular or non-breaking spaces, and a comma or dot as decimal
// separator. Unparsable text yields zero and false.
func ParseNumber(text string) (decimal.Decimal, bool) {
	cleaned := numberCleaner.Replace(norm.NFKC.String(text))
	if cleaned == "" {
		return decimal.Zero, false
	}
	n, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return n, true
}
