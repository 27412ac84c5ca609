package reconcile

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares a name for comparison: NFKC, case folded, every rune that
// is not a letter or digit turned into a separator, tokens sorted and joined
// by single spaces.
func Normalize(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// TokenSortRatio scores the similarity of a and b from 0 to 100 regardless of
// word order. Identical token multisets score 100. Empty input scores 0.
func TokenSortRatio(a, b string) int {
	return ratio(Normalize(a), Normalize(b))
}

func ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// BestMatch returns the choice scoring highest against query. The first
// choice wins ties. An empty choice list yields ("", 0).
func BestMatch(query string, choices []string) (string, int) {
	q := Normalize(query)
	best, bestScore := "", 0
	for i, choice := range choices {
		score := ratio(q, Normalize(choice))
		if i == 0 || score > bestScore {
			best, bestScore = choice, score
		}
	}
	return best, bestScore
}
