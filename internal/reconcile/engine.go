package reconcile

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
)

// Placeholder fills the store and shelf columns of unmatched rows.
const Placeholder = "—"

// PlanRow is one plan material offered for matching.
type PlanRow struct {
	Name string
	Unit string
}

// StockRow is one line of the warehouse listing.
type StockRow struct {
	Name  string
	Store string
	Qty   decimal.Decimal
	Shelf string
}

// ReportRow pairs a plan material with the stock it matched, if any.
type ReportRow struct {
	PlanName   string          `json:"plan_name"`
	Unit       string          `json:"unit"`
	StockName  string          `json:"stock_name,omitempty"`
	StockQty   decimal.Decimal `json:"stock_qty"`
	Stores     string          `json:"stores"`
	Shelves    string          `json:"shelves"`
	MatchScore int             `json:"match_score"`
	Matched    bool            `json:"matched"`
}

type aggregate struct {
	qty     decimal.Decimal
	stores  string
	shelves string
}

type stockGroup struct {
	key    string
	tokens string
	rows   []StockRow
}

// foldName is the grouping key for stock names: trimmed and lower-cased.
func foldName(s string) string {
	return strings.TrimSpace(cases.Fold().String(norm.NFKC.String(s)))
}

// Reconcile matches every plan row against the distinct stock names. Rows
// scoring below threshold are reported unmatched. The result holds one row per
// plan name, sorted by score desc then plan name asc.
func Reconcile(plan []PlanRow, stock []StockRow, threshold int) ([]ReportRow, error) {
	if threshold < 0 || threshold > 100 {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "threshold must be within 0..100, got %d", threshold)
	}

	groups := groupStock(stock)
	cache := make(map[string]aggregate, len(groups))

	seen := make(map[string]struct{}, len(plan))
	rows := make([]ReportRow, 0, len(plan))
	for _, p := range plan {
		name := strings.TrimSpace(p.Name)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		row := ReportRow{
			PlanName: name,
			Unit:     strings.TrimSpace(p.Unit),
			StockQty: decimal.Zero,
			Stores:   Placeholder,
			Shelves:  Placeholder,
		}

		group, score := bestGroup(Normalize(foldName(name)), groups)
		if group != nil && score > 0 && score >= threshold {
			agg, ok := cache[group.key]
			if !ok {
				agg = resolve(group.rows)
				cache[group.key] = agg
			}
			row.StockName = group.key
			row.StockQty = agg.qty
			row.Stores = agg.stores
			row.Shelves = agg.shelves
			row.MatchScore = score
			row.Matched = true
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].MatchScore != rows[j].MatchScore {
			return rows[i].MatchScore > rows[j].MatchScore
		}
		return rows[i].PlanName < rows[j].PlanName
	})
	return rows, nil
}

func groupStock(stock []StockRow) []*stockGroup {
	index := make(map[string]*stockGroup)
	groups := make([]*stockGroup, 0)
	for _, s := range stock {
		key := foldName(s.Name)
		if key == "" {
			continue
		}
		g, ok := index[key]
		if !ok {
			g = &stockGroup{key: key, tokens: Normalize(key)}
			index[key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, s)
	}
	return groups
}

func bestGroup(query string, groups []*stockGroup) (*stockGroup, int) {
	var best *stockGroup
	bestScore := 0
	for _, g := range groups {
		score := ratio(query, g.tokens)
		if best == nil || score > bestScore {
			best, bestScore = g, score
		}
	}
	return best, bestScore
}

func resolve(rows []StockRow) aggregate {
	qty := decimal.Zero
	stores := newDistinct()
	shelves := newDistinct()
	for _, r := range rows {
		qty = qty.Add(r.Qty)
		stores.add(r.Store)
		shelves.add(r.Shelf)
	}
	return aggregate{
		qty:     qty.Round(2),
		stores:  stores.join(),
		shelves: shelves.join(),
	}
}

type distinct struct {
	seen   map[string]struct{}
	values []string
}

func newDistinct() *distinct {
	return &distinct{seen: make(map[string]struct{})}
}

func (d *distinct) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if _, ok := d.seen[v]; ok {
		return
	}
	d.seen[v] = struct{}{}
	d.values = append(d.values, v)
}

func (d *distinct) join() string {
	if len(d.values) == 0 {
		return Placeholder
	}
	return strings.Join(d.values, "; ")
}

// Report is the outcome of one reconciliation run.
type Report struct {
	ProjectID int64       `json:"project_id"`
	Source    string      `json:"source,omitempty"`
	Threshold int         `json:"threshold"`
	Rows      []ReportRow `json:"rows"`
}

// Matched returns the rows that found a stock counterpart.
func (r *Report) Matched() []ReportRow {
	return r.filter(true)
}

// Unmatched returns the rows without a stock counterpart.
func (r *Report) Unmatched() []ReportRow {
	return r.filter(false)
}

func (r *Report) filter(matched bool) []ReportRow {
	out := make([]ReportRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.Matched == matched {
			out = append(out, row)
		}
	}
	return out
}
