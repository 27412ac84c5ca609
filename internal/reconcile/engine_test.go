package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
)

func stockRow(name, store, qty, shelf string) StockRow {
	return StockRow{Name: name, Store: store, Qty: decimal.RequireFromString(qty), Shelf: shelf}
}

func TestReconcileMatchesAndAggregates(t *testing.T) {
	plan := []PlanRow{
		{Name: "Цемент М500 50кг", Unit: "мешок"},
		{Name: "Кирпич облицовочный", Unit: "шт"},
	}
	stock := []StockRow{
		stockRow("50кг Цемент M500", "Склад 1", "10.5", "A1"),
		stockRow("  50КГ цемент m500 ", "Склад 2", "4.255", ""),
		stockRow("50кг Цемент M500", "Склад 1", "1", "A2"),
		stockRow("Песок речной", "Склад 3", "7", "B1"),
	}

	rows, err := Reconcile(plan, stock, 80)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	cement := rows[0]
	assert.Equal(t, "Цемент М500 50кг", cement.PlanName)
	assert.Equal(t, "мешок", cement.Unit)
	assert.True(t, cement.Matched)
	assert.GreaterOrEqual(t, cement.MatchScore, 80)
	assert.Equal(t, "50кг цемент m500", cement.StockName)
	assert.Equal(t, "15.76", cement.StockQty.String())
	assert.Equal(t, "Склад 1; Склад 2", cement.Stores)
	assert.Equal(t, "A1; A2", cement.Shelves)

	brick := rows[1]
	assert.Equal(t, "Кирпич облицовочный", brick.PlanName)
	assert.False(t, brick.Matched)
	assert.Equal(t, 0, brick.MatchScore)
	assert.True(t, brick.StockQty.IsZero())
	assert.Equal(t, Placeholder, brick.Stores)
	assert.Equal(t, Placeholder, brick.Shelves)
	assert.Empty(t, brick.StockName)
}

func TestReconcileDedupesAndSorts(t *testing.T) {
	plan := []PlanRow{
		{Name: "Щебень", Unit: "т"},
		{Name: "Арматура", Unit: "т"},
		{Name: " Щебень ", Unit: "м3"},
		{Name: "Песок", Unit: "т"},
	}
	stock := []StockRow{
		stockRow("песок", "С1", "1", "П1"),
		stockRow("щебень", "С1", "2", "П2"),
	}

	rows, err := Reconcile(plan, stock, 80)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Песок", rows[0].PlanName)
	assert.Equal(t, "Щебень", rows[1].PlanName)
	assert.Equal(t, "т", rows[1].Unit, "first occurrence of a plan name wins")
	assert.Equal(t, "Арматура", rows[2].PlanName)
	assert.False(t, rows[2].Matched)
}

func TestReconcileThreshold(t *testing.T) {
	plan := []PlanRow{{Name: "Песок речной"}}
	stock := []StockRow{stockRow("Песок карьерный", "С1", "3", "")}

	rows, err := Reconcile(plan, stock, 100)
	require.NoError(t, err)
	assert.False(t, rows[0].Matched)

	rows, err = Reconcile(plan, stock, 0)
	require.NoError(t, err)
	assert.True(t, rows[0].Matched, "any positive score passes a zero threshold")

	for _, bad := range []int{-1, 101} {
		_, err := Reconcile(plan, stock, bad)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	rows, err := Reconcile(nil, []StockRow{stockRow("Песок", "", "1", "")}, 80)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = Reconcile([]PlanRow{{Name: "Песок"}}, nil, 80)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Matched)
}

func TestReportSplit(t *testing.T) {
	report := &Report{Rows: []ReportRow{
		{PlanName: "a", Matched: true},
		{PlanName: "b"},
		{PlanName: "c", Matched: true},
	}}
	assert.Len(t, report.Matched(), 2)
	require.Len(t, report.Unmatched(), 1)
	assert.Equal(t, "b", report.Unmatched()[0].PlanName)
}
