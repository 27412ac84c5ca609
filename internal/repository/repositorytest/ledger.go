package repositorytest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sitestock/internal/ledger"
	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/pkg/config"
)

var foldQuantities = []string{"0.1", "0.2", "0.3", "1234567.8912", "0.0001", "7"}

// foldLedger records foldQuantities against one material in the given index
// order, cancels the "0.3" receipt and returns the aggregate after checking
// that a second read returns the same lines.
func foldLedger(t *testing.T, repo repository.Repository, order []int) []ledger.Line {
	t.Helper()
	ctx := context.Background()
	projectID := mustProject(t, repo, "Site")
	material := mustPlan(t, repo, projectID, "Cement")[0]

	svc, err := ledger.NewService(repo, config.LedgerConfig{SystemActor: "system"},
		ledger.WithClock(func() time.Time { return baseTime }))
	require.NoError(t, err)

	var cancelled int64
	for _, idx := range order {
		id, err := svc.RecordReceipt(ctx, ledger.ReceiptInput{
			MaterialID: material.ID,
			Qty:        decimal.RequireFromString(foldQuantities[idx]),
			Actor:      "Ivanov",
		})
		require.NoError(t, err)
		if foldQuantities[idx] == "0.3" {
			cancelled = id
		}
	}
	ok, err := svc.CancelEvent(ctx, cancelled, "Petrov")
	require.NoError(t, err)
	require.True(t, ok)

	first, err := svc.Aggregate(ctx, projectID)
	require.NoError(t, err)
	second, err := svc.Aggregate(ctx, projectID)
	require.NoError(t, err)
	require.Equal(t, first, second, "aggregate is stable without writes")
	require.Len(t, first, 1)
	return first
}

func testLedgerFoldOrder(t *testing.T, newRepo Factory) {
	var forward, reversed []ledger.Line
	t.Run("forward", func(t *testing.T) {
		forward = foldLedger(t, newRepo(t), []int{0, 1, 2, 3, 4, 5})
	})
	t.Run("reversed", func(t *testing.T) {
		reversed = foldLedger(t, newRepo(t), []int{5, 4, 3, 2, 1, 0})
	})
	require.Len(t, forward, 1)
	require.Len(t, reversed, 1)

	requireDecimal(t, "1234575.1913", forward[0].DeliveredTotal)
	requireDecimal(t, forward[0].DeliveredTotal.String(), reversed[0].DeliveredTotal)
	requireDecimal(t, forward[0].Progress.String(), reversed[0].Progress)
	require.Equal(t, forward[0].Status, reversed[0].Status)
}
