package bootstrap

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sitestock/internal/ledger"
	"github.com/angelmondragon/sitestock/internal/plans"
	"github.com/angelmondragon/sitestock/pkg/config"
)

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil)
	require.Error(t, err)
}

func exercise(t *testing.T, app *App) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, app.Store.Ping(ctx))

	project, err := app.Projects.Create(ctx, "Site")
	require.NoError(t, err)

	result, err := app.Plans.LoadPlan(ctx, project.ID, []plans.Row{{Line: 2, Name: "Цемент", Unit: "т", RawQty: "10"}})
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)

	lines, err := app.Ledger.Aggregate(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	_, err = app.Ledger.RecordReceipt(ctx, ledger.ReceiptInput{
		MaterialID: lines[0].Material.ID,
		Qty:        decimal.NewFromInt(3),
		Actor:      "Иванов",
	})
	require.NoError(t, err)

	summary, err := app.Ledger.Summary(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, summary.DeliveredTotal.Equal(decimal.NewFromInt(3)))

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewDocumentMemoryBackend(t *testing.T) {
	cfg := &config.Config{
		App:     config.AppConfig{Env: "test"},
		Storage: config.StorageConfig{Backend: config.BackendDocument, DocumentBlob: config.BlobMemory},
		Stock:   config.StockConfig{Threshold: 80, MinColumns: 17, NameColumn: 1, StoreColumn: 12, QtyColumn: 13, ShelfColumn: 16},
	}
	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Nil(t, app.Redis)
	assert.Nil(t, app.IdempotencyStore())
	exercise(t, app)
}

func TestNewRelationalSQLiteBackend(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		DB: config.DBConfig{
			Driver:       config.DriverSQLite,
			DSN:          "file:bootstrap_test?mode=memory&cache=shared",
			MaxOpenConns: 1,
		},
		Storage: config.StorageConfig{Backend: config.BackendRelational},
		Stock:   config.StockConfig{Threshold: 80, MinColumns: 17, NameColumn: 1, StoreColumn: 12, QtyColumn: 13, ShelfColumn: 16},
	}
	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	exercise(t, app)
	require.NoError(t, app.Close())
	require.NoError(t, app.Close())
}

func TestNewRedisBlobWithoutRedis(t *testing.T) {
	cfg := &config.Config{
		App:     config.AppConfig{Env: "test"},
		Storage: config.StorageConfig{Backend: config.BackendDocument, DocumentBlob: config.BlobRedis},
	}
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}
