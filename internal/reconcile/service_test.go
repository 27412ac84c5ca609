package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
	"github.com/angelmondragon/sitestock/pkg/metrics"
)

type fakeRepository struct {
	getProjectFn    func(ctx context.Context, id int64) (*models.Project, error)
	listMaterialsFn func(ctx context.Context, projectID int64) ([]models.Material, error)
}

func (f *fakeRepository) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	if f.getProjectFn != nil {
		return f.getProjectFn(ctx, id)
	}
	return &models.Project{ID: id, Name: "Объект"}, nil
}

func (f *fakeRepository) ListMaterials(ctx context.Context, projectID int64) ([]models.Material, error) {
	if f.listMaterialsFn != nil {
		return f.listMaterialsFn(ctx, projectID)
	}
	return nil, nil
}

type fakeLoader struct {
	loadFn func(ctx context.Context, source string) ([][]string, error)
	calls  int
}

func (f *fakeLoader) Load(ctx context.Context, source string) ([][]string, error) {
	f.calls++
	if f.loadFn != nil {
		return f.loadFn(ctx, source)
	}
	return nil, nil
}

func planMaterials(names ...string) func(context.Context, int64) ([]models.Material, error) {
	return func(_ context.Context, projectID int64) ([]models.Material, error) {
		out := make([]models.Material, len(names))
		for i, n := range names {
			out[i] = models.Material{ID: int64(i + 1), ProjectID: projectID, Name: n, Unit: "шт", PlannedQty: decimal.NewFromInt(1)}
		}
		return out, nil
	}
}

func TestReconcileProject(t *testing.T) {
	repo := &fakeRepository{listMaterialsFn: planMaterials("Цемент М500 50кг", "Кирпич облицовочный")}
	loader := &fakeLoader{loadFn: func(_ context.Context, source string) ([][]string, error) {
		assert.Equal(t, "https://stock.example/list.xlsx", source)
		return [][]string{
			gridRow("50кг Цемент M500", "Склад 1", "20", "A1"),
			gridRow("Песок речной", "Склад 2", "5", "B2"),
		}, nil
	}}
	reg := prometheus.NewRegistry()
	svc, err := NewService(repo, loader, testStockConfig(), metrics.NewReconcileMetrics(reg), nil)
	require.NoError(t, err)

	report, err := svc.ReconcileProject(context.Background(), 7, "https://stock.example/list.xlsx")
	require.NoError(t, err)
	assert.Equal(t, int64(7), report.ProjectID)
	assert.Equal(t, 80, report.Threshold)
	require.Len(t, report.Matched(), 1)
	require.Len(t, report.Unmatched(), 1)
	assert.Equal(t, "20", report.Matched()[0].StockQty.String())
	assert.Equal(t, "Кирпич облицовочный", report.Unmatched()[0].PlanName)

	expected := `
# HELP sitestock_reconcile_rows_total Plan rows reconciled, split by match result.
# TYPE sitestock_reconcile_rows_total counter
sitestock_reconcile_rows_total{result="matched"} 1
sitestock_reconcile_rows_total{result="unmatched"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "sitestock_reconcile_rows_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "sitestock_reconcile_duration_seconds"))
}

func TestRunWithGridAndThreshold(t *testing.T) {
	repo := &fakeRepository{listMaterialsFn: planMaterials("Песок речной")}
	loader := &fakeLoader{}
	svc, err := NewService(repo, loader, testStockConfig(), nil, nil)
	require.NoError(t, err)

	grid := [][]string{gridRow("Песок карьерный", "Склад 1", "2", "")}

	strict := 100
	report, err := svc.Run(context.Background(), Request{ProjectID: 1, Source: "stock.csv", Grid: grid, Threshold: &strict})
	require.NoError(t, err)
	assert.Equal(t, 0, loader.calls, "a provided grid skips the loader")
	assert.Empty(t, report.Matched())
	assert.Equal(t, "stock.csv", report.Source)

	loose := 0
	report, err = svc.Run(context.Background(), Request{ProjectID: 1, Grid: grid, Threshold: &loose})
	require.NoError(t, err)
	assert.Len(t, report.Matched(), 1)

	bad := 150
	_, err = svc.Run(context.Background(), Request{ProjectID: 1, Grid: grid, Threshold: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReconcileProjectErrors(t *testing.T) {
	t.Run("unknown project", func(t *testing.T) {
		repo := &fakeRepository{getProjectFn: func(context.Context, int64) (*models.Project, error) {
			return nil, repository.ErrNotFound
		}}
		svc, err := NewService(repo, &fakeLoader{}, testStockConfig(), nil, nil)
		require.NoError(t, err)

		_, err = svc.ReconcileProject(context.Background(), 9, "https://stock.example")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		loader := &fakeLoader{loadFn: func(context.Context, string) ([][]string, error) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("timeout"), "stock source could not be fetched")
		}}
		svc, err := NewService(&fakeRepository{}, loader, testStockConfig(), nil, nil)
		require.NoError(t, err)

		_, err = svc.ReconcileProject(context.Background(), 1, "https://stock.example")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	})

	t.Run("narrow sheet", func(t *testing.T) {
		loader := &fakeLoader{loadFn: func(context.Context, string) ([][]string, error) {
			return [][]string{{"a", "b", "c"}}, nil
		}}
		svc, err := NewService(&fakeRepository{}, loader, testStockConfig(), nil, nil)
		require.NoError(t, err)

		_, err = svc.ReconcileProject(context.Background(), 1, "https://stock.example")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStockFormat))
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := &fakeRepository{listMaterialsFn: func(context.Context, int64) ([]models.Material, error) {
			return nil, errors.New("disk gone")
		}}
		svc, err := NewService(repo, &fakeLoader{}, testStockConfig(), nil, nil)
		require.NoError(t, err)

		_, err = svc.ReconcileProject(context.Background(), 1, "https://stock.example")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	})
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(nil, &fakeLoader{}, testStockConfig(), nil, nil)
	assert.Error(t, err)
	_, err = NewService(&fakeRepository{}, nil, testStockConfig(), nil, nil)
	assert.Error(t, err)
}
