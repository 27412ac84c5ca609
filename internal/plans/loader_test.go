package plans

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/internal/repository/document"
	"github.com/angelmondragon/sitestock/pkg/db/models"
	"github.com/angelmondragon/sitestock/pkg/enums"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
)

type fakeRepository struct {
	getProjectFn func(ctx context.Context, id int64) (*models.Project, error)
	replaceFn    func(ctx context.Context, projectID int64, rows []models.MaterialInput) ([]models.Material, error)
}

func (f *fakeRepository) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	if f.getProjectFn != nil {
		return f.getProjectFn(ctx, id)
	}
	return &models.Project{ID: id}, nil
}

func (f *fakeRepository) ReplaceMaterials(ctx context.Context, projectID int64, rows []models.MaterialInput) ([]models.Material, error) {
	if f.replaceFn != nil {
		return f.replaceFn(ctx, projectID, rows)
	}
	out := make([]models.Material, len(rows))
	for i, r := range rows {
		out[i] = models.Material{ID: int64(i + 1), ProjectID: projectID, Name: r.Name, Unit: r.Unit, PlannedQty: r.PlannedQty}
	}
	return out, nil
}

func TestNewLoaderRequiresRepo(t *testing.T) {
	_, err := NewLoader(nil, nil, nil)
	require.Error(t, err)
}

func TestLoadPlanParsesRows(t *testing.T) {
	var got []models.MaterialInput
	repo := &fakeRepository{}
	repo.replaceFn = func(ctx context.Context, projectID int64, rows []models.MaterialInput) ([]models.Material, error) {
		got = rows
		return make([]models.Material, len(rows)), nil
	}
	loader, err := NewLoader(repo, nil, nil)
	require.NoError(t, err)

	result, err := loader.LoadPlan(context.Background(), 1, []Row{
		{Line: 2, Name: "  Цемент М500 ", Unit: " меш ", RawQty: "1 200,5"},
		{Line: 3, Name: "nan", Unit: "t", RawQty: "5"},
		{Line: 4, Name: "", Unit: "", RawQty: ""},
		{Line: 5, Name: "Песок", Unit: "nan", RawQty: "много"},
		{Line: 6, Name: "Щебень", Unit: "т", RawQty: "-4"},
		{Line: 7, Name: "Гвозди", Short: true},
	})
	require.NoError(t, err)
	require.Equal(t, 4, result.Inserted)

	require.Len(t, got, 4)
	assert.Equal(t, "Цемент М500", got[0].Name)
	assert.Equal(t, "меш", got[0].Unit)
	assert.Equal(t, "1200.5", got[0].PlannedQty.String())
	assert.Equal(t, "", got[1].Unit)
	assert.True(t, got[1].PlannedQty.IsZero())
	assert.True(t, got[2].PlannedQty.IsZero(), "negative quantities clamp to zero")
	assert.Equal(t, "Гвозди", got[3].Name)

	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "row 5")
	assert.Contains(t, result.Errors[1], "row 6")
	assert.Contains(t, result.Errors[2], "row 7")
}

func TestLoadPlanRoundsToStoredScale(t *testing.T) {
	var got []models.MaterialInput
	repo := &fakeRepository{}
	repo.replaceFn = func(ctx context.Context, projectID int64, rows []models.MaterialInput) ([]models.Material, error) {
		got = rows
		return make([]models.Material, len(rows)), nil
	}
	loader, err := NewLoader(repo, nil, nil)
	require.NoError(t, err)

	result, err := loader.LoadPlan(context.Background(), 1, []Row{
		{Line: 2, Name: "Краска", Unit: "л", RawQty: "2,123456"},
		{Line: 3, Name: "Грунт", Unit: "л", RawQty: "0,00001"},
		{Line: 4, Name: "Клей", Unit: "кг", RawQty: "1,50000"},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2.1235", got[0].PlannedQty.String())
	assert.True(t, got[1].PlannedQty.IsZero())
	assert.True(t, decimal.RequireFromString("1.5").Equal(got[2].PlannedQty))

	require.Len(t, result.Errors, 2, "trailing zeros fit the scale")
	assert.Contains(t, result.Errors[0], "row 2")
	assert.Contains(t, result.Errors[1], "row 3")
}

func TestLoadPlanUnknownProject(t *testing.T) {
	repo := &fakeRepository{getProjectFn: func(ctx context.Context, id int64) (*models.Project, error) {
		return nil, repository.ErrNotFound
	}}
	loader, err := NewLoader(repo, nil, nil)
	require.NoError(t, err)

	_, err = loader.LoadPlan(context.Background(), 9, []Row{{Name: "Cement", RawQty: "1"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestLoadPlanStorageFailure(t *testing.T) {
	repo := &fakeRepository{replaceFn: func(ctx context.Context, projectID int64, rows []models.MaterialInput) ([]models.Material, error) {
		return nil, errors.New("constraint failed")
	}}
	loader, err := NewLoader(repo, nil, nil)
	require.NoError(t, err)

	_, err = loader.LoadPlan(context.Background(), 1, []Row{{Name: "Cement", RawQty: "1"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestLoadPlanReplacesAndKeepsEvents(t *testing.T) {
	ctx := context.Background()
	repo, err := document.New(document.NewMemoryBlob())
	require.NoError(t, err)
	projectID, err := repo.CreateProject(ctx, "Site")
	require.NoError(t, err)

	loader, err := NewLoader(repo, nil, nil)
	require.NoError(t, err)

	first, err := loader.LoadPlan(ctx, projectID, []Row{{Name: "Cement", Unit: "bag", RawQty: "10"}, {Name: "Sand", Unit: "t", RawQty: "4"}})
	require.NoError(t, err)
	require.Equal(t, 2, first.Inserted)

	_, err = repo.AppendEvent(ctx, &models.ShipmentEvent{
		ProjectID: projectID, MaterialID: first.Materials[0].ID, Qty: decimal.NewFromInt(3),
		UserName: "Ivanov", OpType: enums.OperationTypeReceipt,
	})
	require.NoError(t, err)

	second, err := loader.LoadPlan(ctx, projectID, []Row{{Name: "Cement", Unit: "bag", RawQty: "12"}})
	require.NoError(t, err)
	require.Equal(t, 1, second.Inserted)

	materials, err := repo.ListMaterials(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "12", materials[0].PlannedQty.String())

	history, err := repo.ListEventsForProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Orphaned)
}

func TestLoadPlanWithNothingParsedKeepsOldPlan(t *testing.T) {
	ctx := context.Background()
	repo, err := document.New(document.NewMemoryBlob())
	require.NoError(t, err)
	projectID, err := repo.CreateProject(ctx, "Site")
	require.NoError(t, err)
	_, err = repo.ReplaceMaterials(ctx, projectID, []models.MaterialInput{{Name: "Cement", PlannedQty: decimal.NewFromInt(1)}})
	require.NoError(t, err)

	loader, err := NewLoader(repo, nil, nil)
	require.NoError(t, err)
	result, err := loader.LoadPlan(ctx, projectID, []Row{{Name: "nan"}, {Name: "  "}})
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)

	materials, err := repo.ListMaterials(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, materials, 1)
}
