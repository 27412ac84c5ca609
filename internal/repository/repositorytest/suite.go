// Package repositorytest holds the behavioural suite every repository adapter
// must pass.
package repositorytest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/pkg/db/models"
	"github.com/angelmondragon/sitestock/pkg/enums"
)

// Factory returns a fresh, empty repository for a single subtest.
type Factory func(t *testing.T) repository.Repository

// Run executes the contract suite against repositories produced by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("projects", func(t *testing.T) { testProjects(t, newRepo(t)) })
	t.Run("rename", func(t *testing.T) { testRename(t, newRepo(t)) })
	t.Run("replace materials", func(t *testing.T) { testReplaceMaterials(t, newRepo(t)) })
	t.Run("events", func(t *testing.T) { testEvents(t, newRepo(t)) })
	t.Run("orphaned history", func(t *testing.T) { testOrphanedHistory(t, newRepo(t)) })
	t.Run("delete project", func(t *testing.T) { testDeleteProject(t, newRepo(t)) })
	t.Run("ledger fold order", func(t *testing.T) { testLedgerFoldOrder(t, newRepo) })
}

var baseTime = time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func mustProject(t *testing.T, repo repository.Repository, name string) int64 {
	t.Helper()
	id, err := repo.CreateProject(context.Background(), name)
	require.NoError(t, err)
	require.NotZero(t, id)
	return id
}

func mustPlan(t *testing.T, repo repository.Repository, projectID int64, names ...string) []models.Material {
	t.Helper()
	rows := make([]models.MaterialInput, 0, len(names))
	for i, name := range names {
		rows = append(rows, models.MaterialInput{Name: name, Unit: "pcs", PlannedQty: decimal.NewFromInt(int64(10 * (i + 1)))})
	}
	materials, err := repo.ReplaceMaterials(context.Background(), projectID, rows)
	require.NoError(t, err)
	require.Len(t, materials, len(names))
	return materials
}

func receipt(projectID, materialID int64, qty string, at time.Time) *models.ShipmentEvent {
	return &models.ShipmentEvent{
		ProjectID:  projectID,
		MaterialID: materialID,
		Qty:        decimal.RequireFromString(qty),
		UserName:   "Ivanov",
		Store:      "Main",
		DocNumber:  "TN-1",
		OpType:     enums.OperationTypeReceipt,
		OccurredAt: at,
	}
}

func testProjects(t *testing.T, repo repository.Repository) {
	ctx := context.Background()

	list, err := repo.ListProjects(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	bID := mustProject(t, repo, "Tower B")
	aID := mustProject(t, repo, "Tower A")
	require.NotEqual(t, aID, bID)

	_, err = repo.CreateProject(ctx, "Tower A")
	require.ErrorIs(t, err, repository.ErrDuplicate)

	list, err = repo.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Tower A", list[0].Name)
	require.Equal(t, "Tower B", list[1].Name)

	got, err := repo.GetProject(ctx, bID)
	require.NoError(t, err)
	require.Equal(t, "Tower B", got.Name)

	_, err = repo.GetProject(ctx, bID+aID+100)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testRename(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	id := mustProject(t, repo, "Old")
	mustProject(t, repo, "Taken")

	require.NoError(t, repo.RenameProject(ctx, id, "New"))
	got, err := repo.GetProject(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "New", got.Name)

	require.NoError(t, repo.RenameProject(ctx, id, "New"), "renaming to the current name is a no-op")
	require.ErrorIs(t, repo.RenameProject(ctx, id, "Taken"), repository.ErrDuplicate)
	require.ErrorIs(t, repo.RenameProject(ctx, id+100, "Other"), repository.ErrNotFound)
}

func testReplaceMaterials(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	projectID := mustProject(t, repo, "Site")
	otherID := mustProject(t, repo, "Other")

	first := mustPlan(t, repo, projectID, "Cement", "Sand")
	require.Less(t, first[0].ID, first[1].ID)
	requireDecimal(t, "10", first[0].PlannedQty)
	mustPlan(t, repo, otherID, "Rebar")

	second := mustPlan(t, repo, projectID, "Brick", "Gravel", "Lime")
	for _, m := range second {
		require.Equal(t, projectID, m.ProjectID)
		require.Greater(t, m.ID, first[1].ID, "reloaded rows get fresh ids")
	}

	listed, err := repo.ListMaterials(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, "Brick", listed[0].Name)
	require.Equal(t, "Lime", listed[2].Name)
	require.Equal(t, "pcs", listed[0].Unit)

	other, err := repo.ListMaterials(ctx, otherID)
	require.NoError(t, err)
	require.Len(t, other, 1, "other project plans are untouched")

	got, err := repo.GetMaterial(ctx, second[1].ID)
	require.NoError(t, err)
	require.Equal(t, "Gravel", got.Name)
	requireDecimal(t, "20", got.PlannedQty)

	_, err = repo.GetMaterial(ctx, first[0].ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.ReplaceMaterials(ctx, projectID+otherID+100, []models.MaterialInput{{Name: "X"}})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testEvents(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	projectID := mustProject(t, repo, "Site")
	materials := mustPlan(t, repo, projectID, "Cement", "Sand")
	cement, sand := materials[0].ID, materials[1].ID

	id1, err := repo.AppendEvent(ctx, receipt(projectID, cement, "5", baseTime))
	require.NoError(t, err)
	id2, err := repo.AppendEvent(ctx, receipt(projectID, cement, "2.5", baseTime.Add(time.Hour)))
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	cancel := receipt(projectID, cement, "-5", baseTime.Add(2*time.Hour))
	cancel.OpType = enums.OperationTypeCancellation
	cancel.CancelsEventID = &id1
	id3, err := repo.AppendEvent(ctx, cancel)
	require.NoError(t, err)

	_, err = repo.AppendEvent(ctx, receipt(projectID, sand, "1.25", baseTime))
	require.NoError(t, err)

	got, err := repo.GetEvent(ctx, id3)
	require.NoError(t, err)
	require.Equal(t, enums.OperationTypeCancellation, got.OpType)
	require.NotNil(t, got.CancelsEventID)
	require.Equal(t, id1, *got.CancelsEventID)
	requireDecimal(t, "-5", got.Qty)
	require.True(t, got.OccurredAt.Equal(baseTime.Add(2*time.Hour)))

	_, err = repo.GetEvent(ctx, id3+100)
	require.ErrorIs(t, err, repository.ErrNotFound)

	sums, err := repo.SumEventsByMaterial(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	requireDecimal(t, "2.5", sums[cement])
	requireDecimal(t, "1.25", sums[sand])

	history, err := repo.ListEventsForProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, id3, history[0].ID)
	require.Equal(t, id2, history[1].ID)
	require.True(t, history[2].OccurredAt.Equal(baseTime))
	require.Greater(t, history[2].ID, history[3].ID, "ties break by id desc")
	require.Equal(t, "Cement", history[0].MaterialName)
	require.False(t, history[0].Orphaned)

	removed, err := repo.DeleteEventsForProject(ctx, projectID)
	require.NoError(t, err)
	require.Equal(t, int64(4), removed)

	sums, err = repo.SumEventsByMaterial(ctx, projectID)
	require.NoError(t, err)
	require.Empty(t, sums)

	listed, err := repo.ListMaterials(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, listed, 2, "clearing history keeps the plan")
}

func testOrphanedHistory(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	projectID := mustProject(t, repo, "Site")
	old := mustPlan(t, repo, projectID, "Cement")

	_, err := repo.AppendEvent(ctx, receipt(projectID, old[0].ID, "3", baseTime))
	require.NoError(t, err)

	mustPlan(t, repo, projectID, "Cement")

	history, err := repo.ListEventsForProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, history, 1, "plan reloads keep events")
	require.True(t, history[0].Orphaned)
	require.Empty(t, history[0].MaterialName)
}

func testDeleteProject(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	projectID := mustProject(t, repo, "Doomed")
	keepID := mustProject(t, repo, "Kept")
	materials := mustPlan(t, repo, projectID, "Cement")
	kept := mustPlan(t, repo, keepID, "Sand")

	_, err := repo.AppendEvent(ctx, receipt(projectID, materials[0].ID, "1", baseTime))
	require.NoError(t, err)
	keptEvent, err := repo.AppendEvent(ctx, receipt(keepID, kept[0].ID, "2", baseTime))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteProject(ctx, projectID))

	_, err = repo.GetProject(ctx, projectID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetMaterial(ctx, materials[0].ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	history, err := repo.ListEventsForProject(ctx, projectID)
	require.NoError(t, err)
	require.Empty(t, history)

	_, err = repo.GetEvent(ctx, keptEvent)
	require.NoError(t, err, "other projects keep their ledger")

	require.ErrorIs(t, repo.DeleteProject(ctx, projectID), repository.ErrNotFound)
}
