// Package repository defines the storage contract shared by the relational and
// document adapters.
package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sitestock/pkg/db/models"
)

var (
	// ErrNotFound is returned when a project, material or event id does not resolve.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a project name is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// Repository is the storage contract consumed by the services.
type Repository interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, name string) (int64, error)
	RenameProject(ctx context.Context, id int64, name string) error
	// DeleteProject removes the project with its materials and events atomically.
	DeleteProject(ctx context.Context, id int64) error

	ListMaterials(ctx context.Context, projectID int64) ([]models.Material, error)
	GetMaterial(ctx context.Context, id int64) (*models.Material, error)
	// ReplaceMaterials swaps the whole plan of a project. Either every row is
	// written or the previous plan stays untouched.
	ReplaceMaterials(ctx context.Context, projectID int64, rows []models.MaterialInput) ([]models.Material, error)

	AppendEvent(ctx context.Context, event *models.ShipmentEvent) (int64, error)
	GetEvent(ctx context.Context, id int64) (*models.ShipmentEvent, error)
	DeleteEventsForProject(ctx context.Context, projectID int64) (int64, error)
	SumEventsByMaterial(ctx context.Context, projectID int64) (map[int64]decimal.Decimal, error)
	ListEventsForProject(ctx context.Context, projectID int64) ([]models.HistoryEntry, error)
}

// JoinHistory attaches material name and unit to each event and orders the
// result newest first. Events whose material is not in materials are flagged
// as orphaned.
func JoinHistory(events []models.ShipmentEvent, materials []models.Material) []models.HistoryEntry {
	byID := make(map[int64]models.Material, len(materials))
	for _, m := range materials {
		byID[m.ID] = m
	}

	out := make([]models.HistoryEntry, 0, len(events))
	for _, ev := range events {
		entry := models.HistoryEntry{ShipmentEvent: ev}
		if m, ok := byID[ev.MaterialID]; ok {
			entry.MaterialName = m.Name
			entry.MaterialUnit = m.Unit
		} else {
			entry.Orphaned = true
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
