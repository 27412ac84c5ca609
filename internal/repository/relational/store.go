// Package relational implements the repository contract on gorm. Postgres is
// the production target; SQLite backs local development and tests.
package relational

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/pkg/db"
	"github.com/angelmondragon/sitestock/pkg/db/models"
)

// Store is the gorm-backed repository.
type Store struct {
	client *db.Client
}

var _ repository.Repository = (*Store)(nil)

// New returns a Store bound to the provided client.
func New(client *db.Client) (*Store, error) {
	if client == nil || client.DB() == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Store{client: client}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return s.client.DB()
	}
	return s.client.DB().WithContext(ctx)
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := s.conn(ctx).Order("name ASC").Order("id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	if err := s.conn(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, translate("get project", err)
	}
	return &project, nil
}

func (s *Store) CreateProject(ctx context.Context, name string) (int64, error) {
	project := models.Project{Name: name}
	if err := s.conn(ctx).Create(&project).Error; err != nil {
		return 0, translate("create project", err)
	}
	return project.ID, nil
}

func (s *Store) RenameProject(ctx context.Context, id int64, name string) error {
	res := s.conn(ctx).Model(&models.Project{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return translate("rename project", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteProject removes events, materials and the project row in one
// transaction. The cascade is explicit so both dialects behave the same
// regardless of foreign key enforcement.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ShipmentEvent{}).Error; err != nil {
			return fmt.Errorf("delete project events: %w", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Material{}).Error; err != nil {
			return fmt.Errorf("delete project materials: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Project{})
		if res.Error != nil {
			return fmt.Errorf("delete project: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListMaterials(ctx context.Context, projectID int64) ([]models.Material, error) {
	var materials []models.Material
	if err := s.conn(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&materials).Error; err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

func (s *Store) GetMaterial(ctx context.Context, id int64) (*models.Material, error) {
	var material models.Material
	if err := s.conn(ctx).Where("id = ?", id).First(&material).Error; err != nil {
		return nil, translate("get material", err)
	}
	return &material, nil
}

func (s *Store) ReplaceMaterials(ctx context.Context, projectID int64, rows []models.MaterialInput) ([]models.Material, error) {
	materials := make([]models.Material, 0, len(rows))
	for _, row := range rows {
		materials = append(materials, models.Material{
			ProjectID:  projectID,
			Name:       row.Name,
			Unit:       row.Unit,
			PlannedQty: row.PlannedQty,
		})
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
			return fmt.Errorf("check project: %w", err)
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Material{}).Error; err != nil {
			return fmt.Errorf("delete materials: %w", err)
		}
		if len(materials) == 0 {
			return nil
		}
		if err := tx.Create(&materials).Error; err != nil {
			return fmt.Errorf("insert materials: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func (s *Store) AppendEvent(ctx context.Context, event *models.ShipmentEvent) (int64, error) {
	if event == nil {
		return 0, fmt.Errorf("event required")
	}
	if err := s.conn(ctx).Create(event).Error; err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	return event.ID, nil
}

func (s *Store) GetEvent(ctx context.Context, id int64) (*models.ShipmentEvent, error) {
	var event models.ShipmentEvent
	if err := s.conn(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, translate("get event", err)
	}
	return &event, nil
}

func (s *Store) DeleteEventsForProject(ctx context.Context, projectID int64) (int64, error) {
	res := s.conn(ctx).Where("project_id = ?", projectID).Delete(&models.ShipmentEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete events: %w", res.Error)
	}
	return res.RowsAffected, nil
}

type materialSum struct {
	MaterialID int64
	Total      decimal.Decimal
}

// SumEventsByMaterial folds the signed quantities per material id in SQL.
// Sums are rounded to the column scale since SQLite aggregates numerics as floats.
func (s *Store) SumEventsByMaterial(ctx context.Context, projectID int64) (map[int64]decimal.Decimal, error) {
	var sums []materialSum
	err := s.conn(ctx).
		Model(&models.ShipmentEvent{}).
		Select("material_id, SUM(qty) AS total").
		Where("project_id = ?", projectID).
		Group("material_id").
		Scan(&sums).Error
	if err != nil {
		return nil, fmt.Errorf("sum events: %w", err)
	}

	out := make(map[int64]decimal.Decimal, len(sums))
	for _, row := range sums {
		out[row.MaterialID] = row.Total.Round(4)
	}
	return out, nil
}

func (s *Store) ListEventsForProject(ctx context.Context, projectID int64) ([]models.HistoryEntry, error) {
	var events []models.ShipmentEvent
	if err := s.conn(ctx).
		Where("project_id = ?", projectID).
		Order("occurred_at DESC").
		Order("id DESC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	materials, err := s.ListMaterials(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return repository.JoinHistory(events, materials), nil
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case db.IsUniqueViolation(err, ""):
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
