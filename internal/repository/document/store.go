// Package document implements the repository contract over a single JSON
// snapshot of the whole database.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/pkg/db/models"
)

type sequences struct {
	Project  int64 `json:"project"`
	Material int64 `json:"material"`
	Event    int64 `json:"event"`
}

type snapshot struct {
	Projects  []models.Project       `json:"projects"`
	Materials []models.Material      `json:"materials"`
	Shipments []models.ShipmentEvent `json:"shipments"`
	Seq       sequences              `json:"seq"`
}

// Store is the snapshot-backed repository.
type Store struct {
	blob Blob
	now  func() time.Time
}

var _ repository.Repository = (*Store)(nil)

// New returns a Store persisting into blob.
func New(blob Blob) (*Store, error) {
	if blob == nil {
		return nil, fmt.Errorf("blob required")
	}
	return &Store{blob: blob, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Ping reports whether the snapshot can be read and decoded.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

func decode(raw []byte) (*snapshot, error) {
	snap := &snapshot{}
	if len(raw) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *Store) load(ctx context.Context) (*snapshot, error) {
	raw, err := s.blob.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return decode(raw)
}

// mutate applies fn to a fresh decode of the stored snapshot. The snapshot is
// only written back when fn succeeds.
func (s *Store) mutate(ctx context.Context, fn func(*snapshot) error) error {
	return s.blob.Update(ctx, func(current []byte) ([]byte, error) {
		snap, err := decode(current)
		if err != nil {
			return nil, err
		}
		if err := fn(snap); err != nil {
			return nil, err
		}
		return json.Marshal(snap)
	})
}

func (snap *snapshot) project(id int64) int {
	for i := range snap.Projects {
		if snap.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (snap *snapshot) nameTaken(name string, except int64) bool {
	for _, p := range snap.Projects {
		if p.Name == name && p.ID != except {
			return true
		}
	}
	return false
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	projects := append([]models.Project{}, snap.Projects...)
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Name != projects[j].Name {
			return projects[i].Name < projects[j].Name
		}
		return projects[i].ID < projects[j].ID
	})
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := snap.project(id)
	if idx < 0 {
		return nil, repository.ErrNotFound
	}
	project := snap.Projects[idx]
	return &project, nil
}

func (s *Store) CreateProject(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.mutate(ctx, func(snap *snapshot) error {
		if snap.nameTaken(name, 0) {
			return fmt.Errorf("create project: %w", repository.ErrDuplicate)
		}
		snap.Seq.Project++
		id = snap.Seq.Project
		snap.Projects = append(snap.Projects, models.Project{ID: id, Name: name, CreatedAt: s.now()})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) RenameProject(ctx context.Context, id int64, name string) error {
	return s.mutate(ctx, func(snap *snapshot) error {
		idx := snap.project(id)
		if idx < 0 {
			return repository.ErrNotFound
		}
		if snap.nameTaken(name, id) {
			return fmt.Errorf("rename project: %w", repository.ErrDuplicate)
		}
		snap.Projects[idx].Name = name
		return nil
	})
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.mutate(ctx, func(snap *snapshot) error {
		idx := snap.project(id)
		if idx < 0 {
			return repository.ErrNotFound
		}
		snap.Projects = append(snap.Projects[:idx], snap.Projects[idx+1:]...)
		snap.Materials = filterMaterials(snap.Materials, id)
		snap.Shipments, _ = filterEvents(snap.Shipments, id)
		return nil
	})
}

func (s *Store) ListMaterials(ctx context.Context, projectID int64) ([]models.Material, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return projectMaterials(snap, projectID), nil
}

func projectMaterials(snap *snapshot, projectID int64) []models.Material {
	out := make([]models.Material, 0)
	for _, m := range snap.Materials {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) GetMaterial(ctx context.Context, id int64) (*models.Material, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range snap.Materials {
		if m.ID == id {
			material := m
			return &material, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ReplaceMaterials(ctx context.Context, projectID int64, rows []models.MaterialInput) ([]models.Material, error) {
	var inserted []models.Material
	err := s.mutate(ctx, func(snap *snapshot) error {
		if snap.project(projectID) < 0 {
			return repository.ErrNotFound
		}
		snap.Materials = filterMaterials(snap.Materials, projectID)
		inserted = make([]models.Material, 0, len(rows))
		now := s.now()
		for _, row := range rows {
			snap.Seq.Material++
			inserted = append(inserted, models.Material{
				ID:         snap.Seq.Material,
				ProjectID:  projectID,
				Name:       row.Name,
				Unit:       row.Unit,
				PlannedQty: row.PlannedQty,
				CreatedAt:  now,
			})
		}
		snap.Materials = append(snap.Materials, inserted...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (s *Store) AppendEvent(ctx context.Context, event *models.ShipmentEvent) (int64, error) {
	if event == nil {
		return 0, errors.New("event required")
	}
	var id int64
	err := s.mutate(ctx, func(snap *snapshot) error {
		snap.Seq.Event++
		id = snap.Seq.Event
		stored := *event
		stored.ID = id
		snap.Shipments = append(snap.Shipments, stored)
		return nil
	})
	if err != nil {
		return 0, err
	}
	event.ID = id
	return id, nil
}

func (s *Store) GetEvent(ctx context.Context, id int64) (*models.ShipmentEvent, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, ev := range snap.Shipments {
		if ev.ID == id {
			event := ev
			return &event, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) DeleteEventsForProject(ctx context.Context, projectID int64) (int64, error) {
	var removed int64
	err := s.mutate(ctx, func(snap *snapshot) error {
		snap.Shipments, removed = filterEvents(snap.Shipments, projectID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Store) SumEventsByMaterial(ctx context.Context, projectID int64) (map[int64]decimal.Decimal, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]decimal.Decimal)
	for _, ev := range snap.Shipments {
		if ev.ProjectID != projectID {
			continue
		}
		out[ev.MaterialID] = out[ev.MaterialID].Add(ev.Qty)
	}
	return out, nil
}

func (s *Store) ListEventsForProject(ctx context.Context, projectID int64) ([]models.HistoryEntry, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	events := make([]models.ShipmentEvent, 0)
	for _, ev := range snap.Shipments {
		if ev.ProjectID == projectID {
			events = append(events, ev)
		}
	}
	return repository.JoinHistory(events, projectMaterials(snap, projectID)), nil
}

func filterMaterials(materials []models.Material, projectID int64) []models.Material {
	kept := materials[:0]
	for _, m := range materials {
		if m.ProjectID != projectID {
			kept = append(kept, m)
		}
	}
	return kept
}

func filterEvents(events []models.ShipmentEvent, projectID int64) ([]models.ShipmentEvent, int64) {
	var removed int64
	kept := events[:0]
	for _, ev := range events {
		if ev.ProjectID == projectID {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	return kept, removed
}
