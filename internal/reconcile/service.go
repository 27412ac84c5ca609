package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/pkg/config"
	"github.com/angelmondragon/sitestock/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
	"github.com/angelmondragon/sitestock/pkg/logger"
	"github.com/angelmondragon/sitestock/pkg/metrics"
)

type materialRepository interface {
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListMaterials(ctx context.Context, projectID int64) ([]models.Material, error)
}

// GridLoader resolves a stock source into a headerless cell grid.
type GridLoader interface {
	Load(ctx context.Context, source string) ([][]string, error)
}

// Request describes one reconciliation run. Grid, when set, is used as is and
// Source only labels the report. Threshold overrides the configured default.
type Request struct {
	ProjectID int64
	Source    string
	Grid      [][]string
	Threshold *int
}

// Service compares a project's plan with warehouse stock. It never writes.
type Service interface {
	ReconcileProject(ctx context.Context, projectID int64, url string) (*Report, error)
	Run(ctx context.Context, req Request) (*Report, error)
}

type service struct {
	repo      materialRepository
	loader    GridLoader
	layout    Layout
	threshold int
	metrics   *metrics.ReconcileMetrics
	logg      *logger.Logger
}

// NewService wires the reconciliation service.
func NewService(repo materialRepository, loader GridLoader, cfg config.StockConfig, m *metrics.ReconcileMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reconcile repository required")
	}
	if loader == nil {
		return nil, fmt.Errorf("stock loader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:      repo,
		loader:    loader,
		layout:    LayoutFromConfig(cfg),
		threshold: cfg.Threshold,
		metrics:   m,
		logg:      logg,
	}, nil
}

func (s *service) ReconcileProject(ctx context.Context, projectID int64, url string) (*Report, error) {
	return s.Run(ctx, Request{ProjectID: projectID, Source: url})
}

func (s *service) Run(ctx context.Context, req Request) (report *Report, err error) {
	started := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(pkgerrors.As(err).Code())
		}
		s.metrics.ObserveRun(outcome, time.Since(started))
	}()

	ctx = s.logg.WithProjectID(ctx, req.ProjectID)
	threshold := s.threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 100 {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "threshold must be within 0..100, got %d", threshold)
	}

	if _, err := s.repo.GetProject(ctx, req.ProjectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "project %d not found", req.ProjectID)
		}
		return nil, repository.AsServiceError(err, "load project")
	}
	materials, err := s.repo.ListMaterials(ctx, req.ProjectID)
	if err != nil {
		return nil, repository.AsServiceError(err, "list materials")
	}

	grid := req.Grid
	if grid == nil {
		if grid, err = s.loader.Load(ctx, req.Source); err != nil {
			s.logg.Error(ctx, "reconcile.fetch_failed", err)
			return nil, err
		}
	}
	stock, err := ParseGrid(grid, s.layout)
	if err != nil {
		return nil, err
	}

	plan := make([]PlanRow, 0, len(materials))
	for _, m := range materials {
		plan = append(plan, PlanRow{Name: m.Name, Unit: m.Unit})
	}
	rows, err := Reconcile(plan, stock, threshold)
	if err != nil {
		return nil, err
	}

	report = &Report{ProjectID: req.ProjectID, Source: req.Source, Threshold: threshold, Rows: rows}
	matched := len(report.Matched())
	s.metrics.AddRows(matched, len(rows)-matched)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"stock_rows": len(stock),
		"matched":    matched,
		"unmatched":  len(rows) - matched,
	}), "reconcile.completed")
	return report, nil
}
