package plans

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/pkg/db/models"
	"github.com/angelmondragon/sitestock/pkg/logger"
	"github.com/angelmondragon/sitestock/pkg/metrics"
)

type planRepository interface {
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ReplaceMaterials(ctx context.Context, projectID int64, rows []models.MaterialInput) ([]models.Material, error)
}

// Result reports how many materials a load wrote and which rows needed fixing.
type Result struct {
	Inserted  int               `json:"inserted"`
	Errors    []string          `json:"errors"`
	Materials []models.Material `json:"materials,omitempty"`
}

// Loader replaces project plans from spreadsheet rows.
type Loader struct {
	repo    planRepository
	metrics *metrics.LedgerMetrics
	logg    *logger.Logger
}

// NewLoader wires a plan loader. metrics and logg may be nil.
func NewLoader(repo planRepository, m *metrics.LedgerMetrics, logg *logger.Logger) (*Loader, error) {
	if repo == nil {
		return nil, fmt.Errorf("plan repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Loader{repo: repo, metrics: m, logg: logg}, nil
}

// LoadPlan parses rows and swaps the project's plan in one step. Rows with an
// empty or "nan" name are skipped. Bad quantities are recorded in
// Result.Errors and imported as zero, and quantities finer than the stored
// scale are rounded with a note. When nothing parses, the old plan stays.
// Shipment events are never touched.
func (l *Loader) LoadPlan(ctx context.Context, projectID int64, rows []Row) (*Result, error) {
	ctx = l.logg.WithProjectID(ctx, projectID)
	if _, err := l.repo.GetProject(ctx, projectID); err != nil {
		return nil, repository.AsServiceError(err, fmt.Sprintf("project %d not found", projectID))
	}

	result := &Result{Errors: []string{}}
	inputs := make([]models.MaterialInput, 0, len(rows))
	for i, row := range rows {
		line := row.Line
		if line == 0 {
			line = i + 1
		}

		name := strings.TrimSpace(row.Name)
		if name == "" || strings.EqualFold(name, "nan") {
			continue
		}
		if row.Short {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: expected name, unit and quantity columns", line))
		}

		unit := strings.TrimSpace(row.Unit)
		if strings.EqualFold(unit, "nan") {
			unit = ""
		}

		qty, ok := ParseQuantity(row.RawQty)
		switch {
		case !ok:
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: quantity %q is not a number, using 0", line, strings.TrimSpace(row.RawQty)))
		case qty.IsNegative():
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: negative quantity %s clamped to 0", line, qty.String()))
			qty = decimal.Zero
		case !models.FitsQtyScale(qty):
			rounded := qty.Round(models.QtyScale)
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: quantity %s rounded to %s", line, qty.String(), rounded.String()))
			qty = rounded
		}

		inputs = append(inputs, models.MaterialInput{Name: name, Unit: unit, PlannedQty: qty})
	}

	for _, msg := range result.Errors {
		l.logg.Warn(l.logg.WithField(ctx, "detail", msg), "plan.row_error")
	}

	if len(inputs) == 0 {
		l.metrics.ObservePlanImport("empty", 0)
		l.logg.Warn(ctx, "plan.empty_import_ignored")
		return result, nil
	}

	materials, err := l.repo.ReplaceMaterials(ctx, projectID, inputs)
	if err != nil {
		l.metrics.ObservePlanImport("failed", 0)
		return nil, repository.AsServiceError(err, "replace materials")
	}

	result.Inserted = len(materials)
	result.Materials = materials
	l.metrics.ObservePlanImport("replaced", result.Inserted)
	l.logg.Info(l.logg.WithFields(ctx, map[string]any{"inserted": result.Inserted, "row_errors": len(result.Errors)}), "plan.replaced")
	return result, nil
}
