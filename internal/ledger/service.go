package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/pkg/config"
	"github.com/angelmondragon/sitestock/pkg/db/models"
	"github.com/angelmondragon/sitestock/pkg/enums"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
	"github.com/angelmondragon/sitestock/pkg/logger"
	"github.com/angelmondragon/sitestock/pkg/metrics"
)

const defaultSystemActor = "system"

type ledgerRepository interface {
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListMaterials(ctx context.Context, projectID int64) ([]models.Material, error)
	GetMaterial(ctx context.Context, id int64) (*models.Material, error)
	AppendEvent(ctx context.Context, event *models.ShipmentEvent) (int64, error)
	GetEvent(ctx context.Context, id int64) (*models.ShipmentEvent, error)
	DeleteEventsForProject(ctx context.Context, projectID int64) (int64, error)
	SumEventsByMaterial(ctx context.Context, projectID int64) (map[int64]decimal.Decimal, error)
	ListEventsForProject(ctx context.Context, projectID int64) ([]models.HistoryEntry, error)
}

// Service records deliveries and derives progress from the event ledger.
type Service interface {
	RecordReceipt(ctx context.Context, input ReceiptInput) (int64, error)
	CancelEvent(ctx context.Context, eventID int64, actor string) (bool, error)
	Aggregate(ctx context.Context, projectID int64) ([]Line, error)
	Summary(ctx context.Context, projectID int64) (*Summary, error)
	History(ctx context.Context, projectID int64) ([]models.HistoryEntry, error)
	ClearHistory(ctx context.Context, projectID int64) (int64, error)
}

// ReceiptInput describes one delivery. A zero Timestamp means now.
type ReceiptInput struct {
	MaterialID int64           `json:"material_id"`
	Qty        decimal.Decimal `json:"qty"`
	Actor      string          `json:"actor"`
	Timestamp  time.Time       `json:"timestamp"`
	Store      string          `json:"store"`
	DocNumber  string          `json:"doc_number"`
	Note       string          `json:"note"`
}

// Line is the derived state of one material.
type Line struct {
	Material       models.Material  `json:"material"`
	PlannedQty     decimal.Decimal  `json:"planned_qty"`
	DeliveredTotal decimal.Decimal  `json:"delivered_total"`
	Progress       decimal.Decimal  `json:"progress"`
	Remaining      decimal.Decimal  `json:"remaining"`
	Status         enums.LineStatus `json:"status"`
}

// Summary rolls the lines of a project up into overall totals.
type Summary struct {
	ProjectID       int64           `json:"project_id"`
	PlannedTotal    decimal.Decimal `json:"planned_total"`
	DeliveredTotal  decimal.Decimal `json:"delivered_total"`
	OverallProgress decimal.Decimal `json:"overall_progress"`
	Complete        int             `json:"complete"`
	InProgress      int             `json:"in_progress"`
	NotStarted      int             `json:"not_started"`
	Lines           []Line          `json:"lines"`
}

type service struct {
	repo         ledgerRepository
	placeholders map[string]struct{}
	allowed      map[string]struct{}
	systemActor  string
	metrics      *metrics.LedgerMetrics
	logg         *logger.Logger
	now          func() time.Time
}

// Option customises the service.
type Option func(*service)

// WithClock overrides the time source used for receipts without a timestamp
// and for cancellations.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics attaches ledger counters.
func WithMetrics(m *metrics.LedgerMetrics) Option {
	return func(s *service) { s.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(logg *logger.Logger) Option {
	return func(s *service) {
		if logg != nil {
			s.logg = logg
		}
	}
}

// NewService wires a ledger service with the provided repository.
func NewService(repo ledgerRepository, cfg config.LedgerConfig, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	s := &service{
		repo:         repo,
		placeholders: make(map[string]struct{}, len(cfg.PlaceholderActors)),
		systemActor:  strings.TrimSpace(cfg.SystemActor),
		logg:         logger.Nop(),
		now:          time.Now,
	}
	for _, p := range cfg.PlaceholderActors {
		if p = strings.TrimSpace(p); p != "" {
			s.placeholders[p] = struct{}{}
		}
	}
	if len(cfg.AllowedActors) > 0 {
		s.allowed = make(map[string]struct{}, len(cfg.AllowedActors))
		for _, a := range cfg.AllowedActors {
			if a = strings.TrimSpace(a); a != "" {
				s.allowed[a] = struct{}{}
			}
		}
	}
	if s.systemActor == "" {
		s.systemActor = defaultSystemActor
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) RecordReceipt(ctx context.Context, input ReceiptInput) (int64, error) {
	if !input.Qty.IsPositive() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if !models.FitsQtyScale(input.Qty) {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity supports at most %d decimal places", models.QtyScale)
	}
	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if _, ok := s.placeholders[actor]; ok {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "actor %q is a placeholder, pick an employee", actor)
	}
	if s.allowed != nil {
		if _, ok := s.allowed[actor]; !ok {
			return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "actor %q is not on the employee list", actor)
		}
	}

	material, err := s.repo.GetMaterial(ctx, input.MaterialID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "material %d does not exist", input.MaterialID)
		}
		return 0, repository.AsServiceError(err, "load material")
	}

	at := input.Timestamp
	if at.IsZero() {
		at = s.now()
	}

	event := &models.ShipmentEvent{
		ProjectID:  material.ProjectID,
		MaterialID: material.ID,
		Qty:        input.Qty,
		UserName:   actor,
		Store:      strings.TrimSpace(input.Store),
		DocNumber:  strings.TrimSpace(input.DocNumber),
		Note:       strings.TrimSpace(input.Note),
		OpType:     enums.OperationTypeReceipt,
		OccurredAt: at.UTC(),
	}
	id, err := s.repo.AppendEvent(ctx, event)
	if err != nil {
		return 0, repository.AsServiceError(err, "append receipt")
	}

	s.metrics.IncEvent(enums.OperationTypeReceipt.String())
	ctx = s.logg.WithFields(s.logg.WithActor(ctx, actor), map[string]any{
		"project_id":  material.ProjectID,
		"material_id": material.ID,
		"event_id":    id,
		"qty":         input.Qty.String(),
	})
	s.logg.Info(ctx, "ledger.receipt_recorded")
	return id, nil
}

// CancelEvent appends a compensating entry for eventID. A missing event is
// reported as (false, nil) so callers can treat stale undo requests as no-ops.
func (s *service) CancelEvent(ctx context.Context, eventID int64, actor string) (bool, error) {
	original, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, repository.AsServiceError(err, "load event")
	}

	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = s.systemActor
	}

	cancelsID := original.ID
	compensation := &models.ShipmentEvent{
		ProjectID:      original.ProjectID,
		MaterialID:     original.MaterialID,
		Qty:            original.Qty.Abs().Neg(),
		UserName:       actor,
		Store:          original.Store,
		DocNumber:      original.DocNumber,
		Note:           fmt.Sprintf("cancels event #%d; original note: %s", original.ID, original.Note),
		OpType:         enums.OperationTypeCancellation,
		CancelsEventID: &cancelsID,
		OccurredAt:     s.now().UTC(),
	}
	id, err := s.repo.AppendEvent(ctx, compensation)
	if err != nil {
		return false, repository.AsServiceError(err, "append cancellation")
	}

	s.metrics.IncEvent(enums.OperationTypeCancellation.String())
	ctx = s.logg.WithFields(s.logg.WithActor(ctx, actor), map[string]any{
		"project_id":       original.ProjectID,
		"event_id":         id,
		"cancels_event_id": original.ID,
	})
	s.logg.Info(ctx, "ledger.event_cancelled")
	return true, nil
}

func (s *service) Aggregate(ctx context.Context, projectID int64) ([]Line, error) {
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, repository.AsServiceError(err, fmt.Sprintf("project %d not found", projectID))
	}
	materials, err := s.repo.ListMaterials(ctx, projectID)
	if err != nil {
		return nil, repository.AsServiceError(err, "list materials")
	}
	sums, err := s.repo.SumEventsByMaterial(ctx, projectID)
	if err != nil {
		return nil, repository.AsServiceError(err, "sum events")
	}

	lines := make([]Line, 0, len(materials))
	for _, m := range materials {
		lines = append(lines, buildLine(m, sums[m.ID]))
	}
	return lines, nil
}

func buildLine(m models.Material, delivered decimal.Decimal) Line {
	progress := decimal.Zero
	if m.PlannedQty.IsPositive() {
		progress = delivered.Div(m.PlannedQty)
	}
	return Line{
		Material:       m,
		PlannedQty:     m.PlannedQty,
		DeliveredTotal: delivered,
		Progress:       progress,
		Remaining:      m.PlannedQty.Sub(delivered),
		Status:         statusFor(progress),
	}
}

func statusFor(progress decimal.Decimal) enums.LineStatus {
	switch {
	case progress.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return enums.LineStatusComplete
	case progress.IsPositive():
		return enums.LineStatusInProgress
	default:
		return enums.LineStatusNotStarted
	}
}

func (s *service) Summary(ctx context.Context, projectID int64) (*Summary, error) {
	lines, err := s.Aggregate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{ProjectID: projectID, Lines: lines}
	for _, line := range lines {
		summary.PlannedTotal = summary.PlannedTotal.Add(line.PlannedQty)
		summary.DeliveredTotal = summary.DeliveredTotal.Add(line.DeliveredTotal)
		switch line.Status {
		case enums.LineStatusComplete:
			summary.Complete++
		case enums.LineStatusInProgress:
			summary.InProgress++
		default:
			summary.NotStarted++
		}
	}
	if summary.PlannedTotal.IsPositive() {
		summary.OverallProgress = summary.DeliveredTotal.Div(summary.PlannedTotal)
	}

	sort.SliceStable(summary.Lines, func(i, j int) bool {
		a, b := summary.Lines[i], summary.Lines[j]
		if cmp := a.Progress.Cmp(b.Progress); cmp != 0 {
			return cmp > 0
		}
		return a.Material.Name < b.Material.Name
	})
	return summary, nil
}

func (s *service) History(ctx context.Context, projectID int64) ([]models.HistoryEntry, error) {
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, repository.AsServiceError(err, fmt.Sprintf("project %d not found", projectID))
	}
	entries, err := s.repo.ListEventsForProject(ctx, projectID)
	if err != nil {
		return nil, repository.AsServiceError(err, "list history")
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// ClearHistory drops every event of the project. Materials stay.
func (s *service) ClearHistory(ctx context.Context, projectID int64) (int64, error) {
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return 0, repository.AsServiceError(err, fmt.Sprintf("project %d not found", projectID))
	}
	removed, err := s.repo.DeleteEventsForProject(ctx, projectID)
	if err != nil {
		return 0, repository.AsServiceError(err, "clear history")
	}
	ctx = s.logg.WithFields(s.logg.WithProjectID(ctx, projectID), map[string]any{"removed": removed})
	s.logg.Warn(ctx, "ledger.history_cleared")
	return removed, nil
}
