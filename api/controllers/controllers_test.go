package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/sitestock/internal/ledger"
	"github.com/angelmondragon/sitestock/internal/plans"
	"github.com/angelmondragon/sitestock/internal/reconcile"
	"github.com/angelmondragon/sitestock/pkg/db/models"
	"github.com/angelmondragon/sitestock/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.RouteContext(req.Context())
	if routeCtx == nil {
		routeCtx = chi.NewRouteContext()
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}
	routeCtx.URLParams.Add(key, value)
	return req
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v (%s)", err, resp.Body.String())
	}
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal error response: %v (%s)", err, resp.Body.String())
	}
	return envelope.Error.Code
}

type testProjectsService struct {
	listFn   func(ctx context.Context) ([]models.Project, error)
	getFn    func(ctx context.Context, id int64) (*models.Project, error)
	createFn func(ctx context.Context, name string) (*models.Project, error)
	renameFn func(ctx context.Context, id int64, name string) (*models.Project, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *testProjectsService) List(ctx context.Context) ([]models.Project, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *testProjectsService) Get(ctx context.Context, id int64) (*models.Project, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &models.Project{ID: id}, nil
}

func (s *testProjectsService) Create(ctx context.Context, name string) (*models.Project, error) {
	if s.createFn != nil {
		return s.createFn(ctx, name)
	}
	return &models.Project{ID: 1, Name: name}, nil
}

func (s *testProjectsService) Rename(ctx context.Context, id int64, name string) (*models.Project, error) {
	if s.renameFn != nil {
		return s.renameFn(ctx, id, name)
	}
	return &models.Project{ID: id, Name: name}, nil
}

func (s *testProjectsService) Delete(ctx context.Context, id int64) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type testLedgerService struct {
	recordFn    func(ctx context.Context, input ledger.ReceiptInput) (int64, error)
	cancelFn    func(ctx context.Context, eventID int64, actor string) (bool, error)
	aggregateFn func(ctx context.Context, projectID int64) ([]ledger.Line, error)
	summaryFn   func(ctx context.Context, projectID int64) (*ledger.Summary, error)
	historyFn   func(ctx context.Context, projectID int64) ([]models.HistoryEntry, error)
	clearFn     func(ctx context.Context, projectID int64) (int64, error)
}

func (s *testLedgerService) RecordReceipt(ctx context.Context, input ledger.ReceiptInput) (int64, error) {
	if s.recordFn != nil {
		return s.recordFn(ctx, input)
	}
	return 1, nil
}

func (s *testLedgerService) CancelEvent(ctx context.Context, eventID int64, actor string) (bool, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, eventID, actor)
	}
	return true, nil
}

func (s *testLedgerService) Aggregate(ctx context.Context, projectID int64) ([]ledger.Line, error) {
	if s.aggregateFn != nil {
		return s.aggregateFn(ctx, projectID)
	}
	return nil, nil
}

func (s *testLedgerService) Summary(ctx context.Context, projectID int64) (*ledger.Summary, error) {
	if s.summaryFn != nil {
		return s.summaryFn(ctx, projectID)
	}
	return &ledger.Summary{ProjectID: projectID}, nil
}

func (s *testLedgerService) History(ctx context.Context, projectID int64) ([]models.HistoryEntry, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, projectID)
	}
	return nil, nil
}

func (s *testLedgerService) ClearHistory(ctx context.Context, projectID int64) (int64, error) {
	if s.clearFn != nil {
		return s.clearFn(ctx, projectID)
	}
	return 0, nil
}

type testPlanLoader struct {
	loadFn func(ctx context.Context, projectID int64, rows []plans.Row) (*plans.Result, error)
}

func (l *testPlanLoader) LoadPlan(ctx context.Context, projectID int64, rows []plans.Row) (*plans.Result, error) {
	if l.loadFn != nil {
		return l.loadFn(ctx, projectID, rows)
	}
	return &plans.Result{Inserted: len(rows)}, nil
}

type testReconcileService struct {
	runFn func(ctx context.Context, req reconcile.Request) (*reconcile.Report, error)
}

func (s *testReconcileService) ReconcileProject(ctx context.Context, projectID int64, url string) (*reconcile.Report, error) {
	return s.Run(ctx, reconcile.Request{ProjectID: projectID, Source: url})
}

func (s *testReconcileService) Run(ctx context.Context, req reconcile.Request) (*reconcile.Report, error) {
	if s.runFn != nil {
		return s.runFn(ctx, req)
	}
	return &reconcile.Report{ProjectID: req.ProjectID, Source: req.Source}, nil
}
