package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/sitestock/internal/reconcile"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
)

func TestProjectReconcile(t *testing.T) {
	var got reconcile.Request
	svc := &testReconcileService{
		runFn: func(ctx context.Context, req reconcile.Request) (*reconcile.Report, error) {
			got = req
			return &reconcile.Report{
				ProjectID: req.ProjectID,
				Source:    req.Source,
				Threshold: *req.Threshold,
				Rows: []reconcile.ReportRow{
					{PlanName: "Цемент", Matched: true, MatchScore: 95},
					{PlanName: "Гвозди"},
				},
			}, nil
		},
	}
	body := `{"url":"https://example.com/stock.xlsx","threshold":70}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/5/reconcile", strings.NewReader(body))
	req = addRouteParam(req, "projectId", "5")
	resp := httptest.NewRecorder()
	ProjectReconcile(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d (%s)", resp.Code, resp.Body.String())
	}
	if got.ProjectID != 5 || got.Source != "https://example.com/stock.xlsx" || got.Threshold == nil || *got.Threshold != 70 {
		t.Fatalf("unexpected request %+v", got)
	}
	var data struct {
		MatchedCount   int                   `json:"matched_count"`
		UnmatchedCount int                   `json:"unmatched_count"`
		Rows           []reconcile.ReportRow `json:"rows"`
	}
	decodeData(t, resp, &data)
	if data.MatchedCount != 1 || data.UnmatchedCount != 1 || len(data.Rows) != 2 {
		t.Fatalf("unexpected report %+v", data)
	}
}

func TestProjectReconcileValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{}`},
		{"threshold above range", `{"url":"https://example.com/a.xlsx","threshold":101}`},
		{"threshold below range", `{"url":"https://example.com/a.xlsx","threshold":-1}`},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/5/reconcile", strings.NewReader(tt.body))
		req = addRouteParam(req, "projectId", "5")
		resp := httptest.NewRecorder()
		ProjectReconcile(&testReconcileService{}, testLogger())(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", tt.name, resp.Code)
		}
	}
}

func TestProjectReconcileStockFormat(t *testing.T) {
	svc := &testReconcileService{
		runFn: func(ctx context.Context, req reconcile.Request) (*reconcile.Report, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStockFormat, "stock sheet has too few columns").
				WithDetails(map[string]any{"min_columns": 17, "found_columns": 4})
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/5/reconcile", strings.NewReader(`{"url":"https://example.com/a.xlsx"}`))
	req = addRouteParam(req, "projectId", "5")
	resp := httptest.NewRecorder()
	ProjectReconcile(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"found_columns":4`) {
		t.Fatalf("expected details in body, got %s", resp.Body.String())
	}
}
