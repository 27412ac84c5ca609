package controllers

import (
	"net/http"

	"github.com/angelmondragon/sitestock/api/responses"
	"github.com/angelmondragon/sitestock/api/validators"
	"github.com/angelmondragon/sitestock/internal/reconcile"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
	"github.com/angelmondragon/sitestock/pkg/logger"
)

type reconcileRequest struct {
	URL       string `json:"url" validate:"required"`
	Threshold *int   `json:"threshold" validate:"omitempty,min=0,max=100"`
}

type reconcileResponse struct {
	*reconcile.Report
	MatchedCount   int `json:"matched_count"`
	UnmatchedCount int `json:"unmatched_count"`
}

// ProjectReconcile compares the project plan with a remote stock sheet.
func ProjectReconcile(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconcile service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload reconcileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Run(r.Context(), reconcile.Request{
			ProjectID: id,
			Source:    validators.SanitizeString(payload.URL, 0),
			Threshold: payload.Threshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		matched := len(report.Matched())
		responses.WriteSuccess(w, reconcileResponse{
			Report:         report,
			MatchedCount:   matched,
			UnmatchedCount: len(report.Rows) - matched,
		})
	}
}
