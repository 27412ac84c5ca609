package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/sitestock/api/responses"
	"github.com/angelmondragon/sitestock/api/validators"
	"github.com/angelmondragon/sitestock/internal/plans"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
	"github.com/angelmondragon/sitestock/pkg/logger"
)

const planFileField = "file"

// PlanLoader replaces a project plan from parsed rows.
type PlanLoader interface {
	LoadPlan(ctx context.Context, projectID int64, rows []plans.Row) (*plans.Result, error)
}

// PlanUpload accepts a multipart xlsx or csv file in the "file" field and
// replaces the project's plan. header_rows overrides the configured count.
func PlanUpload(loader PlanLoader, headerRows int, maxUploadMB int64, logg *logger.Logger) http.HandlerFunc {
	maxBytes := maxUploadMB << 20
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if loader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan loader unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skip, err := validators.ParseQueryInt(r, "header_rows", headerRows, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "plan file exceeds %d MB", maxBytes>>20))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart form with a plan file is required"))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile(planFileField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "plan file is required").
				WithDetails(map[string]any{"field": planFileField}))
			return
		}
		defer file.Close()

		ctx := logg.WithFields(r.Context(), map[string]any{"project_id": id, "file_name": header.Filename, "file_size": header.Size})
		rows, err := plans.Read(file, skip)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "plan file must be an xlsx workbook or csv text"))
			return
		}

		result, err := loader.LoadPlan(ctx, id, rows)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
