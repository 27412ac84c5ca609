package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sitestock/api/middleware"
	"github.com/angelmondragon/sitestock/api/responses"
	"github.com/angelmondragon/sitestock/api/validators"
	"github.com/angelmondragon/sitestock/internal/ledger"
	"github.com/angelmondragon/sitestock/pkg/enums"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
	"github.com/angelmondragon/sitestock/pkg/logger"
)

const maxFreeTextLen = 500

type receiptRequest struct {
	MaterialID int64           `json:"material_id" validate:"required,gt=0"`
	Qty        decimal.Decimal `json:"qty"`
	Actor      string          `json:"actor"`
	Timestamp  *time.Time      `json:"timestamp"`
	Store      string          `json:"store"`
	DocNumber  string          `json:"doc_number"`
	Note       string          `json:"note"`
}

func (p receiptRequest) toInput(headerActor string) ledger.ReceiptInput {
	actor := validators.SanitizeString(p.Actor, maxFreeTextLen)
	if actor == "" {
		actor = headerActor
	}
	input := ledger.ReceiptInput{
		MaterialID: p.MaterialID,
		Qty:        p.Qty,
		Actor:      actor,
		Store:      validators.SanitizeString(p.Store, maxFreeTextLen),
		DocNumber:  validators.SanitizeString(p.DocNumber, maxFreeTextLen),
		Note:       validators.SanitizeString(p.Note, maxFreeTextLen),
	}
	if p.Timestamp != nil {
		input.Timestamp = *p.Timestamp
	}
	return input
}

type cancelRequest struct {
	Actor string `json:"actor"`
}

// ReceiptCreate appends a delivery to the ledger.
func ReceiptCreate(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		var payload receiptRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := svc.RecordReceipt(r.Context(), payload.toInput(middleware.ActorFromContext(r.Context())))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

// EventCancel appends a compensating entry. A missing event answers
// {"cancelled": false} rather than 404.
func EventCancel(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		eventID, err := validators.ParsePathID(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cancelRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := validators.SanitizeString(payload.Actor, maxFreeTextLen)
		if actor == "" {
			actor = middleware.ActorFromContext(r.Context())
		}
		cancelled, err := svc.CancelEvent(r.Context(), eventID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"event_id": eventID, "cancelled": cancelled})
	}
}

// MaterialsList returns the derived per-material lines of a project.
func MaterialsList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := svc.Aggregate(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

// ProjectSummary returns overall progress with lines ranked by progress.
func ProjectSummary(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// HistoryList returns the project's events newest first.
func HistoryList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.History(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// HistoryExport downloads the history as xlsx (default) or csv.
func HistoryExport(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		format, err := enums.ParseExportFormat(r.URL.Query().Get("format"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "format must be xlsx or csv"))
			return
		}
		entries, err := svc.History(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var buf bytes.Buffer
		if err := ledger.WriteHistory(&buf, format, entries); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export history"))
			return
		}
		responses.WriteFile(w, format.ContentType(), fmt.Sprintf("history_%d.%s", id, format), buf.Bytes())
	}
}

// HistoryClear deletes every event of the project and keeps its plan.
func HistoryClear(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deleted, err := svc.ClearHistory(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"deleted": deleted})
	}
}
