package controllers

import (
	"net/http"
	"strings"

	"github.com/emlakhub/emlakhub-backend/api/middleware"
	"github.com/emlakhub/emlakhub-backend/api/responses"
	"github.com/emlakhub/emlakhub-backend/api/validators"
	"github.com/emlakhub/emlakhub-backend/internal/reports"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
)

type submitReportRequest struct {
	Reason  enums.ReportReason `json:"reason" validate:"required"`
	Details *string            `json:"details" validate:"omitempty,max=2000"`
}

type resolveReportRequest struct {
	Status      enums.ReportStatus `json:"status" validate:"required,oneof=resolved dismissed"`
	Resolution  *string            `json:"resolution" validate:"omitempty,max=2000"`
	HideListing bool               `json:"hide_listing"`
}

// SubmitReport flags a listing for moderator review.
func SubmitReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req submitReportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Submit(r.Context(), middleware.ActorFromContext(r.Context()), listingID, reports.SubmitInput{
			Reason:  req.Reason,
			Details: req.Details,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// AdminListReports pages through the report queue, optionally by status or listing.
func AdminListReports(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var filter reports.ListFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseReportStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filter.Status = &status
		}
		if filter.ListingID, err = validators.ParseOptionalUUID(r, "listing_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), middleware.ActorFromContext(r.Context()), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminResolveReport closes a report, hiding the listing when asked.
func AdminResolveReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reportID, err := validators.ParseUUIDParam(r, "reportId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req resolveReportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Resolve(r.Context(), middleware.ActorFromContext(r.Context()), reportID, reports.ResolveInput{
			Status:      req.Status,
			Resolution:  req.Resolution,
			HideListing: req.HideListing,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
