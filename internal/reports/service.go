package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/internal/activity"
	"github.com/emlakhub/emlakhub-backend/internal/listings"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

const maxDetailsLength = 2000

// Service lets users flag listings and admins work the report queue.
type Service interface {
	Submit(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, input SubmitInput) (*ReportDTO, error)
	List(ctx context.Context, actor visibility.Actor, filter ListFilter, params pagination.Params) (*ListResult, error)
	Resolve(ctx context.Context, actor visibility.Actor, reportID uuid.UUID, input ResolveInput) (*ReportDTO, error)
}

type listingFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type listingHider interface {
	AdminSetHidden(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, hide bool) (*listings.ListingDTO, error)
}

// SubmitInput is a user's complaint about a listing.
type SubmitInput struct {
	Reason  enums.ReportReason
	Details *string
}

// ResolveInput closes a report. HideListing hides the reported listing before
// the report is closed.
type ResolveInput struct {
	Status      enums.ReportStatus
	Resolution  *string
	HideListing bool
}

// ReportDTO is the API representation of a report.
type ReportDTO struct {
	ID         uuid.UUID          `json:"id"`
	ListingID  uuid.UUID          `json:"listing_id"`
	ReporterID uuid.UUID          `json:"reporter_id"`
	Reason     enums.ReportReason `json:"reason"`
	Details    *string            `json:"details,omitempty"`
	Status     enums.ReportStatus `json:"status"`
	ResolvedBy *uuid.UUID         `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time         `json:"resolved_at,omitempty"`
	Resolution *string            `json:"resolution,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

func newReportDTO(report *models.Report) *ReportDTO {
	return &ReportDTO{
		ID:         report.ID,
		ListingID:  report.ListingID,
		ReporterID: report.ReporterID,
		Reason:     report.Reason,
		Details:    report.Details,
		Status:     report.Status,
		ResolvedBy: report.ResolvedBy,
		ResolvedAt: report.ResolvedAt,
		Resolution: report.Resolution,
		CreatedAt:  report.CreatedAt,
	}
}

type ListResult struct {
	Items      []ReportDTO `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type service struct {
	repo     *Repository
	listings listingFinder
	hider    listingHider
	activity activity.Emitter
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires report dependencies.
func NewService(repo *Repository, finder listingFinder, hider listingHider, emitter activity.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if finder == nil {
		return nil, fmt.Errorf("listing finder required")
	}
	if hider == nil {
		return nil, fmt.Errorf("listing hider required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("activity emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		listings: finder,
		hider:    hider,
		activity: emitter,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Submit files a report against a listing the caller can see. A reporter may
// hold only one open report per listing.
func (s *service) Submit(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, input SubmitInput) (*ReportDTO, error) {
	if !actor.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report reason")
	}
	details := trimOptional(input.Details)
	if details != nil && len(*details) > maxDetailsLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details cannot exceed %d characters", maxDetailsLength))
	}
	if input.Reason == enums.ReportReasonOther && details == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "details are required when the reason is other")
	}

	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load listing")
	}
	if err := visibility.EnsureListingVisible(listing, actor); err != nil {
		return nil, err
	}
	if actor.Owns(listing.OwnerID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owners cannot report their own listing")
	}

	open, err := s.repo.HasOpenReport(ctx, actor.ID, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check open reports")
	}
	if open {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an open report for this listing already exists")
	}

	report := &models.Report{
		ListingID:  listingID,
		ReporterID: actor.ID,
		Reason:     input.Reason,
		Details:    details,
		Status:     enums.ReportStatusOpen,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert report")
	}

	entry := activity.ListingEntry(actor, enums.ActivityReportSubmitted, listing, map[string]any{"reason": report.Reason})
	entry.SubjectID = &report.ID
	s.activity.Emit(ctx, entry)

	logCtx := s.logg.WithFields(s.logg.WithListingID(ctx, listingID.String()), map[string]any{
		"report_id": report.ID.String(),
		"reason":    report.Reason,
	})
	s.logg.Info(logCtx, "listing reported")
	return newReportDTO(report), nil
}

func (s *service) List(ctx context.Context, actor visibility.Actor, filter ListFilter, params pagination.Params) (*ListResult, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reports are restricted to administrators")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report status")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reports")
	}

	rows, next := pagination.Trim(rows, params.Limit, func(row models.Report) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	result := &ListResult{Items: make([]ReportDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Items = append(result.Items, *newReportDTO(&rows[i]))
	}
	return result, nil
}

// Resolve closes an open report as resolved or dismissed.
func (s *service) Resolve(ctx context.Context, actor visibility.Actor, reportID uuid.UUID, input ResolveInput) (*ReportDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators may resolve reports")
	}
	if !input.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be resolved or dismissed")
	}
	if input.HideListing && input.Status != enums.ReportStatusResolved {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a dismissed report cannot hide its listing")
	}

	report, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "report already closed")
	}

	if input.HideListing {
		if _, err := s.hider.AdminSetHidden(ctx, actor, report.ListingID, true); err != nil {
			return nil, err
		}
	}

	resolution := trimOptional(input.Resolution)
	rows, err := s.repo.Close(ctx, reportID, actor.ID, input.Status, resolution, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: close report")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "report already closed")
	}

	closed, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	listingID := closed.ListingID
	s.activity.Emit(ctx, activity.Entry{
		Actor:     actor,
		Kind:      enums.ActivityReportResolved,
		ListingID: &listingID,
		SubjectID: &closed.ID,
		Details: map[string]any{
			"status":         closed.Status,
			"listing_hidden": input.HideListing,
		},
	})
	s.logg.Info(s.logg.WithField(ctx, "report_id", reportID.String()), "report closed")
	return newReportDTO(closed), nil
}

func (s *service) load(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load report")
	}
	return report, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
