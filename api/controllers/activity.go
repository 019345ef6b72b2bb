package controllers

import (
	"net/http"
	"strings"

	"github.com/emlakhub/emlakhub-backend/api/middleware"
	"github.com/emlakhub/emlakhub-backend/api/responses"
	"github.com/emlakhub/emlakhub-backend/api/validators"
	"github.com/emlakhub/emlakhub-backend/internal/activity"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
)

// AdminActivity serves the moderation activity feed, newest first.
func AdminActivity(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter activity.ListFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParseActivityKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
				return
			}
			filter.Kind = &kind
		}
		if filter.ListingID, err = validators.ParseOptionalUUID(r, "listing_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.ActorID, err = validators.ParseOptionalUUID(r, "actor_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Since, err = validators.ParseOptionalTime(r, "since"); err != nil {
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
