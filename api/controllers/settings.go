package controllers

import (
	"net/http"

	"github.com/emlakhub/emlakhub-backend/api/middleware"
	"github.com/emlakhub/emlakhub-backend/api/responses"
	"github.com/emlakhub/emlakhub-backend/api/validators"
	"github.com/emlakhub/emlakhub-backend/internal/settings"
	"github.com/emlakhub/emlakhub-backend/pkg/i18n"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
)

type updateSettingsRequest struct {
	Values map[string]string `json:"values" validate:"required,min=1"`
}

type publicSettingsResponse struct {
	*settings.SiteSettings
	Direction string `json:"direction"`
}

// PublicSettings returns the site settings for the negotiated locale.
func PublicSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locale := i18n.LocaleFromContext(r.Context())
		site, err := svc.Get(r.Context(), locale)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, publicSettingsResponse{SiteSettings: site, Direction: i18n.Direction(site.Locale)})
	}
}

func AdminSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, err := svc.All(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"values": values})
	}
}

func AdminUpdateSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		values, err := svc.Update(r.Context(), middleware.ActorFromContext(r.Context()), req.Values)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"values": values})
	}
}
