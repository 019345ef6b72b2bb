package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/emlakhub/emlakhub-backend/api/responses"
	"github.com/emlakhub/emlakhub-backend/api/validators"
	"github.com/emlakhub/emlakhub-backend/internal/contact"
	"github.com/emlakhub/emlakhub-backend/pkg/i18n"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
)

type contactRequest struct {
	Name      string     `json:"name" validate:"required,max=120"`
	Email     string     `json:"email" validate:"required,email,max=254"`
	Phone     *string    `json:"phone" validate:"omitempty,max=32"`
	Subject   string     `json:"subject" validate:"required,max=200"`
	Message   string     `json:"message" validate:"required,max=5000"`
	ListingID *uuid.UUID `json:"listing_id"`
}

// SubmitContact accepts the public contact form. The message is stored in
// the negotiated locale so staff can answer in the visitor's language.
func SubmitContact(svc contact.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contactRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Submit(r.Context(), contact.SubmitInput{
			Name:      validators.SanitizeString(req.Name, 120),
			Email:     req.Email,
			Phone:     req.Phone,
			Subject:   validators.SanitizeString(req.Subject, 200),
			Message:   req.Message,
			ListingID: req.ListingID,
			Locale:    i18n.LocaleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}
