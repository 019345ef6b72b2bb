package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/payloads"
)

// Service accepts public contact form submissions.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*MessageDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type listingFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

// SubmitInput is the contact form payload. ListingID links the message to
// the listing the visitor asked about.
type SubmitInput struct {
	Name      string       `validate:"required,max=120"`
	Email     string       `validate:"required,email,max=254"`
	Phone     *string      `validate:"omitempty,max=32"`
	Subject   string       `validate:"required,max=200"`
	Message   string       `validate:"required,max=5000"`
	ListingID *uuid.UUID
	Locale    enums.Locale
}

// MessageDTO is returned to the submitter.
type MessageDTO struct {
	ID        uuid.UUID    `json:"id"`
	Subject   string       `json:"subject"`
	ListingID *uuid.UUID   `json:"listing_id,omitempty"`
	Locale    enums.Locale `json:"locale"`
	CreatedAt time.Time    `json:"created_at"`
}

type service struct {
	tx       txRunner
	listings listingFinder
	outbox   outbox.Emitter
	logg     *logger.Logger
	validate *validator.Validate
}

// NewService wires contact dependencies.
func NewService(tx txRunner, finder listingFinder, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if finder == nil {
		return nil, fmt.Errorf("listing finder required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		listings: finder,
		outbox:   emitter,
		logg:     logg,
		validate: validator.New(),
	}, nil
}

// Submit stores the message and queues contact_message_received in the same
// transaction; delivery to staff happens downstream.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*MessageDTO, error) {
	input = normalize(input)
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contact message")
	}
	if !input.Locale.IsValid() {
		input.Locale = enums.DefaultLocale
	}
	if input.ListingID != nil {
		if err := s.ensurePublicListing(ctx, *input.ListingID); err != nil {
			return nil, err
		}
	}

	message := &models.ContactMessage{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Subject:   input.Subject,
		Message:   input.Message,
		ListingID: input.ListingID,
		Locale:    input.Locale,
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(message).Error; err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventContactMessageReceived,
			AggregateType: enums.AggregateContactMessage,
			AggregateID:   message.ID,
			Data: payloads.ContactMessageReceivedEvent{
				MessageID: message.ID,
				Name:      message.Name,
				Email:     message.Email,
				Subject:   message.Subject,
				ListingID: message.ListingID,
				Locale:    message.Locale,
			},
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store contact message")
	}

	s.logg.Info(s.logg.WithField(ctx, "contact_message_id", message.ID.String()), "contact message received")
	return &MessageDTO{
		ID:        message.ID,
		Subject:   message.Subject,
		ListingID: message.ListingID,
		Locale:    message.Locale,
		CreatedAt: message.CreatedAt,
	}, nil
}

func (s *service) ensurePublicListing(ctx context.Context, listingID uuid.UUID) error {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load listing")
	}
	if !listing.PubliclyVisible() {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return nil
}

func normalize(input SubmitInput) SubmitInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			input.Phone = nil
		} else {
			input.Phone = &phone
		}
	}
	return input
}
