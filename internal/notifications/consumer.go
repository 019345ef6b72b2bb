package notifications

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/idempotency"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/payloads"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/registry"
)

// ConsumerName scopes this consumer's idempotency keys.
const ConsumerName = "notifications-worker"

var errMissingRecipient = errors.New("notification recipient missing")

type notificationWriter interface {
	Create(ctx context.Context, notifications ...*models.Notification) error
}

// adminDirectory lists the users that receive admin-facing notifications.
type adminDirectory interface {
	AdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Consumer watches domain events and fans them out as in-app notifications.
// Owners hear about moderation of their listings; admins hear about new
// reports and contact messages.
type Consumer struct {
	repo         notificationWriter
	admins       adminDirectory
	subscription *pubsub.Subscriber
	guard        *idempotency.Guard
	decoders     *registry.Decoders
	logg         *logger.Logger
}

// NewConsumer builds the notifications consumer.
func NewConsumer(repo notificationWriter, admins adminDirectory, subscription *pubsub.Subscriber, guard *idempotency.Guard, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin directory required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		admins:       admins,
		subscription: subscription,
		guard:        guard,
		decoders:     registry.Domain(),
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != enums.EventActivityRecorded && eventType != enums.EventContactMessageReceived {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	envelope, err := outbox.Open(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID, _ := envelope.ID()

	payload, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}

	first, err := c.guard.Claim(ctx, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !first {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(logCtx, payload); err != nil {
		if errors.Is(err, errMissingRecipient) {
			c.logg.Warn(logCtx, "event has no recipient")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.guard.Release(ctx, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, payload any) error {
	switch event := payload.(type) {
	case payloads.ActivityRecordedEvent:
		return c.handleActivity(ctx, event)
	case payloads.ContactMessageReceivedEvent:
		return c.handleContact(ctx, event)
	default:
		return fmt.Errorf("unexpected payload %T", payload)
	}
}

func (c *Consumer) handleActivity(ctx context.Context, event payloads.ActivityRecordedEvent) error {
	switch event.Kind {
	case enums.ActivityPropertyHidden, enums.ActivityPropertyShown:
		return c.notifyOwner(ctx, event)
	case enums.ActivityReportSubmitted:
		return c.notifyAdminsOfReport(ctx, event)
	default:
		return nil
	}
}

func (c *Consumer) notifyOwner(ctx context.Context, event payloads.ActivityRecordedEvent) error {
	if event.OwnerID == nil || event.ListingID == nil {
		return errMissingRecipient
	}
	// Owners acting on their own listings do not need to be told about it.
	if event.ActorID != nil && *event.ActorID == *event.OwnerID {
		return nil
	}

	title := "Listing hidden by an administrator"
	message := "Your listing is hidden from public view and is waiting for review. You can still see it from your dashboard."
	if event.Kind == enums.ActivityPropertyShown {
		title = "Listing visible again"
		message = "An administrator restored your listing. You can now update its status."
	}
	notification := &models.Notification{
		UserID:  *event.OwnerID,
		Type:    enums.NotificationTypeModeration,
		Title:   title,
		Message: message,
		Link:    stringPtr(fmt.Sprintf("/listings/%s", *event.ListingID)),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(c.logg.WithListingID(ctx, event.ListingID.String()), "owner notified of moderation")
	return nil
}

func (c *Consumer) notifyAdminsOfReport(ctx context.Context, event payloads.ActivityRecordedEvent) error {
	link := "/admin/reports"
	if event.SubjectID != nil {
		link = fmt.Sprintf("/admin/reports/%s", *event.SubjectID)
	}
	message := "A listing was reported and needs review."
	if event.ListingID != nil {
		message = fmt.Sprintf("Listing %s was reported and needs review.", *event.ListingID)
	}
	return c.notifyAdmins(ctx, enums.NotificationTypeReport, "New listing report", message, link)
}

func (c *Consumer) handleContact(ctx context.Context, event payloads.ContactMessageReceivedEvent) error {
	message := fmt.Sprintf("%s <%s>: %s", event.Name, event.Email, event.Subject)
	link := fmt.Sprintf("/admin/contact/%s", event.MessageID)
	return c.notifyAdmins(ctx, enums.NotificationTypeContact, "New contact message", message, link)
}

func (c *Consumer) notifyAdmins(ctx context.Context, kind enums.NotificationType, title, message, link string) error {
	admins, err := c.admins.AdminIDs(ctx)
	if err != nil {
		return fmt.Errorf("load admins: %w", err)
	}
	if len(admins) == 0 {
		return errMissingRecipient
	}
	rows := make([]*models.Notification, 0, len(admins))
	for _, adminID := range admins {
		rows = append(rows, &models.Notification{
			UserID:  adminID,
			Type:    kind,
			Title:   title,
			Message: message,
			Link:    stringPtr(link),
		})
	}
	if err := c.repo.Create(ctx, rows...); err != nil {
		return err
	}
	c.logg.Info(c.logg.WithField(ctx, "recipients", len(rows)), "admins notified")
	return nil
}

func stringPtr(value string) *string {
	return &value
}
