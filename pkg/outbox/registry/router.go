// Package registry knows every outbox event type: the aggregates allowed to
// carry it, its Pub/Sub topic and how its data decodes.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/emlakhub/emlakhub-backend/pkg/config"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox"
)

// ErrPermanent marks failures that no retry can fix.
var ErrPermanent = errors.New("permanent outbox failure")

// Permanent wraps err so the relay dead-letters the row.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

type Route struct {
	EventType  enums.OutboxEventType
	Aggregates []enums.OutboxAggregateType
	Topic      string
}

// Resolved is a validated outbox row.
type Resolved struct {
	Route    Route
	Envelope outbox.PayloadEnvelope
	Payload  any
}

type Router struct {
	routes   map[enums.OutboxEventType]Route
	decoders *Decoders
}

// NewRouter publishes every domain event on the configured domain topic.
func NewRouter(cfg config.PubSubConfig) (*Router, error) {
	topic := strings.TrimSpace(cfg.DomainTopic)
	if topic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}
	r := &Router{routes: map[enums.OutboxEventType]Route{}, decoders: Domain()}
	r.add(Route{
		EventType: enums.EventActivityRecorded,
		Aggregates: []enums.OutboxAggregateType{
			enums.AggregateListing,
			enums.AggregateReport,
			enums.AggregateUser,
			enums.AggregateSiteSetting,
		},
		Topic: topic,
	})
	r.add(Route{
		EventType:  enums.EventContactMessageReceived,
		Aggregates: []enums.OutboxAggregateType{enums.AggregateContactMessage},
		Topic:      topic,
	})
	return r, nil
}

func (r *Router) add(route Route) {
	r.routes[route.EventType] = route
}

// Resolve validates event against its route and decodes its payload. Every
// error it returns is permanent.
func (r *Router) Resolve(event models.OutboxEvent) (*Resolved, error) {
	route, ok := r.routes[event.EventType]
	switch {
	case !ok:
		return nil, Permanent(fmt.Errorf("unsupported event type %s", event.EventType))
	case !slices.Contains(route.Aggregates, event.AggregateType):
		return nil, Permanent(fmt.Errorf("%s cannot be carried by aggregate %s", event.EventType, event.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, Permanent(errors.New("missing aggregate id"))
	}

	envelope, err := outbox.Open(event.Payload)
	if err != nil {
		return nil, Permanent(err)
	}
	payload, err := r.decoders.Decode(event.EventType, envelope.Version, envelope.Data)
	if err != nil {
		return nil, Permanent(err)
	}
	return &Resolved{Route: route, Envelope: envelope, Payload: payload}, nil
}
