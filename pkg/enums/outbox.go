package enums

import (
	"fmt"
	"slices"
)

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateListing        OutboxAggregateType = "listing"
	AggregateReport         OutboxAggregateType = "report"
	AggregateContactMessage OutboxAggregateType = "contact_message"
	AggregateUser           OutboxAggregateType = "user"
	AggregateSiteSetting    OutboxAggregateType = "site_setting"
)

var aggregateTypes = []OutboxAggregateType{AggregateListing, AggregateReport, AggregateContactMessage, AggregateUser, AggregateSiteSetting}

func (a OutboxAggregateType) IsValid() bool { return slices.Contains(aggregateTypes, a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parseOutbox(aggregateTypes, value, "aggregate type")
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventActivityRecorded       OutboxEventType = "activity_recorded"
	EventContactMessageReceived OutboxEventType = "contact_message_received"
)

var eventTypes = []OutboxEventType{EventActivityRecorded, EventContactMessageReceived}

func (e OutboxEventType) IsValid() bool { return slices.Contains(eventTypes, e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parseOutbox(eventTypes, value, "event type")
}

// OutboxDLQErrorReason records why the relay stopped retrying a row.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts: transient failures used up every attempt.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable: the row can never be published as stored.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var dlqErrorReasons = []OutboxDLQErrorReason{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable}

func (r OutboxDLQErrorReason) IsValid() bool { return slices.Contains(dlqErrorReasons, r) }

func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	return parseOutbox(dlqErrorReasons, value, "dead-letter reason")
}

func parseOutbox[T ~string](valid []T, value, what string) (T, error) {
	if v := T(value); slices.Contains(valid, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", what, value)
}
