package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.IncPublished("activity_recorded")
	m.IncPublished("activity_recorded")
	m.IncRetried("contact_message_received")
	m.IncDeadLettered("activity_recorded", "max_attempts")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_published_total", "event_type", "activity_recorded"); err != nil || got != 2 {
		t.Fatalf("expected published=2, got %v (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_retried_total", "event_type", "contact_message_received"); err != nil || got != 1 {
		t.Fatalf("expected retried=1, got %v (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_dead_lettered_total", "reason", "max_attempts"); err != nil || got != 1 {
		t.Fatalf("expected dead lettered=1, got %v (%v)", got, err)
	}

	var nilMetrics *OutboxMetrics
	nilMetrics.IncPublished("x")
	NewOutboxMetrics(nil).IncDeadLettered("x", "y")
}
