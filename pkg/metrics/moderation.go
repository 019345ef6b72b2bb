package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Transition outcomes recorded by ModerationMetrics.
const (
	OutcomeApplied   = "applied"
	OutcomeAdminLock = "admin_lock"
	OutcomeForbidden = "forbidden"
	OutcomeNotFound  = "not_found"
	OutcomeInvalid   = "invalid"
	OutcomeConflict  = "conflict"
	OutcomeUnchanged = "unchanged"
	OutcomeError     = "error"
)

// ModerationMetrics counts listing state transitions and activity delivery.
type ModerationMetrics struct {
	transitions     *prometheus.CounterVec
	activityDropped prometheus.Counter
	activityFailed  prometheus.Counter
}

// NewModerationMetrics registers the moderation metrics on reg. A nil
// registerer yields a no-op collector.
func NewModerationMetrics(reg prometheus.Registerer) *ModerationMetrics {
	if reg == nil {
		return &ModerationMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_transitions_total",
		Help: "Listing visibility transitions by action and outcome.",
	}, []string{"action", "outcome"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "activity_entries_dropped_total",
		Help: "Activity entries discarded because the queue was full.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "activity_entries_failed_total",
		Help: "Activity entries that could not be persisted.",
	})
	reg.MustRegister(transitions, dropped, failed)
	return &ModerationMetrics{
		transitions:     transitions,
		activityDropped: dropped,
		activityFailed:  failed,
	}
}

// ObserveTransition counts one transition attempt.
func (m *ModerationMetrics) ObserveTransition(action, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

func (m *ModerationMetrics) IncActivityDropped() {
	if m == nil || m.activityDropped == nil {
		return
	}
	m.activityDropped.Inc()
}

func (m *ModerationMetrics) IncActivityFailed() {
	if m == nil || m.activityFailed == nil {
		return
	}
	m.activityFailed.Inc()
}
