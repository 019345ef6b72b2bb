package enums

import "testing"

func TestParseOutboxEnums(t *testing.T) {
	if got, err := ParseOutboxEventType("contact_message_received"); err != nil || got != EventContactMessageReceived {
		t.Fatalf("expected contact_message_received, got %q err=%v", got, err)
	}
	if got, err := ParseOutboxAggregateType("site_setting"); err != nil || got != AggregateSiteSetting {
		t.Fatalf("expected site_setting, got %q err=%v", got, err)
	}
	if got, err := ParseOutboxDLQErrorReason("max_attempts"); err != nil || got != OutboxDLQReasonMaxAttempts {
		t.Fatalf("expected max_attempts, got %q err=%v", got, err)
	}
	for _, raw := range []string{"", "listing_hidden", "MAX_ATTEMPTS"} {
		if _, err := ParseOutboxDLQErrorReason(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
		if _, err := ParseOutboxEventType(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
