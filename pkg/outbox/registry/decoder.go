package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/payloads"
)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// Decoders turns envelope data into typed payloads, keyed by event type and
// schema version.
type Decoders struct {
	mu    sync.RWMutex
	funcs map[decoderKey]func(json.RawMessage) (any, error)
}

func NewDecoders() *Decoders {
	return &Decoders{funcs: map[decoderKey]func(json.RawMessage) (any, error){}}
}

// Register decodes eventType@version into a T value.
func Register[T any](d *Decoders, eventType enums.OutboxEventType, version int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.funcs[decoderKey{eventType, version}] = func(raw json.RawMessage) (any, error) {
		var payload T
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}

func (d *Decoders) Decode(eventType enums.OutboxEventType, version int, raw json.RawMessage) (any, error) {
	d.mu.RLock()
	decode, ok := d.funcs[decoderKey{eventType, version}]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no decoder for %s@v%d", eventType, version)
	}
	payload, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s@v%d: %w", eventType, version, err)
	}
	return payload, nil
}

// Domain knows every payload in the payloads package.
func Domain() *Decoders {
	d := NewDecoders()
	Register[payloads.ActivityRecordedEvent](d, enums.EventActivityRecorded, 1)
	Register[payloads.ContactMessageReceivedEvent](d, enums.EventContactMessageReceived, 1)
	return d
}
