package activity

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Recorder writes the activity row and its activity_recorded outbox event in
// one transaction.
type Recorder struct {
	tx     txRunner
	repo   *Repository
	outbox outbox.Emitter
	logg   *logger.Logger
}

func NewRecorder(tx txRunner, repo *Repository, emitter outbox.Emitter, logg *logger.Logger) (*Recorder, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Recorder{tx: tx, repo: repo, outbox: emitter, logg: logg}, nil
}

// Record persists entry in its own transaction.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return r.RecordTx(ctx, tx, entry)
	})
}

// RecordTx persists entry inside the caller's transaction.
func (r *Recorder) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if !entry.Kind.IsValid() {
		return fmt.Errorf("invalid activity kind %q", entry.Kind)
	}
	row, err := entry.toModel()
	if err != nil {
		return fmt.Errorf("encode activity details: %w", err)
	}
	if err := r.repo.WithTx(tx).Create(ctx, row); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	aggregateType, aggregateID, ok := entry.aggregate()
	if !ok {
		return nil
	}
	var actor *outbox.ActorRef
	if entry.Actor.IsAuthenticated() {
		actor = &outbox.ActorRef{UserID: entry.Actor.ID, Role: string(entry.Actor.Role)}
	}
	data := recordedEvent(row)
	data.SubjectID = entry.SubjectID
	event := outbox.DomainEvent{
		EventType:     enums.EventActivityRecorded,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Actor:         actor,
		Data:          data,
	}
	if err := r.outbox.Emit(ctx, tx, event); err != nil {
		return fmt.Errorf("emit activity event: %w", err)
	}
	return nil
}
