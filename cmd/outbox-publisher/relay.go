package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/config"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/registry"
)

const backoffJitter = 250 * time.Millisecond

type txRunner interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxStore interface {
	Claim(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(tx *gorm.DB, id uuid.UUID) error
	RecordFailure(tx *gorm.DB, id uuid.UUID, err error) error
	DeadLetter(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, terminalAttempts int) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.Resolved, error)
}

type relayMetrics interface {
	IncPublished(eventType string)
	IncRetried(eventType string)
	IncDeadLettered(eventType, reason string)
}

// topicPublisher sends one message and waits for the server id.
type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) (string, error)
}

// RelayParams wires a Relay. Topics may return nil for an unknown topic.
type RelayParams struct {
	Config  config.OutboxConfig
	Logger  *logger.Logger
	DB      txRunner
	PubSub  func(context.Context) error
	Store   outboxStore
	Router  resolver
	Topics  func(topic string) topicPublisher
	Metrics relayMetrics
}

// Relay moves committed outbox rows to Pub/Sub. A batch is claimed and settled
// inside one transaction, so a crash leaves rows pending rather than lost.
type Relay struct {
	cfg     config.OutboxConfig
	logg    *logger.Logger
	db      txRunner
	ping    func(context.Context) error
	store   outboxStore
	router  resolver
	topics  func(string) topicPublisher
	metrics relayMetrics
	limiter *rate.Limiter
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.Store == nil:
		return nil, errors.New("outbox store is required")
	case p.Router == nil:
		return nil, errors.New("event router is required")
	case p.Topics == nil:
		return nil, errors.New("topic publishers are required")
	}

	cfg := p.Config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.PollInterval {
		cfg.MaxBackoff = cfg.PollInterval
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.PublishRate > 0 {
		limit = rate.Limit(cfg.PublishRate)
	}

	metrics := p.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	ping := p.PubSub
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}
	return &Relay{
		cfg:     cfg,
		logg:    p.Logger,
		db:      p.DB,
		ping:    ping,
		store:   p.Store,
		router:  p.Router,
		topics:  p.Topics,
		metrics: metrics,
		limiter: rate.NewLimiter(limit, max(1, cfg.BatchSize)),
	}, nil
}

// Run drains the outbox until ctx is canceled. It sleeps PollInterval when
// the outbox is empty and backs off up to MaxBackoff after a failed batch.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	if err := r.ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping: %w", err)
	}

	failures := r.backoff()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		claimed, err := r.drain(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox batch failed", err)
			next, stop := failures.Next()
			if stop {
				next = r.cfg.MaxBackoff
			}
			wait = next
		case claimed > 0:
			failures = r.backoff()
			continue
		default:
			failures = r.backoff()
			wait = r.cfg.PollInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Relay) backoff() retry.Backoff {
	b := retry.NewExponential(r.cfg.PollInterval)
	b = retry.WithCappedDuration(r.cfg.MaxBackoff, b)
	return retry.WithJitter(backoffJitter, b)
}

// drain claims one batch and settles every row in it.
func (r *Relay) drain(ctx context.Context) (int, error) {
	claimed := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.store.Claim(tx, r.cfg.BatchSize, r.cfg.MaxAttempts)
		if err != nil {
			return fmt.Errorf("claim outbox rows: %w", err)
		}
		claimed = len(rows)
		for _, row := range rows {
			if err := r.relay(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	return claimed, err
}

func (r *Relay) relay(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) error {
	topic, sendErr := r.send(ctx, row)
	if ctx.Err() != nil {
		// Shutting down: roll back instead of burning an attempt.
		return ctx.Err()
	}

	logCtx := r.logg.WithFields(ctx, logFields(row, topic))
	eventType := string(row.EventType)
	switch outcome, reason := settle(sendErr, row.AttemptCount, r.cfg.MaxAttempts); outcome {
	case outcomePublished:
		if err := r.store.MarkPublished(tx, row.ID); err != nil {
			return fmt.Errorf("mark %s published: %w", row.ID, err)
		}
		r.metrics.IncPublished(eventType)
		r.logg.Info(logCtx, "outbox event published")
	case outcomeRetry:
		r.logg.Warn(r.logg.WithField(logCtx, "error", sendErr.Error()), "outbox publish failed")
		if err := r.store.RecordFailure(tx, row.ID, sendErr); err != nil {
			return fmt.Errorf("record failure for %s: %w", row.ID, err)
		}
		r.metrics.IncRetried(eventType)
	case outcomeDeadLetter:
		r.logg.Warn(r.logg.WithFields(logCtx, map[string]any{
			"error":        sendErr.Error(),
			"error_reason": reason,
		}), "outbox event dead-lettered")
		if err := r.store.DeadLetter(tx, row, reason, sendErr, r.cfg.MaxAttempts); err != nil {
			return fmt.Errorf("dead-letter %s: %w", row.ID, err)
		}
		r.metrics.IncDeadLettered(eventType, string(reason))
	}
	return nil
}

// send resolves row and publishes it, returning the topic it was routed to.
func (r *Relay) send(ctx context.Context, row models.OutboxEvent) (string, error) {
	resolved, err := r.router.Resolve(row)
	if err != nil {
		return "", err
	}
	topic := resolved.Route.Topic
	publisher := r.topics(topic)
	if publisher == nil {
		return topic, registry.Permanent(fmt.Errorf("no publisher for topic %s", topic))
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return topic, err
	}

	publishCtx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
	defer cancel()
	_, err = publisher.Publish(publishCtx, &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"schema_version": fmt.Sprint(resolved.Envelope.Version),
			"created_at":     row.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	})
	return topic, err
}

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

// settle decides what one publish attempt means for a row that had already
// failed attempts times.
func settle(err error, attempts, maxAttempts int) (outcome, enums.OutboxDLQErrorReason) {
	switch {
	case err == nil:
		return outcomePublished, ""
	case registry.IsPermanent(err):
		return outcomeDeadLetter, enums.OutboxDLQReasonNonRetryable
	case attempts+1 >= maxAttempts:
		return outcomeDeadLetter, enums.OutboxDLQReasonMaxAttempts
	default:
		return outcomeRetry, ""
	}
}

func logFields(row models.OutboxEvent, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      row.ID.String(),
		"event_type":     row.EventType,
		"aggregate_type": row.AggregateType,
		"aggregate_id":   row.AggregateID.String(),
		"attempt_count":  row.AttemptCount,
	}
	if topic != "" {
		fields["topic"] = topic
	}
	return fields
}

type noopMetrics struct{}

func (noopMetrics) IncPublished(string)            {}
func (noopMetrics) IncRetried(string)              {}
func (noopMetrics) IncDeadLettered(string, string) {}
