package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/logger"
)

const (
	defaultOutboxRetention       = 30 * 24 * time.Hour
	defaultNotificationRetention = 90 * 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PurgeFunc deletes rows older than cutoff inside tx and returns the count.
type PurgeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// PurgeJob deletes rows that aged out of a retention window.
type PurgeJob struct {
	name      string
	db        txRunner
	purge     PurgeFunc
	retention time.Duration
	logg      *logger.Logger
	now       func() time.Time
}

func NewPurgeJob(name string, db txRunner, purge PurgeFunc, retention time.Duration, logg *logger.Logger) (*PurgeJob, error) {
	switch {
	case name == "":
		return nil, errors.New("purge job name required")
	case db == nil:
		return nil, errors.New("db runner required")
	case purge == nil:
		return nil, errors.New("purge func required")
	case retention <= 0:
		return nil, fmt.Errorf("%s: retention must be positive", name)
	case logg == nil:
		return nil, errors.New("logger required")
	}
	return &PurgeJob{name: name, db: db, purge: purge, retention: retention, logg: logg, now: time.Now}, nil
}

type publishedOutboxPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob purges published outbox rows. Pending and
// dead-lettered rows are kept.
func NewOutboxRetentionJob(db txRunner, repo publishedOutboxPurger, retention time.Duration, logg *logger.Logger) (*PurgeJob, error) {
	if repo == nil {
		return nil, errors.New("outbox repository required")
	}
	return NewPurgeJob("outbox-retention", db, repo.DeletePublishedBefore, orDefault(retention, defaultOutboxRetention), logg)
}

type readNotificationPurger interface {
	DeleteReadBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewNotificationCleanupJob purges notifications read before the window.
func NewNotificationCleanupJob(db txRunner, repo readNotificationPurger, retention time.Duration, logg *logger.Logger) (*PurgeJob, error) {
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	return NewPurgeJob("notification-cleanup", db, repo.DeleteReadBefore, orDefault(retention, defaultNotificationRetention), logg)
}

func (j *PurgeJob) Name() string { return j.name }

func (j *PurgeJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) (err error) {
		deleted, err = j.purge(ctx, tx, cutoff)
		return err
	})
	if err != nil {
		return fmt.Errorf("purge before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"job":          j.name,
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "purge complete")
	return nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
