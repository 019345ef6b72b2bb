package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/emlakhub/emlakhub-backend/internal/cron"
	"github.com/emlakhub/emlakhub-backend/internal/notifications"
	"github.com/emlakhub/emlakhub-backend/pkg/bootstrap"
	"github.com/emlakhub/emlakhub-backend/pkg/metrics"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox"
)

func main() {
	bootstrap.Main("cron-worker", run)
}

func run(ctx context.Context, app *bootstrap.App) error {
	cfg := app.Config.Retention

	dbClient, err := app.OpenDB(ctx)
	if err != nil {
		return err
	}
	redisClient, err := app.OpenRedis(ctx)
	if err != nil {
		return err
	}

	lock, err := cron.NewRedisLock(redisClient, lockName(app.Config.App.Env), cfg.LockTTL)
	if err != nil {
		return err
	}
	outboxJob, err := cron.NewOutboxRetentionJob(dbClient, outbox.NewRepository(dbClient.DB()), cfg.OutboxPublished, app.Logger)
	if err != nil {
		return err
	}
	notificationJob, err := cron.NewNotificationCleanupJob(dbClient, notifications.NewRepository(dbClient.DB()), cfg.NotificationsRead, app.Logger)
	if err != nil {
		return err
	}
	registry, err := cron.NewRegistry(outboxJob, notificationJob)
	if err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     app.Logger,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Interval,
		JobTimeout: cfg.JobTimeout,
	})
	if err != nil {
		return err
	}
	return service.Run(ctx)
}

// lockName scopes the lease to one environment.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
