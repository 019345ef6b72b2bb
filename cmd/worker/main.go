package main

import (
	"context"

	"github.com/emlakhub/emlakhub-backend/internal/notifications"
	"github.com/emlakhub/emlakhub-backend/internal/users"
	"github.com/emlakhub/emlakhub-backend/pkg/bootstrap"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/idempotency"
)

func main() {
	bootstrap.Main("worker", run)
}

func run(ctx context.Context, app *bootstrap.App) error {
	dbClient, err := app.OpenDB(ctx)
	if err != nil {
		return err
	}
	redisClient, err := app.OpenRedis(ctx)
	if err != nil {
		return err
	}
	pubsubClient, err := app.OpenPubSub(ctx)
	if err != nil {
		return err
	}

	guard, err := idempotency.NewGuard(redisClient, notifications.ConsumerName, app.Config.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return err
	}
	consumer, err := notifications.NewConsumer(
		notifications.NewRepository(dbClient.DB()),
		users.NewRepository(dbClient.DB()),
		pubsubClient.DomainSubscription(),
		guard,
		app.Logger,
	)
	if err != nil {
		return err
	}

	service, err := NewService(ServiceParams{
		Logger:    app.Logger,
		DB:        dbClient.Ping,
		Redis:     redisClient.Ping,
		PubSub:    pubsubClient.Ping,
		Consumers: map[string]runner{"notifications": consumer},
	})
	if err != nil {
		return err
	}
	return service.Run(ctx)
}
