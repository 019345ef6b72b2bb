package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/emlakhub/emlakhub-backend/pkg/bootstrap"
	"github.com/emlakhub/emlakhub-backend/pkg/metrics"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/registry"
)

func main() {
	bootstrap.Main("outbox-publisher", run)
}

func run(ctx context.Context, app *bootstrap.App) error {
	dbClient, err := app.OpenDB(ctx)
	if err != nil {
		return err
	}
	pubsubClient, err := app.OpenPubSub(ctx)
	if err != nil {
		return err
	}

	router, err := registry.NewRouter(app.Config.PubSub)
	if err != nil {
		return err
	}
	relay, err := NewRelay(RelayParams{
		Config: app.Config.Outbox,
		Logger: app.Logger,
		DB:     dbClient,
		PubSub: pubsubClient.Ping,
		Store:  outbox.NewRepository(dbClient.DB()),
		Router: router,
		Topics: func(topic string) topicPublisher {
			// A nil *TopicPublisher must not become a non-nil interface.
			if publisher := pubsubClient.Publisher(topic); publisher != nil {
				return publisher
			}
			return nil
		},
		Metrics: metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return err
	}
	return relay.Run(ctx)
}
