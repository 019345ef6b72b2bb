package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emlakhub/emlakhub-backend/api/controllers"
	"github.com/emlakhub/emlakhub-backend/api/routes"
	"github.com/emlakhub/emlakhub-backend/internal/activity"
	"github.com/emlakhub/emlakhub-backend/internal/contact"
	"github.com/emlakhub/emlakhub-backend/internal/favorites"
	"github.com/emlakhub/emlakhub-backend/internal/listings"
	"github.com/emlakhub/emlakhub-backend/internal/notifications"
	"github.com/emlakhub/emlakhub-backend/internal/reports"
	"github.com/emlakhub/emlakhub-backend/internal/settings"
	"github.com/emlakhub/emlakhub-backend/internal/users"
	"github.com/emlakhub/emlakhub-backend/pkg/bootstrap"
	"github.com/emlakhub/emlakhub-backend/pkg/db"
	"github.com/emlakhub/emlakhub-backend/pkg/env"
	"github.com/emlakhub/emlakhub-backend/pkg/metrics"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox"
	"github.com/emlakhub/emlakhub-backend/pkg/redis"
)

const (
	defaultSiteName = "EmlakHub"
	shutdownTimeout = 15 * time.Second
)

func main() {
	bootstrap.Main("api", run)
}

func run(ctx context.Context, app *bootstrap.App) error {
	cfg, logg := app.Config, app.Logger

	dbClient, err := app.OpenDB(ctx)
	if err != nil {
		return err
	}
	redisClient, err := app.OpenRedis(ctx)
	if err != nil {
		return err
	}

	moderationMetrics := metrics.NewModerationMetrics(prometheus.DefaultRegisterer)
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	activityRepo := activity.NewRepository(dbClient.DB())
	recorder, err := activity.NewRecorder(dbClient, activityRepo, outboxSvc, logg)
	if err != nil {
		return err
	}
	emitter := activity.NewAsyncEmitter(recorder, cfg.Activity, logg, moderationMetrics)
	emitter.Start()
	// Registered after the clients so it drains before they close.
	app.OnClose("activity emitter", func() error {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Activity.DrainTimeout)
		defer cancel()
		return emitter.Shutdown(drainCtx)
	})

	deps, err := services(app, dbClient, redisClient, emitter, outboxSvc, activityRepo, moderationMetrics)
	if err != nil {
		return err
	}
	deps.Idempotency = redisClient
	deps.RateLimits = redisClient
	deps.Readiness = map[string]controllers.Pinger{
		"db":    dbClient.Ping,
		"redis": redisClient.Ping,
	}
	deps.Metrics = promhttp.Handler()

	server := &http.Server{
		Addr:              ":" + env.Get("PORT", cfg.App.Port),
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"addr":     server.Addr,
		"instance": env.Get("DYNO", "local"),
	})

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe() }()
	logg.Info(ctx, "listening")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// services builds the domain services behind the router.
func services(app *bootstrap.App, dbClient *db.Client, redisClient *redis.Client, emitter *activity.AsyncEmitter, outboxSvc outbox.Emitter, activityRepo *activity.Repository, mm *metrics.ModerationMetrics) (routes.Dependencies, error) {
	logg := app.Logger
	conn := dbClient.DB()
	var deps routes.Dependencies

	listingRepo := listings.NewRepository(conn)
	listingSvc, err := listings.NewService(listingRepo, dbClient, emitter, redisClient, app.Config.Listings, logg, mm)
	if err != nil {
		return deps, err
	}
	deps.Listings = listingSvc

	if deps.Favorites, err = favorites.NewService(favorites.NewRepository(conn), listingRepo, logg); err != nil {
		return deps, err
	}
	if deps.Reports, err = reports.NewService(reports.NewRepository(conn), listingRepo, listingSvc, emitter, logg); err != nil {
		return deps, err
	}
	if deps.Contact, err = contact.NewService(dbClient, listingRepo, outboxSvc, logg); err != nil {
		return deps, err
	}
	if deps.Notifications, err = notifications.NewService(notifications.NewRepository(conn)); err != nil {
		return deps, err
	}
	if deps.Users, err = users.NewService(users.NewRepository(conn), emitter, logg); err != nil {
		return deps, err
	}
	if deps.Settings, err = settings.NewService(settings.NewRepository(conn), dbClient, emitter, logg, defaultSiteName); err != nil {
		return deps, err
	}
	deps.Activity, err = activity.NewService(activityRepo)
	return deps, err
}
