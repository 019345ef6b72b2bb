// Package bootstrap holds the process wiring shared by every binary under cmd/:
// environment loading, the service logger, shared clients and shutdown.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/emlakhub/emlakhub-backend/pkg/config"
	"github.com/emlakhub/emlakhub-backend/pkg/db"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/migrate"
	"github.com/emlakhub/emlakhub-backend/pkg/pubsub"
	"github.com/emlakhub/emlakhub-backend/pkg/redis"
)

// App is one running binary. Clients opened through it are closed in reverse
// order when the run function returns.
type App struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger

	closers []closer
}

type closer struct {
	name string
	fn   func() error
}

// Main loads the app, runs fn until SIGINT or SIGTERM and exits non-zero on
// failure. A run that ends because of the signal is a clean exit.
func Main(kind string, fn func(ctx context.Context, app *App) error) {
	app, err := Load(kind)
	if err != nil {
		logger.New(logger.Options{ServiceName: kind}).Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = app.Logger.WithFields(ctx, map[string]any{
		"env":          app.Config.App.Env,
		"service_kind": kind,
	})
	app.Logger.Info(ctx, "starting "+kind)

	err = fn(ctx, app)
	stop()
	err = multierr.Append(ignoreCanceled(err), app.Close())
	if err != nil {
		app.Logger.Error(ctx, kind+" stopped unexpectedly", err)
		os.Exit(1)
	}
	app.Logger.Info(ctx, kind+" shut down gracefully")
}

// Load reads .env when present and the environment config, and builds the
// leveled service logger.
func Load(kind string) (*App, error) {
	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Service.Kind = kind

	logg := logger.New(logger.Options{
		ServiceName: kind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	if dotenvErr != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}
	return &App{Kind: kind, Config: cfg, Logger: logg}, nil
}

// OnClose registers fn to run at shutdown.
func (a *App) OnClose(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Close runs registered closers newest first and reports every failure.
func (a *App) Close() error {
	var err error
	for _, c := range slices.Backward(a.closers) {
		if cerr := c.fn(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", c.name, cerr))
		}
	}
	a.closers = nil
	return err
}

// OpenDB connects to the database and applies dev migrations.
func (a *App) OpenDB(ctx context.Context) (*db.Client, error) {
	client, err := db.New(ctx, a.Config.DB, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	a.OnClose("database", client.Close)
	if err := migrate.MaybeRunDev(ctx, a.Config, a.Logger, client); err != nil {
		return nil, fmt.Errorf("dev migrations: %w", err)
	}
	return client, nil
}

func (a *App) OpenRedis(ctx context.Context) (*redis.Client, error) {
	client, err := redis.New(ctx, a.Config.Redis, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}
	a.OnClose("redis", client.Close)
	return client, nil
}

func (a *App) OpenPubSub(ctx context.Context) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, a.Config.GCP, a.Config.PubSub, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap pubsub: %w", err)
	}
	a.OnClose("pubsub", client.Close)
	return client, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
