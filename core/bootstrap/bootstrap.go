// Package bootstrap wires configuration into the running components of the bot.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coredatabase "github.com/m3rciful/weatherbot/core/database"
	"github.com/m3rciful/weatherbot/core/logger"
	coretelegram "github.com/m3rciful/weatherbot/core/telegram"
	"github.com/m3rciful/weatherbot/core/telegram/commands"
	"github.com/m3rciful/weatherbot/core/telegram/middleware"
	"github.com/m3rciful/weatherbot/core/telegram/router"
	"github.com/m3rciful/weatherbot/core/telegram/state"
	"github.com/m3rciful/weatherbot/core/weather"
)

// Options control the bootstrap pipeline. Nil hooks select the production implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(context.Context, coreconfig.DatabaseConfig) error

	// Weather and Client replace the network-backed defaults.
	Weather weather.Provider
	Client  *coretelegram.Client
}

// App holds the components built by Run.
type App struct {
	Config  *coreconfig.Config
	DB      *sqlx.DB
	Store   state.Store
	Weather weather.Provider
	Client  *coretelegram.Client
	Router  *router.Router
}

// Run initializes the logger, selects the state backend, and builds the transport and router.
func Run(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	app := &App{Config: cfg}
	store, db, err := openStore(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	app.Store, app.DB = store, db

	app.Weather = opts.Weather
	if app.Weather == nil {
		provider, err := weather.NewOpenWeatherMap(cfg.Weather.APIKey, cfg.Weather.Lang, nil)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("bootstrap: weather provider: %w", err)
		}
		app.Weather = provider
	}

	app.Client = opts.Client
	if app.Client == nil {
		client, err := coretelegram.NewClientFromConfig(cfg)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("bootstrap: telegram client: %w", err)
		}
		app.Client = client
	}

	app.Router = router.New(app.Client, app.Weather, app.Store, router.Options{Cities: cfg.Weather.Cities})

	preview, truncated := logger.SummarizeStrings(cfg.Weather.Cities, 6)
	logger.L.Info("app wired",
		slog.String("component", "app"),
		slog.String("event", "wire"),
		slog.String("backend", cfg.State.Backend),
		slog.Int("cities", len(cfg.Weather.Cities)),
		slog.String("cities_preview", preview),
		slog.Bool("cities_truncated", truncated),
	)
	return app, nil
}

func openStore(ctx context.Context, cfg *coreconfig.Config, opts Options) (state.Store, *sqlx.DB, error) {
	if cfg.State.Backend != coreconfig.StateBackendPostgres {
		return state.NewMemory(), nil, nil
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}

	if err := migrate(ctx, cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	db, err := connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	return state.NewPostgres(db), db, nil
}

// TelegramRunOptions returns the options for telegram.RunTelegram; the database is closed on stop.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a == nil || a.Router == nil {
		return coretelegram.RunOptions{}, errors.New("bootstrap: app not initialized")
	}
	return coretelegram.RunOptions{
		Config:   a.Config,
		Client:   a.Client,
		Handler:  middleware.Chain(a.Router, middleware.Recover, middleware.Logger),
		Commands: commands.Menu(commands.Defaults()),
		OnStop: func(context.Context, coretelegram.Runtime) error {
			return a.Close()
		},
	}, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	db := a.DB
	a.DB = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("bootstrap: close database: %w", err)
	}
	logger.DB.Info("db closed", slog.String("event", "db.close"))
	return nil
}
