// Package app wires the configured store, candle provider, notifier and
// processor together for the command line and the API server.
package app

import (
	"context"
	"time"

	"github.com/rxtech-lab/signal-tracker/internal/config"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/notify"
	"github.com/rxtech-lab/signal-tracker/internal/processor"
	"github.com/rxtech-lab/signal-tracker/internal/store"
	"github.com/rxtech-lab/signal-tracker/internal/store/duckdb"
	"github.com/rxtech-lab/signal-tracker/internal/store/postgres"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// App holds the long lived dependencies of one tracker process.
type App struct {
	Config    config.Config
	Logger    *logger.Logger
	Store     store.Store
	Source    provider.CandleSource
	Notifier  notify.Notifier
	Processor *processor.Processor
	Now       func() time.Time
}

// Option replaces a dependency New would otherwise build from the config.
type Option func(*App)

// WithLogger uses log instead of building one from the logging section.
func WithLogger(log *logger.Logger) Option {
	return func(a *App) {
		a.Logger = log
	}
}

// WithStore uses an already opened store. Close still closes it.
func WithStore(st store.Store) Option {
	return func(a *App) {
		a.Store = st
	}
}

// WithSource replaces the upstream candle provider.
func WithSource(source provider.CandleSource) Option {
	return func(a *App) {
		a.Source = source
	}
}

// WithNotifier replaces the Telegram notifier.
func WithNotifier(notifier notify.Notifier) Option {
	return func(a *App) {
		a.Notifier = notifier
	}
}

// WithClock fixes the end of every evaluation window.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.Now = now
	}
}

// New builds every dependency cfg describes, migrates the store and returns
// the wired App. On error everything opened so far is closed again.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	a := &App{Config: cfg, Now: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		log, err := logger.New(cfg.Logger())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create logger", err)
		}

		a.Logger = log
	}

	if a.Store == nil {
		st, err := OpenStore(ctx, cfg.Store, a.Logger)
		if err != nil {
			return nil, err
		}

		a.Store = st
	}

	if err := a.Store.Migrate(ctx); err != nil {
		a.Close()

		return nil, err
	}

	if a.Source == nil {
		source, err := provider.NewCandleSource(cfg.Provider(), a.Logger.Named("provider"), a.Now)
		if err != nil {
			a.Close()

			return nil, err
		}

		a.Source = source
	}

	if a.Notifier == nil {
		notifier, err := NewNotifier(cfg.Telegram, a.Logger)
		if err != nil {
			a.Close()

			return nil, err
		}

		a.Notifier = notifier
	}

	a.Processor = processor.New(a.Store, a.Source, a.Notifier, cfg.Processor(a.Now), a.Logger)

	a.Logger.Debug("Application initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("provider", cfg.MarketData.Provider),
		zap.String("interval", cfg.Evaluator.Interval),
	)

	return a, nil
}

// OpenStore opens the store for the configured driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (store.Store, error) {
	switch store.Driver(cfg.Driver) {
	case store.DriverPostgres:
		st, err := postgres.Open(ctx, cfg.DSN, log)
		if err != nil {
			return nil, err
		}

		return st, nil
	case store.DriverDuckDB:
		st, err := duckdb.Open(cfg.DSN, log)
		if err != nil {
			return nil, err
		}

		return st, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported store driver: %s", cfg.Driver)
	}
}

// NewNotifier returns a Telegram notifier when a token is configured and a
// no-op notifier otherwise.
func NewNotifier(cfg config.TelegramConfig, log *logger.Logger) (notify.Notifier, error) {
	if cfg.Token == "" {
		return notify.NopNotifier{}, nil
	}

	return notify.NewTelegram(cfg.Token, cfg.ChatID, log)
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	var err error
	if a.Store != nil {
		err = a.Store.Close()
	}

	if a.Logger != nil {
		_ = a.Logger.Sync()
	}

	return err
}
