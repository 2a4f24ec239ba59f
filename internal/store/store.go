// Package store persists candles and evaluated outcomes, and exposes the
// channel and signal catalog the evaluator reads from.
//
// Two backends implement Store: postgres for the shared production database
// and duckdb for a local single-file database.
package store

import (
	"context"
	"time"

	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
)

// DefaultSignalListLimit is the number of signals listed per channel when no
// limit is given.
const DefaultSignalListLimit = 5

// Driver names a Store backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverDuckDB   Driver = "duckdb"
)

// CandleStore persists candles keyed by (time, symbol, interval).
type CandleStore interface {
	// SaveCandles inserts candles, ignoring rows whose key already exists.
	SaveCandles(ctx context.Context, candles []types.Candle, interval marketdata.Interval) error
	// GetCandles returns candles opening in [from, to], oldest first.
	GetCandles(ctx context.Context, symbol string, interval marketdata.Interval, from, to time.Time) ([]types.Candle, error)
}

// SignalStore reads signals and records their outcome.
type SignalStore interface {
	GetSignal(ctx context.Context, id int64) (types.Signal, error)
	// ListOpenSignals returns signals without a close time, oldest signal
	// first. A limit of zero or less returns all of them.
	ListOpenSignals(ctx context.Context, limit int) ([]types.Signal, error)
	// CloseSignal records the outcome of an open signal. Closing a signal
	// again with the same values is a no-op, with different values it fails
	// with ErrCodeSignalAlreadyClosed.
	CloseSignal(ctx context.Context, id int64, closeTime time.Time, result types.Result, pnl float64) error
}

// Catalog is the channel side of the store.
type Catalog interface {
	ListChannels(ctx context.Context) ([]types.Channel, error)
	// SaveChannel inserts a channel or updates the title of the channel with
	// the same username, and returns its id.
	SaveChannel(ctx context.Context, channel types.Channel) (int64, error)
	// SaveSignal inserts a parsed signal and returns its id.
	SaveSignal(ctx context.Context, sig types.Signal) (int64, error)
	// ListSignalsByChannel returns the newest signals of a channel first.
	ListSignalsByChannel(ctx context.Context, channelID int64, limit int) ([]types.Signal, error)
	ChannelStats(ctx context.Context, channelID int64) (types.ChannelStats, error)
	// UpdateChannelRates recomputes the stored success rate of every
	// channel that has signals.
	UpdateChannelRates(ctx context.Context) error
}

// Store is the full persistence surface.
type Store interface {
	CandleStore
	SignalStore
	Catalog

	// Migrate creates the tables when they do not exist yet.
	Migrate(ctx context.Context) error
	Close() error
}
