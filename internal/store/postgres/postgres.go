// Package postgres implements store.Store on a PostgreSQL database through a
// pgx connection pool.
package postgres

import (
	"context"
	_ "embed"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/store"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

// Store is a store.Store backed by PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to the database at dsn and checks the connection.
func Open(ctx context.Context, dsn string, log *logger.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse postgres dsn", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create postgres pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to connect to postgres", err)
	}

	return New(pool, log), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{
		pool:   pool,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: log.Named("postgres"),
	}
}

// Migrate runs the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range store.SplitStatements(schema) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(errors.ErrCodeMigrationFailed, "failed to apply schema", err)
		}
	}

	s.logger.Info("Schema applied")

	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()

	return nil
}

// SaveCandles queues one multi-row insert per chunk in a single batch.
func (s *Store) SaveCandles(ctx context.Context, candles []types.Candle, interval marketdata.Interval) error {
	if len(candles) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for chunk := range slices.Chunk(store.UniqueCandles(candles), store.CandleBatchSize) {
		insert := s.sq.Insert("candles").Columns(store.CandleColumns...)
		for _, c := range chunk {
			insert = insert.Values(c.Time.UTC(), c.Symbol, string(interval), c.Open, c.High, c.Low, c.Close, c.Volume)
		}

		query, args, err := insert.Suffix("ON CONFLICT (time, symbol, interval) DO NOTHING").ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build candle insert", err)
		}

		batch.Queue(query, args...)
	}

	if err := s.execBatch(ctx, batch); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to save candles", err)
	}

	s.logger.Debug("Saved candles",
		zap.String("symbol", candles[0].Symbol),
		zap.String("interval", string(interval)),
		zap.Int("count", len(candles)))

	return nil
}

func (s *Store) execBatch(ctx context.Context, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	results := s.pool.SendBatch(ctx, batch)

	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()

			return err
		}
	}

	return results.Close()
}

// GetCandles returns the stored candles of symbol in [from, to].
func (s *Store) GetCandles(ctx context.Context, symbol string, interval marketdata.Interval, from, to time.Time) ([]types.Candle, error) {
	query, args, err := s.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume").
		From("candles").
		Where(squirrel.And{
			squirrel.Eq{"symbol": symbol},
			squirrel.Eq{"interval": string(interval)},
			squirrel.GtOrEq{"time": from.UTC()},
			squirrel.LtOrEq{"time": to.UTC()},
		}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build candle query", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err)
	}
	defer rows.Close()

	var candles []types.Candle

	for rows.Next() {
		var c types.Candle
		if err := rows.Scan(&c.Time, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err)
		}

		c.Time = c.Time.UTC()
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read candles", err)
	}

	return candles, nil
}

func (s *Store) selectSignals() squirrel.SelectBuilder {
	return s.sq.Select(store.SignalColumns...).From("trading_signals")
}

func (s *Store) querySignals(ctx context.Context, builder squirrel.SelectBuilder) ([]types.Signal, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build signal query", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query signals", err)
	}
	defer rows.Close()

	var signals []types.Signal

	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}

		signals = append(signals, sig)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read signals", err)
	}

	return signals, nil
}

func scanSignal(row pgx.Row) (types.Signal, error) {
	var r store.SignalRow

	err := row.Scan(
		&r.ID, &r.MessageID, &r.ChannelID, &r.Symbol, &r.Action, &r.EntryPrices, &r.StopLoss,
		&r.TakeProfits, &r.Leverage, &r.MarginMode, &r.SignalTime, &r.CreatedAt, &r.CloseTime, &r.Result, &r.PnL,
	)
	if err != nil {
		return types.Signal{}, err
	}

	return r.Signal()
}

// GetSignal loads one signal.
func (s *Store) GetSignal(ctx context.Context, id int64) (types.Signal, error) {
	query, args, err := s.selectSignals().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build signal query", err)
	}

	sig, err := scanSignal(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Signal{}, errors.Newf(errors.ErrCodeSignalNotFound, "signal %d not found", id)
		}

		var coded *errors.Error
		if errors.As(err, &coded) {
			return types.Signal{}, err
		}

		return types.Signal{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to load signal %d", id)
	}

	return sig, nil
}

// ListOpenSignals returns the signals still waiting for an outcome.
func (s *Store) ListOpenSignals(ctx context.Context, limit int) ([]types.Signal, error) {
	builder := s.selectSignals().
		Where(squirrel.Eq{"close_time": nil}).
		OrderBy("signal_time ASC", "id ASC")

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return s.querySignals(ctx, builder)
}

// CloseSignal only updates a row whose close time is still empty, so two
// writers can never overwrite each other.
func (s *Store) CloseSignal(ctx context.Context, id int64, closeTime time.Time, result types.Result, pnl float64) error {
	if err := store.ValidateClose(closeTime, result); err != nil {
		return err
	}

	query, args, err := s.sq.
		Update("trading_signals").
		Set("close_time", closeTime.UTC()).
		Set("result", string(result)).
		Set("pnl", pnl).
		Where(squirrel.And{squirrel.Eq{"id": id}, squirrel.Eq{"close_time": nil}}).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build close update", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to close signal %d", id)
	}

	if tag.RowsAffected() == 1 {
		s.logger.Info("Closed signal",
			zap.Int64("signal_id", id),
			zap.String("result", string(result)),
			zap.Float64("pnl", pnl))

		return nil
	}

	current, err := s.GetSignal(ctx, id)
	if err != nil {
		return err
	}

	return store.CompareClosed(current, closeTime, result, pnl)
}

// ListChannels returns all channels, newest first.
func (s *Store) ListChannels(ctx context.Context) ([]types.Channel, error) {
	query, args, err := s.sq.Select("id", "username", "title", "rate").From("channels").OrderBy("id DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build channel query", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query channels", err)
	}
	defer rows.Close()

	var channels []types.Channel

	for rows.Next() {
		var (
			ch   types.Channel
			rate *float64
		)

		if err := rows.Scan(&ch.ID, &ch.Username, &ch.Title, &rate); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan channel", err)
		}

		ch.Rate = store.OptionOf(rate)
		channels = append(channels, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read channels", err)
	}

	return channels, nil
}

// SaveChannel upserts a channel by username.
func (s *Store) SaveChannel(ctx context.Context, channel types.Channel) (int64, error) {
	if channel.Username == "" {
		return 0, errors.New(errors.ErrCodeMissingParameter, "channel username is required")
	}

	query, args, err := s.sq.
		Insert("channels").
		Columns("username", "title").
		Values(channel.Username, channel.Title).
		Suffix("ON CONFLICT (username) DO UPDATE SET title = EXCLUDED.title RETURNING id").
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build channel insert", err)
	}

	var id int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to save channel %s", channel.Username)
	}

	return id, nil
}

// SaveSignal upserts a validated signal by (channel, message id). A signal
// without a message id is always inserted.
func (s *Store) SaveSignal(ctx context.Context, sig types.Signal) (int64, error) {
	if err := sig.Validate(); err != nil {
		return 0, err
	}

	createdAt := sig.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args, err := s.sq.
		Insert("trading_signals").
		Columns(store.SignalColumns[1:]...).
		Values(
			store.MessageIDColumn(sig.MessageID), sig.ChannelID, sig.Symbol, string(sig.Direction), sig.EntryPrices, sig.StopLoss,
			sig.TakeProfits, sig.Leverage, sig.MarginMode, sig.SignalTime.UTC(), createdAt.UTC(),
			store.PtrOf(sig.CloseTime), resultColumn(sig), store.PtrOf(sig.PnL),
		).
		Suffix(store.SignalUpsertSuffix() + " RETURNING id").
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build signal insert", err)
	}

	var id int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, errors.Wrap(errors.ErrCodeWriteFailed, "failed to save signal", err)
	}

	return id, nil
}

func resultColumn(sig types.Signal) *string {
	if sig.Result.IsNone() {
		return nil
	}

	v := string(sig.Result.Unwrap())

	return &v
}

// ListSignalsByChannel lists the newest signals of a channel.
func (s *Store) ListSignalsByChannel(ctx context.Context, channelID int64, limit int) ([]types.Signal, error) {
	if err := s.requireChannel(ctx, channelID); err != nil {
		return nil, err
	}

	return s.querySignals(ctx, s.selectSignals().
		Where(squirrel.Eq{"channel_id": channelID}).
		OrderBy("id DESC").
		Limit(uint64(store.SignalListLimit(limit))))
}

func (s *Store) requireChannel(ctx context.Context, channelID int64) error {
	var exists bool

	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM channels WHERE id = $1)", channelID).Scan(&exists)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to look up channel", err)
	}

	if !exists {
		return errors.Newf(errors.ErrCodeChannelNotFound, "channel %d not found", channelID)
	}

	return nil
}

func (s *Store) rateCounts(ctx context.Context, where squirrel.Sqlizer) ([]store.RateCounts, error) {
	builder := s.sq.
		Select(
			"channel_id",
			"COUNT(*) FILTER (WHERE result = 'success')",
			"COUNT(*) FILTER (WHERE result = 'fail')",
			"COUNT(*) FILTER (WHERE close_time IS NULL)",
		).
		From("trading_signals").
		Where(squirrel.NotEq{"channel_id": nil}).
		GroupBy("channel_id")

	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build rate query", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count outcomes", err)
	}
	defer rows.Close()

	var counts []store.RateCounts

	for rows.Next() {
		var c store.RateCounts
		if err := rows.Scan(&c.ChannelID, &c.Success, &c.Fail, &c.Open); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan outcome counts", err)
		}

		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read outcome counts", err)
	}

	return counts, nil
}

// ChannelStats counts the outcomes of one channel.
func (s *Store) ChannelStats(ctx context.Context, channelID int64) (types.ChannelStats, error) {
	if err := s.requireChannel(ctx, channelID); err != nil {
		return types.ChannelStats{}, err
	}

	counts, err := s.rateCounts(ctx, squirrel.Eq{"channel_id": channelID})
	if err != nil {
		return types.ChannelStats{}, err
	}

	if len(counts) == 0 {
		return types.NewChannelStats(channelID, 0, 0, 0), nil
	}

	return counts[0].Stats(), nil
}

// UpdateChannelRates writes every channel's success rate in one batch.
func (s *Store) UpdateChannelRates(ctx context.Context) error {
	counts, err := s.rateCounts(ctx, nil)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}

	for _, c := range counts {
		query, args, err := s.sq.
			Update("channels").
			Set("rate", c.Stats().SuccessRate).
			Where(squirrel.Eq{"id": c.ChannelID}).
			ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build rate update", err)
		}

		batch.Queue(query, args...)
	}

	if err := s.execBatch(ctx, batch); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to update channel rates", err)
	}

	s.logger.Info("Updated channel rates", zap.Int("channels", len(counts)))

	return nil
}
