// Package duckdb implements store.Store on an embedded DuckDB database, for
// running the tracker without a PostgreSQL server.
package duckdb

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/store"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// intervalColumn is quoted since INTERVAL also starts a literal.
const intervalColumn = `"interval"`

// Store is a store.Store backed by DuckDB.
type Store struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens the database file at path, or an in-memory database for an
// empty path or MemoryDSN.
func Open(path string, log *logger.Logger) (*Store, error) {
	if path == "" {
		path = MemoryDSN
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		log.Error("Failed to open database", zap.String("path", path), zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	if err := db.Ping(); err != nil {
		log.Error("Failed to connect to database", zap.String("path", path), zap.Error(err))
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to connect to duckdb", err)
	}

	// DuckDB aborts conflicting writers instead of waiting, so all work
	// goes through one connection.
	db.SetMaxOpenConns(1)

	return &Store{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: log.Named("duckdb"),
	}, nil
}

// Migrate runs the embedded schema.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range store.SplitStatements(schema) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(errors.ErrCodeMigrationFailed, "failed to apply schema", err)
		}
	}

	s.logger.Info("Schema applied")

	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCandles inserts all chunks in one transaction. DuckDB rejects a key
// repeated within one statement even with ON CONFLICT, so repeats are
// dropped first.
func (s *Store) SaveCandles(ctx context.Context, candles []types.Candle, interval marketdata.Interval) error {
	if len(candles) == 0 {
		return nil
	}

	candles = store.UniqueCandles(candles)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	for chunk := range slices.Chunk(candles, store.CandleBatchSize) {
		insert := s.sq.Insert("candles").Columns(store.CandleColumns...)
		for _, c := range chunk {
			insert = insert.Values(c.Time.UTC(), c.Symbol, string(interval), c.Open, c.High, c.Low, c.Close, c.Volume)
		}

		query, args, err := insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build candle insert", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to save candles", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit candles", err)
	}

	s.logger.Debug("Saved candles",
		zap.String("symbol", candles[0].Symbol),
		zap.String("interval", string(interval)),
		zap.Int("count", len(candles)))

	return nil
}

// GetCandles returns the stored candles of symbol in [from, to].
func (s *Store) GetCandles(ctx context.Context, symbol string, interval marketdata.Interval, from, to time.Time) ([]types.Candle, error) {
	query, args, err := s.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume").
		From("candles").
		Where(squirrel.And{
			squirrel.Eq{"symbol": symbol},
			squirrel.Eq{intervalColumn: string(interval)},
			squirrel.GtOrEq{"time": from.UTC()},
			squirrel.LtOrEq{"time": to.UTC()},
		}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build candle query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanSignal(row scanner) (types.Signal, error) {
	var (
		r                 store.SignalRow
		entries, profits  string
		messageID, chanID sql.NullInt64
		leverage          sql.NullInt64
		marginMode        sql.NullString
		createdAt         sql.NullTime
		closeTime         sql.NullTime
		result            sql.NullString
		pnl               sql.NullFloat64
	)

	err := row.Scan(
		&r.ID, &messageID, &chanID, &r.Symbol, &r.Action, &entries, &r.StopLoss,
		&profits, &leverage, &marginMode, &r.SignalTime, &createdAt, &closeTime, &result, &pnl,
	)
	if err != nil {
		return types.Signal{}, err
	}

	if err := json.Unmarshal([]byte(entries), &r.EntryPrices); err != nil {
		return types.Signal{}, errors.Wrapf(errors.ErrCodeMalformedSignal, err, "signal %d has invalid entry prices", r.ID)
	}

	if err := json.Unmarshal([]byte(profits), &r.TakeProfits); err != nil {
		return types.Signal{}, errors.Wrapf(errors.ErrCodeMalformedSignal, err, "signal %d has invalid take-profits", r.ID)
	}

	r.MessageID = nullPtr(messageID.Int64, messageID.Valid)
	r.ChannelID = nullPtr(chanID.Int64, chanID.Valid)
	r.Leverage = nullPtr(leverage.Int64, leverage.Valid)
	r.MarginMode = nullPtr(marginMode.String, marginMode.Valid)
	r.CreatedAt = nullPtr(createdAt.Time, createdAt.Valid)
	r.CloseTime = nullPtr(closeTime.Time, closeTime.Valid)
	r.Result = nullPtr(result.String, result.Valid)
	r.PnL = nullPtr(pnl.Float64, pnl.Valid)

	return r.Signal()
}

func nullPtr[T any](v T, valid bool) *T {
	if !valid {
		return nil
	}

	return &v
}

func (s *Store) selectSignals() squirrel.SelectBuilder {
	return s.sq.Select(store.SignalColumns...).From("trading_signals")
}

func (s *Store) querySignals(ctx context.Context, builder squirrel.SelectBuilder) ([]types.Signal, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build signal query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// GetSignal loads one signal.
func (s *Store) GetSignal(ctx context.Context, id int64) (types.Signal, error) {
	query, args, err := s.selectSignals().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build signal query", err)
	}

	sig, err := scanSignal(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

// CloseSignal sets the outcome of a signal whose close time is still empty.
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

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to close signal %d", id)
	}

	if n, err := res.RowsAffected(); err == nil && n == 1 {
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
	rows, err := s.sq.
		Select("id", "username", "title", "rate").
		From("channels").
		OrderBy("id DESC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query channels", err)
	}
	defer rows.Close()

	var channels []types.Channel

	for rows.Next() {
		var (
			ch   types.Channel
			rate sql.NullFloat64
		)

		if err := rows.Scan(&ch.ID, &ch.Username, &ch.Title, &rate); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan channel", err)
		}

		ch.Rate = store.OptionOf(nullPtr(rate.Float64, rate.Valid))
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
		Suffix("ON CONFLICT (username) DO UPDATE SET title = EXCLUDED.title").
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build channel insert", err)
	}

	// RETURNING after DO UPDATE yields a fresh sequence value in DuckDB, not
	// the id of the row that was updated
	lookup := s.sq.Select("id").From("channels").Where(squirrel.Eq{"username": channel.Username})

	id, err := s.upsertReturningID(ctx, query, args, lookup)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to save channel %s", channel.Username)
	}

	return id, nil
}

// upsertReturningID runs an upsert and reads the affected row's id back in
// the same transaction.
func (s *Store) upsertReturningID(ctx context.Context, query string, args []any, lookup squirrel.SelectBuilder) (int64, error) {
	selectQuery, selectArgs, err := lookup.ToSql()
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()

		return 0, err
	}

	var id int64
	if err := tx.QueryRowContext(ctx, selectQuery, selectArgs...).Scan(&id); err != nil {
		_ = tx.Rollback()

		return 0, err
	}

	return id, tx.Commit()
}

// SaveSignal upserts a validated signal by (channel, message id), encoding
// the price lists as JSON. A signal without a message id is always inserted.
func (s *Store) SaveSignal(ctx context.Context, sig types.Signal) (int64, error) {
	if err := sig.Validate(); err != nil {
		return 0, err
	}

	entries, err := json.Marshal(sig.EntryPrices)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeWriteFailed, "failed to encode entry prices", err)
	}

	profits, err := json.Marshal(sig.TakeProfits)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeWriteFailed, "failed to encode take-profits", err)
	}

	createdAt := sig.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var result *string
	if sig.Result.IsSome() {
		v := string(sig.Result.Unwrap())
		result = &v
	}

	var closeTime *time.Time
	if sig.CloseTime.IsSome() {
		v := sig.CloseTime.Unwrap().UTC()
		closeTime = &v
	}

	insert := s.sq.
		Insert("trading_signals").
		Columns(store.SignalColumns[1:]...).
		Values(
			store.MessageIDColumn(sig.MessageID), sig.ChannelID, sig.Symbol, string(sig.Direction), string(entries), sig.StopLoss,
			string(profits), sig.Leverage, sig.MarginMode, sig.SignalTime.UTC(), createdAt.UTC(),
			closeTime, result, store.PtrOf(sig.PnL),
		)

	if sig.MessageID == 0 {
		query, args, err := insert.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build signal insert", err)
		}

		var id int64
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, errors.Wrap(errors.ErrCodeWriteFailed, "failed to save signal", err)
		}

		return id, nil
	}

	query, args, err := insert.Suffix(store.SignalUpsertSuffix()).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build signal insert", err)
	}

	lookup := s.sq.Select("id").From("trading_signals").
		Where(squirrel.Eq{"channel_id": sig.ChannelID, "message_id": sig.MessageID})

	id, err := s.upsertReturningID(ctx, query, args, lookup)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to save signal %d of channel %d", sig.MessageID, sig.ChannelID)
	}

	return id, nil
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
	var count int

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM channels WHERE id = ?", channelID).Scan(&count)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to look up channel", err)
	}

	if count == 0 {
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
		GroupBy("channel_id").
		OrderBy("channel_id")

	if where != nil {
		builder = builder.Where(where)
	}

	rows, err := builder.RunWith(s.db).QueryContext(ctx)
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

// UpdateChannelRates writes every channel's success rate in one transaction.
func (s *Store) UpdateChannelRates(ctx context.Context) error {
	counts, err := s.rateCounts(ctx, nil)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	for _, c := range counts {
		_, err := s.sq.
			Update("channels").
			Set("rate", c.Stats().SuccessRate).
			Where(squirrel.Eq{"id": c.ChannelID}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to update channel rates", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit channel rates", err)
	}

	s.logger.Info("Updated channel rates", zap.Int("channels", len(counts)))

	return nil
}
