package writer

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
)

var _ CandleWriter = (*ParquetWriter)(nil)

// ParquetWriter stages candles in an in-memory DuckDB table and copies them
// to a Parquet file on Finalize.
type ParquetWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	interval   marketdata.Interval
	outputPath string
	written    int
}

// NewParquetWriter creates a writer for candles of the given interval.
func NewParquetWriter(outputPath string, interval marketdata.Interval) *ParquetWriter {
	//nolint:exhaustruct // database handles are created by Initialize
	return &ParquetWriter{
		interval:   interval,
		outputPath: outputPath,
	}
}

// Initialize opens the staging database, begins a transaction and prepares
// the insert statement.
func (w *ParquetWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			time TIMESTAMP NOT NULL,
			symbol TEXT NOT NULL,
			interval TEXT NOT NULL,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			PRIMARY KEY (time, symbol, interval)
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO candles (time, symbol, interval, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write stages one candle.
func (w *ParquetWriter) Write(candle types.Candle) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	_, err := w.stmt.Exec(
		candle.Time.UTC(),
		candle.Symbol,
		string(w.interval),
		candle.Open,
		candle.High,
		candle.Low,
		candle.Close,
		candle.Volume,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert candle", err)
	}

	w.written++

	return nil
}

// Finalize commits the staged rows and exports them ordered by time.
func (w *ParquetWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	if err := w.stmt.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close statement", err)
	}

	w.stmt = nil

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()
		w.tx = nil

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	query := fmt.Sprintf(
		`COPY (SELECT * FROM candles ORDER BY symbol, time) TO '%s' (FORMAT PARQUET)`,
		strings.ReplaceAll(w.outputPath, "'", "''"),
	)
	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to export to Parquet", err)
	}

	return w.outputPath, nil
}

// Written returns the number of Write calls that succeeded.
func (w *ParquetWriter) Written() int {
	return w.written
}

// GetOutputPath returns the configured output file path.
func (w *ParquetWriter) GetOutputPath() string {
	return w.outputPath
}

// Close rolls back an unfinished transaction and closes the database.
func (w *ParquetWriter) Close() error {
	var errs []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close statement: %w", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("failed to rollback transaction: %w", err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close db connection: %w", err))
		}

		w.db = nil
	}

	return stderrors.Join(errs...)
}
