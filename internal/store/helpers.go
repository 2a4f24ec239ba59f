package store

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
)

// CandleColumns is the column order used by both backends for candle rows.
var CandleColumns = []string{"time", "symbol", "interval", "open", "high", "low", "close", "volume"}

// SignalColumns is the column order used by both backends for signal rows.
var SignalColumns = []string{
	"id", "message_id", "channel_id", "symbol", "action", "entry_prices", "stop_loss",
	"take_profits", "leverage", "margin_mode", "signal_time", "created_at", "close_time", "result", "pnl",
}

// CandleBatchSize bounds the rows of one multi-row candle insert.
const CandleBatchSize = 500

// UniqueCandles returns the candles ordered by time and symbol with repeated
// (time, symbol) pairs dropped. The first occurrence wins, matching
// ON CONFLICT DO NOTHING across calls. candles is not modified.
func UniqueCandles(candles []types.Candle) []types.Candle {
	unique := slices.Clone(candles)

	slices.SortStableFunc(unique, func(a, b types.Candle) int {
		return cmp.Or(a.Time.Compare(b.Time), strings.Compare(a.Symbol, b.Symbol))
	})

	return slices.CompactFunc(unique, func(a, b types.Candle) bool {
		return a.Time.Equal(b.Time) && a.Symbol == b.Symbol
	})
}

// MessageIDColumn stores an unknown (zero) message id as NULL, so signals
// without one never collide on the (channel_id, message_id) key.
func MessageIDColumn(id int64) *int64 {
	if id == 0 {
		return nil
	}

	return &id
}

// SignalUpsertColumns are the parsed fields a re-imported signal refreshes.
// The outcome columns are left alone.
var SignalUpsertColumns = []string{
	"symbol", "action", "entry_prices", "stop_loss", "take_profits", "leverage", "margin_mode", "signal_time",
}

// SignalUpsertSuffix is the conflict clause of a signal insert.
func SignalUpsertSuffix() string {
	sets := make([]string, 0, len(SignalUpsertColumns))
	for _, col := range SignalUpsertColumns {
		sets = append(sets, col+" = EXCLUDED."+col)
	}

	return "ON CONFLICT (channel_id, message_id) DO UPDATE SET " + strings.Join(sets, ", ")
}

// ValidateClose checks the arguments of a CloseSignal call.
func ValidateClose(closeTime time.Time, result types.Result) error {
	if closeTime.IsZero() {
		return errors.New(errors.ErrCodeInvalidParameter, "close time is required")
	}

	if _, err := types.ParseResult(string(result)); err != nil {
		return err
	}

	return nil
}

// CompareClosed decides a CloseSignal call against a signal that was not
// open. It returns nil when the stored outcome matches the requested one.
func CompareClosed(sig types.Signal, closeTime time.Time, result types.Result, pnl float64) error {
	if !sig.IsClosed() {
		return errors.Newf(errors.ErrCodeQueryFailed, "signal %d is open but could not be closed", sig.ID)
	}

	same := sig.CloseTime.Unwrap().Equal(closeTime) &&
		sig.Result.TakeOr("") == result &&
		math.Abs(sig.PnL.TakeOr(math.NaN())-pnl) < 1e-9

	if !same {
		return errors.Newf(errors.ErrCodeSignalAlreadyClosed,
			"signal %d is already closed at %s with %s", sig.ID, sig.CloseTime.Unwrap().Format(time.RFC3339), sig.Result.TakeOr(""))
	}

	return nil
}

// SignalListLimit applies the default to a non-positive limit.
func SignalListLimit(limit int) int {
	if limit <= 0 {
		return DefaultSignalListLimit
	}

	return limit
}

// SplitStatements splits a schema script on semicolons, dropping comment
// lines and empty statements.
func SplitStatements(script string) []string {
	var lines []string

	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}

		lines = append(lines, line)
	}

	var statements []string

	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return statements
}

// OptionOf converts a nullable column value.
func OptionOf[T any](p *T) optional.Option[T] {
	if p == nil {
		return optional.None[T]()
	}

	return optional.Some(*p)
}

// PtrOf converts an option into a nullable column value.
func PtrOf[T any](o optional.Option[T]) *T {
	if o.IsNone() {
		return nil
	}

	v := o.Unwrap()

	return &v
}

// SignalRow holds the scanned columns of a signal before conversion.
type SignalRow struct {
	ID          int64
	MessageID   *int64
	ChannelID   *int64
	Symbol      string
	Action      string
	EntryPrices []float64
	StopLoss    float64
	TakeProfits []float64
	Leverage    *int64
	MarginMode  *string
	SignalTime  time.Time
	CreatedAt   *time.Time
	CloseTime   *time.Time
	Result      *string
	PnL         *float64
}

// Signal converts the row, normalizing the free-form action and result
// columns and all times to UTC.
func (r SignalRow) Signal() (types.Signal, error) {
	direction, err := types.ParseDirection(r.Action)
	if err != nil {
		return types.Signal{}, errors.Wrapf(errors.ErrCodeMalformedSignal, err, "signal %d", r.ID)
	}

	result := optional.None[types.Result]()

	if r.Result != nil && strings.TrimSpace(*r.Result) != "" {
		parsed, err := types.ParseResult(*r.Result)
		if err != nil {
			return types.Signal{}, errors.Wrapf(errors.ErrCodeMalformedSignal, err, "signal %d", r.ID)
		}

		result = optional.Some(parsed)
	}

	closeTime := optional.None[time.Time]()
	if r.CloseTime != nil {
		closeTime = optional.Some(r.CloseTime.UTC())
	}

	createdAt := time.Time{}
	if r.CreatedAt != nil {
		createdAt = r.CreatedAt.UTC()
	}

	leverage := 1
	if r.Leverage != nil && *r.Leverage > 0 {
		leverage = int(*r.Leverage)
	}

	return types.Signal{
		ID:          r.ID,
		MessageID:   OptionOf(r.MessageID).TakeOr(0),
		ChannelID:   OptionOf(r.ChannelID).TakeOr(0),
		Symbol:      r.Symbol,
		Direction:   direction,
		EntryPrices: r.EntryPrices,
		StopLoss:    r.StopLoss,
		TakeProfits: r.TakeProfits,
		Leverage:    leverage,
		MarginMode:  OptionOf(r.MarginMode).TakeOr(""),
		SignalTime:  r.SignalTime.UTC(),
		CreatedAt:   createdAt,
		CloseTime:   closeTime,
		Result:      result,
		PnL:         OptionOf(r.PnL),
	}, nil
}

// RateCounts is the per-channel outcome tally used to compute rates.
type RateCounts struct {
	ChannelID int64
	Success   int
	Fail      int
	Open      int
}

// Stats converts the tally into rounded channel stats.
func (c RateCounts) Stats() types.ChannelStats {
	return types.NewChannelStats(c.ChannelID, c.Success, c.Fail, c.Open)
}
