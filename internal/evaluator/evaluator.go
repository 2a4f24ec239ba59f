// Package evaluator decides how a trading signal played out by walking the
// candles that followed it until the stop-loss or a take-profit was touched.
package evaluator

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/provider"
)

// DefaultPostHitPadding is the number of bars kept after the closing bar.
const DefaultPostHitPadding = 10

// Config controls a single evaluation.
type Config struct {
	// Interval is the candle width the signal is evaluated on.
	Interval marketdata.Interval
	// PostHitPadding is how many bars after the closing bar are still
	// collected, so charts show what happened next. Zero stops at the hit.
	PostHitPadding int
	// Now bounds the window. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig evaluates on five minute bars with ten bars of padding.
func DefaultConfig() Config {
	return Config{
		Interval:       marketdata.DefaultInterval,
		PostHitPadding: DefaultPostHitPadding,
		Now:            time.Now,
	}
}

func (c Config) validate() error {
	if !c.Interval.Valid() {
		return errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %q", c.Interval)
	}

	if c.PostHitPadding < 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "post hit padding must not be negative, got %d", c.PostHitPadding)
	}

	return nil
}

// Evaluate walks the candles after sig.SignalTime and reports whether the
// signal closed. A signal that already carries a close time is returned from
// its stored fields without touching src.
//
// When the data runs out before either level is touched the outcome is open
// and the error is nil. When src fails the candles read so far are returned
// without a close time, together with the error.
func Evaluate(ctx context.Context, sig types.Signal, src provider.CandleSource, cfg Config) (types.Outcome, error) {
	//nolint:exhaustruct // an empty outcome for the error paths
	failed := types.Outcome{SignalID: sig.ID}

	if err := sig.Validate(); err != nil {
		return failed, err
	}

	if sig.IsClosed() {
		return types.OutcomeFromSignal(sig), nil
	}

	if err := cfg.validate(); err != nil {
		return failed, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	m := newMachine(sig, cfg.PostHitPadding)

	req := provider.FetchRequest{
		Symbol:   sig.Symbol,
		Interval: cfg.Interval,
		Start:    sig.SignalTime.UTC(),
		End:      optional.Some(now().UTC()),
	}

pages:
	for page, err := range src.Pages(ctx, req) {
		if err != nil {
			failed.Candles = m.candles

			return failed, err
		}

		for _, candle := range page {
			if m.step(candle) == stateDone {
				break pages
			}
		}
	}

	return m.outcome()
}
