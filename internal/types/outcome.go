package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// OutcomeStatus summarizes an Outcome for display.
type OutcomeStatus string

const (
	OutcomeStatusClosed OutcomeStatus = "closed"
	OutcomeStatusOpen   OutcomeStatus = "open"
	OutcomeStatusCached OutcomeStatus = "cached"
)

// Outcome is the result of evaluating a signal against market data.
type Outcome struct {
	SignalID int64 `json:"signal_id"`
	// Candles are the bars consumed by the evaluation, oldest first.
	// Empty for cached outcomes.
	Candles   []Candle                   `json:"candles"`
	CloseTime optional.Option[time.Time] `json:"close_time"`
	Result    optional.Option[Result]    `json:"result"`
	PnL       optional.Option[float64]   `json:"pnl"`
	// Cached is set when the outcome was read from the store instead of evaluated.
	Cached bool `json:"cached"`
}

// Status returns cached, closed or open.
func (o Outcome) Status() OutcomeStatus {
	switch {
	case o.Cached:
		return OutcomeStatusCached
	case o.CloseTime.IsSome():
		return OutcomeStatusClosed
	default:
		return OutcomeStatusOpen
	}
}

// IsClosed reports whether the outcome carries a close time, cached or not.
func (o Outcome) IsClosed() bool {
	return o.CloseTime.IsSome()
}

// OutcomeFromSignal builds the cached outcome of an already closed signal.
func OutcomeFromSignal(sig Signal) Outcome {
	return Outcome{
		SignalID:  sig.ID,
		Candles:   nil,
		CloseTime: sig.CloseTime,
		Result:    sig.Result,
		PnL:       sig.PnL,
		Cached:    true,
	}
}
