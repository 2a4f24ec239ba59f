package evaluator

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/internal/types"
)

type state int

const (
	// stateSearching scans for the first bar touching a level
	stateSearching state = iota
	// stateConfirming collects the padding bars after the hit
	stateConfirming
	stateDone
)

// machine is the per-evaluation state. It is never shared.
type machine struct {
	sig       types.Signal
	padding   int
	state     state
	remaining int
	candles   []types.Candle
	closeTime time.Time
	result    types.Result
}

func newMachine(sig types.Signal, padding int) *machine {
	//nolint:exhaustruct // close fields are set on the hit
	return &machine{
		sig:     sig,
		padding: padding,
		state:   stateSearching,
	}
}

// step consumes one bar and returns the resulting state.
func (m *machine) step(candle types.Candle) state {
	switch m.state {
	case stateSearching:
		m.candles = append(m.candles, candle)

		result, hit := crossing(m.sig, candle)
		if !hit {
			return m.state
		}

		m.result = result
		m.closeTime = candle.Time.UTC()
		m.remaining = m.padding
		m.state = stateConfirming

		if m.remaining == 0 {
			m.state = stateDone
		}
	case stateConfirming:
		m.candles = append(m.candles, candle)

		m.remaining--
		if m.remaining <= 0 {
			m.state = stateDone
		}
	case stateDone:
	}

	return m.state
}

// crossing classifies a bar. The stop-loss is checked first, so a bar that
// spans both levels counts as a loss.
func crossing(sig types.Signal, candle types.Candle) (types.Result, bool) {
	switch sig.Direction {
	case types.DirectionLong:
		if candle.Low <= sig.StopLoss {
			return types.ResultFail, true
		}

		for _, tp := range sig.TakeProfits {
			if candle.High >= tp {
				return types.ResultSuccess, true
			}
		}
	case types.DirectionShort:
		if candle.High >= sig.StopLoss {
			return types.ResultFail, true
		}

		for _, tp := range sig.TakeProfits {
			if candle.Low <= tp {
				return types.ResultSuccess, true
			}
		}
	}

	return "", false
}

func (m *machine) outcome() (types.Outcome, error) {
	out := types.Outcome{
		SignalID:  m.sig.ID,
		Candles:   m.candles,
		CloseTime: optional.None[time.Time](),
		Result:    optional.None[types.Result](),
		PnL:       optional.None[float64](),
		Cached:    false,
	}

	if m.state == stateSearching {
		return out, nil
	}

	pnl, err := CalculatePnL(m.sig, m.result)
	if err != nil {
		return out, err
	}

	out.CloseTime = optional.Some(m.closeTime)
	out.Result = optional.Some(m.result)
	out.PnL = optional.Some(pnl)

	return out, nil
}
