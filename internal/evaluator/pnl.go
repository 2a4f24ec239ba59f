package evaluator

import (
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// CalculatePnL returns the leveraged return in percent, rounded to four
// decimals. A success exits at the first take-profit, a failure at the
// stop-loss, and the entry is always the first entry price.
func CalculatePnL(sig types.Signal, result types.Result) (float64, error) {
	if sig.PrimaryEntry() <= 0 {
		return 0, errors.Newf(errors.ErrCodeMalformedSignal, "signal %d has no entry price", sig.ID)
	}

	var target float64

	switch result {
	case types.ResultSuccess:
		if len(sig.TakeProfits) == 0 {
			return 0, errors.Newf(errors.ErrCodeMalformedSignal, "signal %d has no take-profit", sig.ID)
		}

		target = sig.TakeProfits[0]
	case types.ResultFail:
		target = sig.StopLoss
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidOutcome, "unknown result %q", result)
	}

	ratio := decimal.NewFromFloat(target).Div(decimal.NewFromFloat(sig.PrimaryEntry()))
	leverage := decimal.NewFromInt(int64(sig.Leverage))

	var pnl decimal.Decimal

	switch sig.Direction {
	case types.DirectionLong:
		pnl = leverage.Mul(ratio.Sub(one))
	case types.DirectionShort:
		pnl = leverage.Mul(one.Sub(ratio))
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidDirection, "invalid direction %q for signal %d", sig.Direction, sig.ID)
	}

	return pnl.Mul(hundred).Round(4).InexactFloat64(), nil
}
