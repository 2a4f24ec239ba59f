// Package marker turns a signal and its outcome into chart annotations.
package marker

import (
	"fmt"
	"slices"
	"time"

	"github.com/rxtech-lab/signal-tracker/internal/types"
)

const (
	CategorySignal     = "signal"
	CategoryEntry      = "entry"
	CategoryStopLoss   = "stop_loss"
	CategoryTakeProfit = "take_profit"
	CategoryClose      = "close"
)

// Chart is everything a client needs to draw one signal.
type Chart struct {
	Signal  types.Signal   `json:"signal"`
	Candles []types.Candle `json:"candles"`
	Marks   []types.Mark   `json:"marks"`
}

// NewChart builds the chart of sig over candles, marking the close when
// outcome is closed. The levels and the signal point sit on the first candle
// at or after the signal time, so they land on a drawn bar.
func NewChart(sig types.Signal, candles []types.Candle, outcome types.Outcome) Chart {
	return Chart{
		Signal:  sig,
		Candles: candles,
		Marks:   marksAt(sig, outcome, anchor(sig, candles)),
	}
}

// Marks returns the level lines of sig followed by a point at the signal
// time and, for a closed outcome, a point at the close.
func Marks(sig types.Signal, outcome types.Outcome) []types.Mark {
	return marksAt(sig, outcome, sig.SignalTime.UTC())
}

// anchor returns the open time of the first candle at or after the signal
// time, or the signal time itself when candles has none. candles must be
// sorted by time.
func anchor(sig types.Signal, candles []types.Candle) time.Time {
	i, _ := slices.BinarySearchFunc(candles, sig.SignalTime, func(c types.Candle, t time.Time) int {
		return c.Time.Compare(t)
	})
	if i < len(candles) {
		return candles[i].Time.UTC()
	}

	return sig.SignalTime.UTC()
}

func marksAt(sig types.Signal, outcome types.Outcome, start time.Time) []types.Mark {
	marks := make([]types.Mark, 0, len(sig.EntryPrices)+len(sig.TakeProfits)+3)

	for i, price := range sig.EntryPrices {
		marks = append(marks, line(start, price, types.MarkColorBlue, fmt.Sprintf("Entry %d", i+1), CategoryEntry))
	}

	marks = append(marks, line(start, sig.StopLoss, types.MarkColorRed, "Stop-loss", CategoryStopLoss))

	for i, price := range sig.TakeProfits {
		marks = append(marks, line(start, price, types.MarkColorGreen, fmt.Sprintf("TP %d", i+1), CategoryTakeProfit))
	}

	marks = append(marks, types.Mark{
		Time:     start,
		Price:    sig.PrimaryEntry(),
		Color:    types.MarkColorYellow,
		Shape:    types.MarkShapeCircle,
		Title:    "Signal",
		Message:  fmt.Sprintf("%s %s x%d", sig.Symbol, sig.Direction, sig.Leverage),
		Category: CategorySignal,
	})

	if closeMark, ok := closeMark(sig, outcome); ok {
		marks = append(marks, closeMark)
	}

	return marks
}

func line(at time.Time, price float64, color types.MarkColor, title, category string) types.Mark {
	return types.Mark{
		Time:     at,
		Price:    price,
		Color:    color,
		Shape:    types.MarkShapeLine,
		Title:    title,
		Message:  fmt.Sprintf("%s at %g", title, price),
		Category: category,
	}
}

func closeMark(sig types.Signal, outcome types.Outcome) (types.Mark, bool) {
	if outcome.CloseTime.IsNone() || outcome.Result.IsNone() {
		return types.Mark{}, false
	}

	mark := types.Mark{
		Time:     outcome.CloseTime.Unwrap().UTC(),
		Category: CategoryClose,
	}

	switch outcome.Result.Unwrap() {
	case types.ResultSuccess:
		mark.Color = types.MarkColorGreen
		mark.Shape = types.MarkShapeTriangle
		mark.Title = "Take-profit hit"

		if len(sig.TakeProfits) > 0 {
			mark.Price = sig.TakeProfits[0]
		}
	default:
		mark.Color = types.MarkColorRed
		mark.Shape = types.MarkShapeSquare
		mark.Title = "Stop-loss hit"
		mark.Price = sig.StopLoss
	}

	mark.Message = mark.Title
	if outcome.PnL.IsSome() {
		mark.Message = fmt.Sprintf("%s, PnL %+.2f%%", mark.Title, outcome.PnL.Unwrap())
	}

	return mark, true
}
