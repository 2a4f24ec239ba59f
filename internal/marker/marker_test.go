package marker

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSignal() types.Signal {
	return types.Signal{
		ID:          1,
		Symbol:      "BTCUSDT",
		Direction:   types.DirectionShort,
		EntryPrices: []float64{100, 101},
		StopLoss:    110,
		TakeProfits: []float64{95, 90},
		Leverage:    5,
		SignalTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMarksForOpenSignal(t *testing.T) {
	marks := Marks(testSignal(), types.Outcome{SignalID: 1})
	require.Len(t, marks, 6)

	categories := make([]string, len(marks))
	for i, m := range marks {
		categories[i] = m.Category
	}

	assert.Equal(t, []string{
		CategoryEntry, CategoryEntry, CategoryStopLoss, CategoryTakeProfit, CategoryTakeProfit, CategorySignal,
	}, categories)
	assert.Equal(t, "Entry 2", marks[1].Title)
	assert.Equal(t, 101.0, marks[1].Price)
	assert.Equal(t, types.MarkShapeLine, marks[2].Shape)
	assert.Equal(t, types.MarkColorRed, marks[2].Color)
	assert.Equal(t, "BTCUSDT short x5", marks[5].Message)
}

func TestMarksForClosedSignal(t *testing.T) {
	sig := testSignal()
	closeTime := sig.SignalTime.Add(time.Hour)

	marks := Marks(sig, types.Outcome{
		SignalID:  1,
		CloseTime: optional.Some(closeTime),
		Result:    optional.Some(types.ResultSuccess),
		PnL:       optional.Some(25.0),
	})
	require.Len(t, marks, 7)

	last := marks[6]
	assert.Equal(t, CategoryClose, last.Category)
	assert.Equal(t, closeTime, last.Time)
	assert.Equal(t, 95.0, last.Price)
	assert.Equal(t, types.MarkShapeTriangle, last.Shape)
	assert.Equal(t, "Take-profit hit, PnL +25.00%", last.Message)

	marks = Marks(sig, types.Outcome{
		SignalID:  1,
		CloseTime: optional.Some(closeTime),
		Result:    optional.Some(types.ResultFail),
	})
	last = marks[len(marks)-1]
	assert.Equal(t, 110.0, last.Price)
	assert.Equal(t, types.MarkColorRed, last.Color)
	assert.Equal(t, "Stop-loss hit", last.Message)
}

func TestNewChart(t *testing.T) {
	sig := testSignal()
	candles := []types.Candle{{Time: sig.SignalTime, Symbol: sig.Symbol, Open: 100, High: 101, Low: 99, Close: 100}}

	chart := NewChart(sig, candles, types.OutcomeFromSignal(sig))
	assert.Equal(t, sig, chart.Signal)
	assert.Equal(t, candles, chart.Candles)
	assert.Len(t, chart.Marks, 6)
}

func TestNewChartAnchorsOnFirstCandleAtOrAfterSignal(t *testing.T) {
	sig := testSignal()
	sig.SignalTime = sig.SignalTime.Add(20 * time.Minute)

	hour := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []types.Candle{
		{Time: hour, Symbol: sig.Symbol, Close: 100},
		{Time: hour.Add(time.Hour), Symbol: sig.Symbol, Close: 100},
		{Time: hour.Add(2 * time.Hour), Symbol: sig.Symbol, Close: 100},
	}

	chart := NewChart(sig, candles, types.OutcomeFromSignal(sig))
	require.Len(t, chart.Marks, 6)
	for _, m := range chart.Marks {
		assert.Equal(t, hour.Add(time.Hour), m.Time, m.Title)
	}

	// no candle at or after the signal
	chart = NewChart(sig, candles[:1], types.OutcomeFromSignal(sig))
	assert.Equal(t, sig.SignalTime, chart.Marks[5].Time)

	assert.Equal(t, sig.SignalTime, Marks(sig, types.OutcomeFromSignal(sig))[5].Time)
}
