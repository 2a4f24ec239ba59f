package mocks

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/provider"
)

// DataGenerator generates realistic candle series for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	Symbol       string
	StartTime    time.Time
	Interval     time.Duration
	Count        int
	InitialPrice float64
	// Volatility controls price movement per bar (0.01 = 1%)
	Volatility float64
	// Trend is the total drift over the series (-0.01 to 0.01 for bearish to bullish)
	Trend      float64
	VolumeBase float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "BTCUSDT",
		StartTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:     5 * time.Minute,
		Count:        1000,
		InitialPrice: 100.0,
		Volatility:   0.002,
		Trend:        0.0,
		VolumeBase:   10000,
	}
}

// Generate creates candles following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Candle {
	candles := make([]types.Candle, config.Count)
	price := config.InitialPrice
	current := config.StartTime.UTC()

	for i := range candles {
		open := price

		// Box-Muller
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		closePrice := open * (1 + config.Volatility*z + config.Trend/float64(config.Count))
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) + g.rng.Float64()*config.Volatility*open*0.5
		low := math.Min(open, closePrice) - g.rng.Float64()*config.Volatility*open*0.5
		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		candles[i] = types.Candle{
			Time:   current,
			Symbol: config.Symbol,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: roundToDecimals(config.VolumeBase*(0.7+g.rng.Float64()*0.6), 2),
		}

		price = closePrice
		current = current.Add(config.Interval)
	}

	return candles
}

// ReplaySource serves a fixed candle series the way the klines endpoint
// does: bars opening in [Start, End], at most Limit of them.
type ReplaySource struct {
	Series []types.Candle
	// Calls counts FetchPage invocations.
	Calls int
}

var _ provider.PageSource = (*ReplaySource)(nil)

// FetchPage returns the next page of the series.
func (r *ReplaySource) FetchPage(_ context.Context, req provider.PageRequest) ([]types.Candle, error) {
	r.Calls++

	page := make([]types.Candle, 0, min(req.Limit, len(r.Series)))
	for _, candle := range r.Series {
		if candle.Time.Before(req.Start) || (!req.End.IsZero() && candle.Time.After(req.End)) {
			continue
		}

		page = append(page, candle)
		if req.Limit > 0 && len(page) == req.Limit {
			break
		}
	}

	return page, nil
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
