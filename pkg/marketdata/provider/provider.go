package provider

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
)

// MaxPageSize is the largest page the Binance klines endpoint serves.
const MaxPageSize = 1000

// PageRequest asks an upstream for at most Limit bars opening at or after Start.
type PageRequest struct {
	Symbol   string
	Interval marketdata.Interval
	Start    time.Time
	End      time.Time
	Limit    int
}

// FetchRequest describes a whole window of candles. A missing End means now.
type FetchRequest struct {
	Symbol   string
	Interval marketdata.Interval
	Start    time.Time
	End      optional.Option[time.Time]
}

// Validate checks the request before anything is sent upstream.
func (r FetchRequest) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "symbol is required")
	}

	if !r.Interval.Valid() {
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported interval %q", r.Interval)
	}

	if r.Start.IsZero() {
		return errors.New(errors.ErrCodeInvalidParameter, "start time is required")
	}

	return nil
}

// PageSource fetches one page without retrying. An empty page means no bars
// exist between req.Start and req.End.
type PageSource interface {
	FetchPage(ctx context.Context, req PageRequest) ([]types.Candle, error)
}

// CandleSource fetches complete windows of candles, oldest first, in UTC.
type CandleSource interface {
	PageSource
	// Fetch returns every bar in the window. On failure the bars gathered so
	// far are returned together with the error.
	Fetch(ctx context.Context, req FetchRequest) ([]types.Candle, error)
	// Pages yields the window one upstream page at a time. An error is
	// yielded at most once and ends the sequence.
	Pages(ctx context.Context, req FetchRequest) iter.Seq2[[]types.Candle, error]
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context, req PageRequest) ([]types.Candle, error)

// FetchPage calls f.
func (f PageSourceFunc) FetchPage(ctx context.Context, req PageRequest) ([]types.Candle, error) {
	return f(ctx, req)
}
