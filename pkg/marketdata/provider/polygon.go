package provider

import (
	"context"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
)

// DefaultPolygonTickerPrefix is the Polygon namespace for crypto pairs.
const DefaultPolygonTickerPrefix = "X:"

// PolygonAggsIterator is the iterator returned by ListAggs.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient lists aggregate bars.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonClientWrapper struct {
	client *polygon.Client
}

func (w *polygonClientWrapper) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return w.client.ListAggs(ctx, params, options...)
}

// PolygonClient reads crypto aggregates from Polygon.io.
type PolygonClient struct {
	apiClient    PolygonAPIClient
	tickerPrefix string
}

// NewPolygonClient creates a client authenticated with apiKey.
func NewPolygonClient(apiKey string, tickerPrefix string) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key is required")
	}

	return NewPolygonClientWithAPI(&polygonClientWrapper{client: polygon.New(apiKey)}, tickerPrefix), nil
}

// NewPolygonClientWithAPI creates a client around a custom API implementation.
func NewPolygonClientWithAPI(api PolygonAPIClient, tickerPrefix string) *PolygonClient {
	if tickerPrefix == "" {
		tickerPrefix = DefaultPolygonTickerPrefix
	}

	return &PolygonClient{
		apiClient:    api,
		tickerPrefix: tickerPrefix,
	}
}

// Ticker maps an exchange pair such as BTCUSDT to X:BTCUSD. Symbols that
// already carry a namespace are passed through.
func (c *PolygonClient) Ticker(symbol string) string {
	if strings.Contains(symbol, ":") {
		return symbol
	}

	base := strings.ToUpper(symbol)
	if trimmed, ok := strings.CutSuffix(base, "USDT"); ok {
		base = trimmed + "USD"
	}

	return c.tickerPrefix + base
}

// FetchPage lists at most req.Limit aggregates starting at req.Start.
//
// Polygon windows by time rather than by count, so each request covers
// req.Limit intervals. A window with no bars that ends before req.End is a
// market gap, and the following window is requested until bars turn up or
// the range is exhausted.
func (c *PolygonClient) FetchPage(ctx context.Context, req PageRequest) ([]types.Candle, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = MaxPageSize
	}

	span := time.Duration(limit) * req.Interval.Duration()

	for from := req.Start; ; {
		to := from.Add(span)

		last := req.End.IsZero() || !req.End.After(to)
		if !req.End.IsZero() && req.End.Before(to) {
			to = req.End
		}

		candles, err := c.listAggs(ctx, req, from, to, limit)
		if err != nil || len(candles) > 0 || last {
			return candles, err
		}

		from = to
	}
}

func (c *PolygonClient) listAggs(ctx context.Context, req PageRequest, from, to time.Time, limit int) ([]types.Candle, error) {
	multiplier, timespan := req.Interval.PolygonTimespan()

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     c.Ticker(req.Symbol),
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithOrder(models.Asc).WithLimit(limit)

	iter := c.apiClient.ListAggs(ctx, params)

	candles := make([]types.Candle, 0, limit)
	for iter.Next() && len(candles) < limit {
		agg := iter.Item()
		candles = append(candles, types.Candle{
			Time:   time.Time(agg.Timestamp).UTC(),
			Symbol: req.Symbol,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, err
	}

	return candles, nil
}
