package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
)

// BinanceKlinesService is the subset of the klines request builder we use.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient creates klines requests.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceClientWrapper struct {
	client *binance.Client
}

func (w *binanceClientWrapper) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesServiceWrapper{service: w.client.NewKlinesService()}
}

type binanceKlinesServiceWrapper struct {
	service *binance.KlinesService
}

func (w *binanceKlinesServiceWrapper) Symbol(symbol string) BinanceKlinesService {
	w.service = w.service.Symbol(symbol)

	return w
}

func (w *binanceKlinesServiceWrapper) Interval(interval string) BinanceKlinesService {
	w.service = w.service.Interval(interval)

	return w
}

func (w *binanceKlinesServiceWrapper) StartTime(startTime int64) BinanceKlinesService {
	w.service = w.service.StartTime(startTime)

	return w
}

func (w *binanceKlinesServiceWrapper) EndTime(endTime int64) BinanceKlinesService {
	w.service = w.service.EndTime(endTime)

	return w
}

func (w *binanceKlinesServiceWrapper) Limit(limit int) BinanceKlinesService {
	w.service = w.service.Limit(limit)

	return w
}

func (w *binanceKlinesServiceWrapper) Do(ctx context.Context) ([]*binance.Kline, error) {
	return w.service.Do(ctx)
}

// BinanceClient reads spot klines from Binance. The public market data
// endpoints need no credentials.
type BinanceClient struct {
	apiClient BinanceAPIClient
}

// NewBinanceClient creates a client against baseURL, or the production
// endpoint when baseURL is empty.
func NewBinanceClient(baseURL string) *BinanceClient {
	client := binance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = baseURL
	}

	return &BinanceClient{
		apiClient: &binanceClientWrapper{client: client},
	}
}

// NewBinanceClientWithAPI creates a client around a custom API implementation.
func NewBinanceClientWithAPI(api BinanceAPIClient) *BinanceClient {
	return &BinanceClient{
		apiClient: api,
	}
}

// FetchPage requests one page of klines opening in [req.Start, req.End].
func (c *BinanceClient) FetchPage(ctx context.Context, req PageRequest) ([]types.Candle, error) {
	limit := req.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	service := c.apiClient.NewKlinesService().
		Symbol(req.Symbol).
		Interval(req.Interval.String()).
		StartTime(req.Start.UnixMilli()).
		Limit(limit)

	if !req.End.IsZero() {
		service = service.EndTime(req.End.UnixMilli())
	}

	klines, err := service.Do(ctx)
	if err != nil {
		return nil, err
	}

	return processKlines(req.Symbol, klines)
}

// processKlines converts Binance kline data to candles. Only the first six
// kline fields are read.
func processKlines(symbol string, klines []*binance.Kline) ([]types.Candle, error) {
	candles := make([]types.Candle, 0, len(klines))

	for _, k := range klines {
		values := [5]float64{}

		for i, raw := range [5]string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q at %d", raw, k.OpenTime)
			}

			values[i] = value
		}

		candles = append(candles, types.Candle{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Symbol: symbol,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return candles, nil
}
