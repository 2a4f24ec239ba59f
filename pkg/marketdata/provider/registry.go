package provider

import (
	"time"

	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
)

// Config selects and configures the upstream candle provider.
type Config struct {
	Provider            marketdata.ProviderType
	BaseURL             string
	PageSize            int
	PolygonAPIKey       string
	PolygonTickerPrefix string
	Retry               RetryPolicy
}

// NewCandleSource creates a paginated candle source for the configured provider.
func NewCandleSource(cfg Config, log *logger.Logger, now func() time.Time) (CandleSource, error) {
	info, err := marketdata.GetProviderInfo(string(cfg.Provider))
	if err != nil {
		return nil, err
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > info.MaxPageSize {
		pageSize = min(MaxPageSize, info.MaxPageSize)
	}

	var source PageSource

	switch cfg.Provider {
	case marketdata.ProviderBinance:
		source = NewBinanceClient(cfg.BaseURL)
	case marketdata.ProviderPolygon:
		source, err = NewPolygonClient(cfg.PolygonAPIKey, cfg.PolygonTickerPrefix)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", cfg.Provider)
	}

	return NewPaginator(source,
		WithPageSize(pageSize),
		WithRetryPolicy(cfg.Retry),
		WithClock(now),
		WithLogger(log),
	), nil
}
