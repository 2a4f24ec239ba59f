package provider

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/cenkalti/backoff/v4"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
)

const (
	binanceTooManyRequests int64 = -1003
	binanceTooManyOrders   int64 = -1015
	httpTooManyRequests          = 429
)

// RetryPolicy bounds how often a rate limited page is requested again.
type RetryPolicy struct {
	// MaxAttempts counts the first request. Values below 1 mean a single attempt.
	MaxAttempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
}

// DefaultRetryPolicy waits ten seconds between attempts, like the upstream
// rate limit window.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 6,
		Delay:       10 * time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}

	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(retries)), ctx)
}

// IsRateLimited reports whether err signals that the upstream throttled us.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	if errors.FindCode(err, errors.ErrCodeRateLimited) {
		return true
	}

	var apiErr *common.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == binanceTooManyRequests || apiErr.Code == binanceTooManyOrders
	}

	var polygonErr *models.ErrorResponse
	if stderrors.As(err, &polygonErr) {
		return polygonErr.StatusCode == httpTooManyRequests
	}

	return false
}
