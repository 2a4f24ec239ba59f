package provider

import (
	"context"
	"iter"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"go.uber.org/zap"
)

// Paginator turns a PageSource into a CandleSource. It walks the window
// forward one page at a time, retries rate limited pages and trims bars
// that fall outside the window.
type Paginator struct {
	source   PageSource
	retry    RetryPolicy
	pageSize int
	now      func() time.Time
	logger   *logger.Logger
}

// Option configures a Paginator.
type Option func(*Paginator)

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Paginator) {
		p.retry = policy
	}
}

// WithPageSize sets how many bars are requested per page.
func WithPageSize(size int) Option {
	return func(p *Paginator) {
		if size > 0 {
			p.pageSize = size
		}
	}
}

// WithClock sets the clock used when a request has no end time.
func WithClock(now func() time.Time) Option {
	return func(p *Paginator) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger used for retry and progress messages.
func WithLogger(l *logger.Logger) Option {
	return func(p *Paginator) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPaginator wraps source.
func NewPaginator(source PageSource, opts ...Option) *Paginator {
	p := &Paginator{
		source:   source,
		retry:    DefaultRetryPolicy(),
		pageSize: MaxPageSize,
		now:      time.Now,
		logger:   logger.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// FetchPage passes a single request through to the wrapped source.
func (p *Paginator) FetchPage(ctx context.Context, req PageRequest) ([]types.Candle, error) {
	return p.source.FetchPage(ctx, req)
}

// Fetch collects all pages of the window.
func (p *Paginator) Fetch(ctx context.Context, req FetchRequest) ([]types.Candle, error) {
	var candles []types.Candle

	for page, err := range p.Pages(ctx, req) {
		if err != nil {
			return candles, err
		}

		candles = append(candles, page...)
	}

	return candles, nil
}

// Pages yields the window page by page. Cancellation of ctx is observed
// between pages; a page that has been requested is always completed.
func (p *Paginator) Pages(ctx context.Context, req FetchRequest) iter.Seq2[[]types.Candle, error] {
	return func(yield func([]types.Candle, error) bool) {
		if err := req.Validate(); err != nil {
			yield(nil, err)

			return
		}

		step := req.Interval.Duration()
		cursor := req.Start.UTC()
		end := req.End.TakeOr(p.now()).UTC()

		if cursor.After(end) {
			return
		}

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "candle fetch cancelled", err))

				return
			}

			//nolint:exhaustruct // all fields set
			pageReq := PageRequest{
				Symbol:   req.Symbol,
				Interval: req.Interval,
				Start:    cursor,
				End:      end,
				Limit:    p.pageSize,
			}

			page, err := p.fetchWithRetry(ctx, pageReq)
			if err != nil {
				yield(nil, err)

				return
			}

			if len(page) == 0 {
				return
			}

			kept := inWindow(page, cursor, end)

			next := page[len(page)-1].Time.UTC().Add(step)
			if !next.After(cursor) {
				// upstream answered with bars from before the cursor only
				next = cursor.Add(step)
			}

			p.logger.Debug("fetched candle page",
				zap.String("symbol", req.Symbol),
				zap.String("interval", req.Interval.String()),
				zap.Time("cursor", cursor),
				zap.Int("received", len(page)),
				zap.Int("kept", len(kept)),
			)

			if len(kept) > 0 && !yield(kept, nil) {
				return
			}

			cursor = next
			if !cursor.Before(end) {
				return
			}
		}
	}
}

// fetchWithRetry requests one page. The upstream call itself runs detached
// from ctx so it is never torn; waiting between attempts honours ctx.
func (p *Paginator) fetchWithRetry(ctx context.Context, req PageRequest) ([]types.Candle, error) {
	pageCtx := context.WithoutCancel(ctx)

	var page []types.Candle

	operation := func() error {
		var err error

		page, err = p.source.FetchPage(pageCtx, req)
		if err != nil && !IsRateLimited(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, wait time.Duration) {
		p.logger.Warn("rate limited, retrying page",
			zap.String("symbol", req.Symbol),
			zap.Time("cursor", req.Start),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(operation, p.retry.backOff(ctx), notify)
	if err == nil {
		return page, nil
	}

	if IsRateLimited(err) {
		return nil, errors.Wrapf(errors.ErrCodeRateLimited, err, "rate limited fetching %s after %d attempts", req.Symbol, max(p.retry.MaxAttempts, 1))
	}

	return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s %s candles from %s", req.Symbol, req.Interval, req.Start.Format(time.RFC3339))
}

// inWindow keeps bars with start <= time <= end, sorted by the upstream.
func inWindow(page []types.Candle, start, end time.Time) []types.Candle {
	kept := make([]types.Candle, 0, len(page))

	for _, candle := range page {
		candle.Time = candle.Time.UTC()
		if candle.Time.Before(start) || candle.Time.After(end) {
			continue
		}

		kept = append(kept, candle)
	}

	return kept
}
