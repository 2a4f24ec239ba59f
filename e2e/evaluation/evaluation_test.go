package evaluation_test

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/signal-tracker/e2e/evaluation/mockserver"
	"github.com/rxtech-lab/signal-tracker/internal/evaluator"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/processor"
	"github.com/rxtech-lab/signal-tracker/internal/store/duckdb"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

const (
	flatBars    = 250
	paddingBars = 5
	pageSize    = 100
)

// EvaluationTestSuite runs the full pipeline against a mock Binance server.
type EvaluationTestSuite struct {
	suite.Suite
	ctx      context.Context
	start    time.Time
	server   *mockserver.MockBinanceServer
	store    *duckdb.Store
	signalID int64
}

func TestEvaluationSuite(t *testing.T) {
	suite.Run(t, new(EvaluationTestSuite))
}

func (suite *EvaluationTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.start = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	suite.server = mockserver.NewMockBinanceServer()
	suite.Require().NoError(suite.server.Start(""))

	// flat at 100, one bar reaching the first take-profit, then a few more bars
	candles := make([]types.Candle, 0, flatBars+1+paddingBars)
	for i := range flatBars + 1 + paddingBars {
		high := 101.0
		if i == flatBars {
			high = 111
		}

		candles = append(candles, types.Candle{
			Time:   suite.barTime(i),
			Symbol: "BTCUSDT",
			Open:   100,
			High:   high,
			Low:    99,
			Close:  100,
			Volume: 1,
		})
	}
	suite.server.SetSeries("BTCUSDT", marketdata.IntervalFiveMinutes, candles)

	st, err := duckdb.Open("", logger.NewNop())
	suite.Require().NoError(err)
	suite.Require().NoError(st.Migrate(suite.ctx))
	suite.store = st

	channelID, err := st.SaveChannel(suite.ctx, types.Channel{Username: "e2e", Title: "End to end"})
	suite.Require().NoError(err)

	//nolint:exhaustruct // open signal
	suite.signalID, err = st.SaveSignal(suite.ctx, types.Signal{
		MessageID:   7,
		ChannelID:   channelID,
		Symbol:      "BTCUSDT",
		Direction:   types.DirectionLong,
		EntryPrices: []float64{100},
		StopLoss:    90,
		TakeProfits: []float64{110, 130},
		Leverage:    1,
		SignalTime:  suite.start,
	})
	suite.Require().NoError(err)
}

func (suite *EvaluationTestSuite) TearDownTest() {
	suite.NoError(suite.server.Stop())
	suite.NoError(suite.store.Close())
}

func (suite *EvaluationTestSuite) barTime(i int) time.Time {
	return suite.start.Add(time.Duration(i) * 5 * time.Minute)
}

func (suite *EvaluationTestSuite) newProcessor(maxAttempts int) *processor.Processor {
	now := func() time.Time { return suite.barTime(flatBars + 1 + paddingBars) }

	source, err := provider.NewCandleSource(provider.Config{
		Provider: marketdata.ProviderBinance,
		BaseURL:  suite.server.BaseURL(),
		PageSize: pageSize,
		Retry:    provider.RetryPolicy{MaxAttempts: maxAttempts, Delay: time.Millisecond},
	}, logger.NewNop(), now)
	suite.Require().NoError(err)

	return processor.New(suite.store, source, nil, processor.Config{
		Evaluator: evaluator.Config{
			Interval:       marketdata.IntervalFiveMinutes,
			PostHitPadding: 2,
			Now:            now,
		},
		Concurrency: 2,
	}, logger.NewNop())
}

func (suite *EvaluationTestSuite) TestClosesAfterThrottledPages() {
	suite.server.ThrottleNext(2)

	outcome, err := suite.newProcessor(6).ProcessSignal(suite.ctx, suite.signalID)
	suite.Require().NoError(err)

	suite.Equal(types.OutcomeStatusClosed, outcome.Status())
	suite.Equal(types.ResultSuccess, outcome.Result.Unwrap())
	suite.Equal(suite.barTime(flatBars), outcome.CloseTime.Unwrap())
	suite.InDelta(10.0, outcome.PnL.Unwrap(), 1e-9)
	suite.Len(outcome.Candles, flatBars+1+2)

	requests := suite.server.Requests()
	suite.Require().Len(requests, 5)

	throttled := 0
	for _, req := range requests {
		suite.Equal("BTCUSDT", req.Symbol)
		suite.Equal("5m", req.Interval)
		suite.Equal(pageSize, req.Limit)

		if req.Throttled {
			throttled++
		}
	}
	suite.Equal(2, throttled)

	// each page starts one bar after the last bar of the previous page
	suite.Equal(suite.start, requests[2].StartTime)
	suite.Equal(suite.barTime(pageSize), requests[3].StartTime)
	suite.Equal(suite.barTime(2*pageSize), requests[4].StartTime)

	stored, err := suite.store.GetSignal(suite.ctx, suite.signalID)
	suite.Require().NoError(err)
	suite.True(stored.IsClosed())
	suite.Equal(types.ResultSuccess, stored.Result.Unwrap())

	candles, err := suite.store.GetCandles(suite.ctx, "BTCUSDT", marketdata.IntervalFiveMinutes, suite.start, suite.barTime(flatBars+paddingBars))
	suite.Require().NoError(err)
	suite.Len(candles, flatBars+1+2)
}

func (suite *EvaluationTestSuite) TestSecondRunIsServedFromStore() {
	proc := suite.newProcessor(6)

	_, err := proc.ProcessSignal(suite.ctx, suite.signalID)
	suite.Require().NoError(err)

	requests := len(suite.server.Requests())

	outcome, err := proc.ProcessSignal(suite.ctx, suite.signalID)
	suite.Require().NoError(err)
	suite.True(outcome.Cached)
	suite.Len(suite.server.Requests(), requests)
}

func (suite *EvaluationTestSuite) TestGivesUpWhenThrottlingPersists() {
	suite.server.ThrottleNext(10)

	outcome, err := suite.newProcessor(3).ProcessSignal(suite.ctx, suite.signalID)
	suite.Require().Error(err)
	suite.True(errors.FindCode(err, errors.ErrCodeRateLimited))
	suite.True(outcome.CloseTime.IsNone())

	suite.Len(suite.server.Requests(), 3)

	stored, err := suite.store.GetSignal(suite.ctx, suite.signalID)
	suite.Require().NoError(err)
	suite.False(stored.IsClosed())
}

func (suite *EvaluationTestSuite) TestBatchClosesOpenSignals() {
	suite.server.ThrottleNext(1)

	report, err := suite.newProcessor(6).ProcessOpenSignals(suite.ctx, 0, nil)
	suite.Require().NoError(err)
	suite.Equal(1, report.Total)
	suite.Equal(1, report.Closed)
	suite.Zero(report.Failed)

	open, err := suite.store.ListOpenSignals(suite.ctx, 0)
	suite.Require().NoError(err)
	suite.Empty(open)
}
