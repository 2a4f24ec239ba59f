package provider

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"github.com/stretchr/testify/suite"
)

// mockPolygonAPIClient implements PolygonAPIClient for testing. params is
// the first request, calls every request.
type mockPolygonAPIClient struct {
	iterator PolygonAggsIterator
	params   *models.ListAggsParams
	calls    []*models.ListAggsParams
}

func (m *mockPolygonAPIClient) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	if m.params == nil {
		m.params = params
	}

	m.calls = append(m.calls, params)

	return m.iterator
}

// mockPolygonIterator implements PolygonAggsIterator for testing.
type mockPolygonIterator struct {
	aggs  []models.Agg
	index int
	err   error
}

func (m *mockPolygonIterator) Next() bool {
	if m.index < len(m.aggs) {
		m.index++
		return true
	}
	return false
}

func (m *mockPolygonIterator) Item() models.Agg {
	if m.index > 0 && m.index <= len(m.aggs) {
		return m.aggs[m.index-1]
	}
	return models.Agg{}
}

func (m *mockPolygonIterator) Err() error {
	return m.err
}

type PolygonClientTestSuite struct {
	suite.Suite
	start time.Time
}

func TestPolygonClientSuite(t *testing.T) {
	suite.Run(t, new(PolygonClientTestSuite))
}

func (suite *PolygonClientTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *PolygonClientTestSuite) TestNewPolygonClient_EmptyApiKey() {
	client, err := NewPolygonClient("", "")
	suite.Nil(client)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *PolygonClientTestSuite) TestNewPolygonClient_ValidApiKey() {
	client, err := NewPolygonClient("test-api-key", "")
	suite.NoError(err)
	suite.NotNil(client.apiClient)
	suite.Equal(DefaultPolygonTickerPrefix, client.tickerPrefix)
}

func (suite *PolygonClientTestSuite) TestTicker() {
	client := NewPolygonClientWithAPI(&mockPolygonAPIClient{}, "")

	suite.Equal("X:BTCUSD", client.Ticker("BTCUSDT"))
	suite.Equal("X:ETHUSD", client.Ticker("ethusdt"))
	suite.Equal("X:ETHBTC", client.Ticker("ETHBTC"))
	suite.Equal("X:SOLUSD", client.Ticker("X:SOLUSD"))

	custom := NewPolygonClientWithAPI(&mockPolygonAPIClient{}, "C:")
	suite.Equal("C:BTCUSD", custom.Ticker("BTCUSDT"))
}

func (suite *PolygonClientTestSuite) TestFetchPageBuildsParams() {
	mockAPI := &mockPolygonAPIClient{iterator: &mockPolygonIterator{}}
	client := NewPolygonClientWithAPI(mockAPI, "")

	_, err := client.FetchPage(context.Background(), PageRequest{
		Symbol:   "BTCUSDT",
		Interval: marketdata.IntervalFiveMinutes,
		Start:    suite.start,
		End:      suite.start.Add(30 * 24 * time.Hour),
		Limit:    100,
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(mockAPI.params)

	suite.Equal("X:BTCUSD", mockAPI.params.Ticker)
	suite.Equal(5, mockAPI.params.Multiplier)
	suite.Equal(models.Minute, mockAPI.params.Timespan)
	suite.Equal(suite.start, time.Time(mockAPI.params.From))
	// the window is capped at one page worth of bars
	suite.Equal(suite.start.Add(500*time.Minute), time.Time(mockAPI.params.To))
}

func (suite *PolygonClientTestSuite) TestFetchPageConvertsAggs() {
	iterator := &mockPolygonIterator{
		aggs: []models.Agg{
			{Timestamp: models.Millis(suite.start), Open: 100, High: 105, Low: 99, Close: 104, Volume: 12},
			{Timestamp: models.Millis(suite.start.Add(5 * time.Minute)), Open: 104, High: 111, Low: 103, Close: 110, Volume: 9},
		},
	}
	client := NewPolygonClientWithAPI(&mockPolygonAPIClient{iterator: iterator}, "")

	candles, err := client.FetchPage(context.Background(), PageRequest{
		Symbol:   "BTCUSDT",
		Interval: marketdata.IntervalFiveMinutes,
		Start:    suite.start,
		Limit:    10,
	})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 2)
	suite.Equal("BTCUSDT", candles[0].Symbol)
	suite.Equal(suite.start, candles[0].Time)
	suite.Equal(111.0, candles[1].High)
	suite.Equal(103.0, candles[1].Low)
}

func (suite *PolygonClientTestSuite) TestFetchPageStopsAtLimit() {
	aggs := make([]models.Agg, 5)
	for i := range aggs {
		aggs[i] = models.Agg{Timestamp: models.Millis(suite.start.Add(time.Duration(i) * time.Minute)), High: 1, Low: 1}
	}

	client := NewPolygonClientWithAPI(&mockPolygonAPIClient{iterator: &mockPolygonIterator{aggs: aggs}}, "")

	candles, err := client.FetchPage(context.Background(), PageRequest{
		Symbol:   "BTCUSDT",
		Interval: marketdata.IntervalOneMinute,
		Start:    suite.start,
		Limit:    3,
	})
	suite.NoError(err)
	suite.Len(candles, 3)
}

func (suite *PolygonClientTestSuite) TestFetchPageIteratorError() {
	iterErr := stderrors.New("iterator failed")
	client := NewPolygonClientWithAPI(&mockPolygonAPIClient{iterator: &mockPolygonIterator{err: iterErr}}, "")

	candles, err := client.FetchPage(context.Background(), PageRequest{
		Symbol:   "BTCUSDT",
		Interval: marketdata.IntervalOneMinute,
		Start:    suite.start,
	})
	suite.Nil(candles)
	suite.ErrorIs(err, iterErr)
}

// sequencedPolygonAPIClient hands out one iterator per ListAggs call.
type sequencedPolygonAPIClient struct {
	iterators []PolygonAggsIterator
	calls     int
	params    []*models.ListAggsParams
}

func (m *sequencedPolygonAPIClient) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	iterator := m.iterators[min(m.calls, len(m.iterators)-1)]
	m.calls++
	m.params = append(m.params, params)

	return iterator
}

func (suite *PolygonClientTestSuite) TestFetchPageSkipsEmptyWindows() {
	gapEnd := suite.start.Add(3 * 10 * time.Minute)
	api := &sequencedPolygonAPIClient{
		iterators: []PolygonAggsIterator{
			&mockPolygonIterator{},
			&mockPolygonIterator{},
			&mockPolygonIterator{aggs: []models.Agg{{Timestamp: models.Millis(gapEnd), High: 2, Low: 1}}},
		},
	}
	client := NewPolygonClientWithAPI(api, "")

	candles, err := client.FetchPage(context.Background(), PageRequest{
		Symbol:   "BTCUSDT",
		Interval: marketdata.IntervalOneMinute,
		Start:    suite.start,
		End:      suite.start.Add(24 * time.Hour),
		Limit:    10,
	})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 1)
	suite.Equal(gapEnd, candles[0].Time)

	suite.Require().Len(api.params, 3)
	suite.Equal(suite.start.Add(10*time.Minute), time.Time(api.params[1].From))
	suite.Equal(suite.start.Add(20*time.Minute), time.Time(api.params[2].From))
	suite.Equal(suite.start.Add(30*time.Minute), time.Time(api.params[2].To))
}

func (suite *PolygonClientTestSuite) TestFetchPageEmptyUpToEnd() {
	mockAPI := &mockPolygonAPIClient{iterator: &mockPolygonIterator{}}
	client := NewPolygonClientWithAPI(mockAPI, "")

	candles, err := client.FetchPage(context.Background(), PageRequest{
		Symbol:   "BTCUSDT",
		Interval: marketdata.IntervalOneMinute,
		Start:    suite.start,
		End:      suite.start.Add(25 * time.Minute),
		Limit:    10,
	})
	suite.NoError(err)
	suite.Empty(candles)
	suite.Require().Len(mockAPI.calls, 3)
	suite.Equal(suite.start.Add(25*time.Minute), time.Time(mockAPI.calls[2].To))
}

func (suite *PolygonClientTestSuite) TestGapDoesNotEndPagination() {
	late := suite.start.Add(2 * time.Hour)
	api := &sequencedPolygonAPIClient{
		iterators: []PolygonAggsIterator{
			&mockPolygonIterator{aggs: []models.Agg{{Timestamp: models.Millis(suite.start), High: 2, Low: 1}}},
			&mockPolygonIterator{},
			&mockPolygonIterator{},
			&mockPolygonIterator{aggs: []models.Agg{{Timestamp: models.Millis(late), High: 3, Low: 1}}},
			&mockPolygonIterator{},
		},
	}
	source := NewPaginator(NewPolygonClientWithAPI(api, ""), WithPageSize(60))

	candles, err := source.Fetch(context.Background(), FetchRequest{
		Symbol:   "BTCUSDT",
		Interval: marketdata.IntervalOneMinute,
		Start:    suite.start,
		End:      optionalTime(late.Add(30 * time.Minute)),
	})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 2)
	suite.Equal(late, candles[1].Time)
}

func (suite *PolygonClientTestSuite) TestRateLimitedIteratorIsRetried() {
	api := &sequencedPolygonAPIClient{
		iterators: []PolygonAggsIterator{
			&mockPolygonIterator{err: &models.ErrorResponse{StatusCode: 429}},
			&mockPolygonIterator{aggs: []models.Agg{{Timestamp: models.Millis(suite.start), High: 2, Low: 1}}},
		},
	}
	source := NewPaginator(NewPolygonClientWithAPI(api, ""), WithRetryPolicy(RetryPolicy{MaxAttempts: 2, Delay: 0}))

	candles, err := source.Fetch(context.Background(), FetchRequest{
		Symbol:   "BTCUSDT",
		Interval: marketdata.IntervalOneMinute,
		Start:    suite.start,
		End:      optionalTime(suite.start),
	})
	suite.NoError(err)
	suite.Len(candles, 1)
	suite.Equal(2, api.calls)
}
