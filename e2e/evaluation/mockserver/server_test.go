package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"github.com/stretchr/testify/suite"
)

type MockServerTestSuite struct {
	suite.Suite
	server *MockBinanceServer
	start  time.Time
}

func TestMockServerSuite(t *testing.T) {
	suite.Run(t, new(MockServerTestSuite))
}

func (suite *MockServerTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.server = NewMockBinanceServer()
	suite.Require().NoError(suite.server.Start(""))

	candles := make([]types.Candle, 10)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = types.Candle{
			Time:   suite.start.Add(time.Duration(i) * 5 * time.Minute),
			Symbol: "BTCUSDT",
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price + 0.5,
			Volume: 10,
		}
	}
	suite.server.SetSeries("BTCUSDT", marketdata.IntervalFiveMinutes, candles)
}

func (suite *MockServerTestSuite) TearDownTest() {
	suite.NoError(suite.server.Stop())
}

func (suite *MockServerTestSuite) get(query string) (int, []byte) {
	res, err := http.Get(suite.server.BaseURL() + "/api/v3/klines?" + query)
	suite.Require().NoError(err)
	defer res.Body.Close()

	var body json.RawMessage
	suite.Require().NoError(json.NewDecoder(res.Body).Decode(&body))

	return res.StatusCode, body
}

func (suite *MockServerTestSuite) TestKlinesWindowAndLimit() {
	from := suite.start.Add(10 * time.Minute).UnixMilli()
	to := suite.start.Add(30 * time.Minute).UnixMilli()

	status, body := suite.get(fmt.Sprintf("symbol=BTCUSDT&interval=5m&startTime=%d&endTime=%d&limit=3", from, to))
	suite.Equal(http.StatusOK, status)

	var klines [][]any
	suite.Require().NoError(json.Unmarshal(body, &klines))
	suite.Require().Len(klines, 3)
	suite.InDelta(float64(from), klines[0][0], 0)
	suite.Equal("102.00000000", klines[0][1])

	requests := suite.server.Requests()
	suite.Require().Len(requests, 1)
	suite.Equal(3, requests[0].Limit)
	suite.False(requests[0].Throttled)
}

func (suite *MockServerTestSuite) TestKlinesUnknownSymbolIsEmpty() {
	status, body := suite.get("symbol=ETHUSDT&interval=5m")
	suite.Equal(http.StatusOK, status)
	suite.JSONEq("[]", string(body))
}

func (suite *MockServerTestSuite) TestThrottle() {
	suite.server.ThrottleNext(1)

	status, body := suite.get("symbol=BTCUSDT&interval=5m")
	suite.Equal(http.StatusTooManyRequests, status)
	suite.Contains(string(body), "-1003")

	status, _ = suite.get("symbol=BTCUSDT&interval=5m")
	suite.Equal(http.StatusOK, status)
}

func (suite *MockServerTestSuite) TestBadRequests() {
	tests := []struct {
		name  string
		query string
	}{
		{name: "missing symbol", query: "interval=5m"},
		{name: "invalid interval", query: "symbol=BTCUSDT&interval=7m"},
		{name: "illegal start", query: "symbol=BTCUSDT&interval=5m&startTime=yesterday"},
		{name: "illegal limit", query: "symbol=BTCUSDT&interval=5m&limit=0"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			status, _ := suite.get(tt.query)
			suite.Equal(http.StatusBadRequest, status)
		})
	}
}

func (suite *MockServerTestSuite) TestUnknownEndpoint() {
	res, err := http.Get(suite.server.BaseURL() + "/api/v3/order")
	suite.Require().NoError(err)
	defer res.Body.Close()

	suite.Equal(http.StatusNotFound, res.StatusCode)
}
