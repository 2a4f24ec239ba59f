package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/marker"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/mocks"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ServerTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	processor *mocks.MockSignalProcessor
	server    *Server
	now       time.Time
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.store = mocks.NewMockStore(suite.ctrl)
	suite.processor = mocks.NewMockSignalProcessor(suite.ctrl)
	suite.now = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	suite.server = NewServer(suite.store, suite.processor, Config{
		Interval: marketdata.IntervalFiveMinutes,
		Now:      func() time.Time { return suite.now },
	}, logger.NewNop())
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *ServerTestSuite) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	suite.server.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	return rec
}

func (suite *ServerTestSuite) decode(rec *httptest.ResponseRecorder, v any) {
	suite.Equal("application/json", rec.Header().Get("Content-Type"))
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v))
}

func (suite *ServerTestSuite) signal() types.Signal {
	return types.Signal{
		ID:          3,
		ChannelID:   1,
		Symbol:      "BTCUSDT",
		Direction:   types.DirectionLong,
		EntryPrices: []float64{100},
		StopLoss:    90,
		TakeProfits: []float64{110},
		Leverage:    10,
		SignalTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *ServerTestSuite) TestListChannels() {
	suite.store.EXPECT().ListChannels(gomock.Any()).Return([]types.Channel{
		{ID: 2, Username: "beta", Title: "Beta", Rate: optional.Some(55.5)},
		{ID: 1, Username: "alpha", Title: "Alpha"},
	}, nil)

	rec := suite.do(http.MethodGet, "/api/v1/channels")
	suite.Equal(http.StatusOK, rec.Code)

	var body []map[string]any
	suite.decode(rec, &body)
	suite.Require().Len(body, 2)
	suite.Equal(55.5, body[0]["rate"])
	suite.Nil(body[1]["rate"])
}

func (suite *ServerTestSuite) TestListChannelsEmptyIsArray() {
	suite.store.EXPECT().ListChannels(gomock.Any()).Return(nil, nil)

	rec := suite.do(http.MethodGet, "/api/v1/channels")
	suite.Equal(http.StatusOK, rec.Code)
	suite.JSONEq(`[]`, rec.Body.String())
}

func (suite *ServerTestSuite) TestListSignalsUsesLimit() {
	suite.store.EXPECT().ListSignalsByChannel(gomock.Any(), int64(1), 0).Return([]types.Signal{suite.signal()}, nil)
	suite.store.EXPECT().ListSignalsByChannel(gomock.Any(), int64(1), 20).Return(nil, nil)

	rec := suite.do(http.MethodGet, "/api/v1/channels/1/signals")
	suite.Equal(http.StatusOK, rec.Code)

	var signals []types.Signal
	suite.decode(rec, &signals)
	suite.Require().Len(signals, 1)
	suite.Equal(int64(3), signals[0].ID)

	rec = suite.do(http.MethodGet, "/api/v1/channels/1/signals?limit=20")
	suite.Equal(http.StatusOK, rec.Code)
	suite.JSONEq(`[]`, rec.Body.String())

	rec = suite.do(http.MethodGet, "/api/v1/channels/1/signals?limit=abc")
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *ServerTestSuite) TestChannelStats() {
	suite.store.EXPECT().ChannelStats(gomock.Any(), int64(1)).Return(types.NewChannelStats(1, 2, 1, 4), nil)

	rec := suite.do(http.MethodGet, "/api/v1/channels/1/stats")
	suite.Equal(http.StatusOK, rec.Code)

	var stats types.ChannelStats
	suite.decode(rec, &stats)
	suite.Equal(66.67, stats.SuccessRate)
	suite.Equal(4, stats.Open)
}

func (suite *ServerTestSuite) TestUpdateRates() {
	gomock.InOrder(
		suite.store.EXPECT().UpdateChannelRates(gomock.Any()).Return(nil),
		suite.store.EXPECT().ListChannels(gomock.Any()).Return([]types.Channel{{ID: 1, Username: "alpha", Rate: optional.Some(50.0)}}, nil),
	)

	rec := suite.do(http.MethodPost, "/api/v1/channels/rates")
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *ServerTestSuite) TestGetSignalNotFound() {
	suite.store.EXPECT().GetSignal(gomock.Any(), int64(99)).
		Return(types.Signal{}, errors.New(errors.ErrCodeSignalNotFound, "signal 99 not found"))

	rec := suite.do(http.MethodGet, "/api/v1/signals/99")
	suite.Equal(http.StatusNotFound, rec.Code)

	var body errorBody
	suite.decode(rec, &body)
	suite.Equal(int(errors.ErrCodeSignalNotFound), body.Error.Code)
	suite.Contains(body.Error.Message, "signal 99 not found")
}

func (suite *ServerTestSuite) TestEvaluate() {
	closeTime := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	suite.processor.EXPECT().ProcessSignal(gomock.Any(), int64(3)).Return(types.Outcome{
		SignalID:  3,
		CloseTime: optional.Some(closeTime),
		Result:    optional.Some(types.ResultSuccess),
		PnL:       optional.Some(100.0),
	}, nil)

	rec := suite.do(http.MethodPost, "/api/v1/signals/3/evaluate")
	suite.Equal(http.StatusOK, rec.Code)

	var body struct {
		Status  string         `json:"status"`
		Outcome map[string]any `json:"outcome"`
	}
	suite.decode(rec, &body)
	suite.Equal("closed", body.Status)
	suite.Equal("success", body.Outcome["result"])
	suite.Equal(100.0, body.Outcome["pnl"])
	suite.Equal("2024-01-01T01:00:00Z", body.Outcome["close_time"])
}

func (suite *ServerTestSuite) TestEvaluateErrorsMapToStatus() {
	tests := []struct {
		err    error
		status int
	}{
		{errors.New(errors.ErrCodeRateLimited, "rate limited"), http.StatusServiceUnavailable},
		{errors.New(errors.ErrCodeMarketDataFetchFailed, "fetch failed"), http.StatusBadGateway},
		{errors.New(errors.ErrCodeMalformedSignal, "no take-profit"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeSignalAlreadyClosed, "closed"), http.StatusConflict},
		{errors.New(errors.ErrCodeWriteFailed, "disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		suite.processor.EXPECT().ProcessSignal(gomock.Any(), int64(3)).Return(types.Outcome{SignalID: 3}, tt.err)

		rec := suite.do(http.MethodPost, "/api/v1/signals/3/evaluate")
		suite.Equal(tt.status, rec.Code, tt.err.Error())
	}
}

func (suite *ServerTestSuite) TestChart() {
	sig := suite.signal()
	candles := []types.Candle{{Time: sig.SignalTime, Symbol: sig.Symbol, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1}}

	suite.store.EXPECT().GetSignal(gomock.Any(), int64(3)).Return(sig, nil)
	suite.store.EXPECT().GetCandles(gomock.Any(), "BTCUSDT", marketdata.IntervalOneHour, sig.SignalTime, suite.now).Return(candles, nil)

	rec := suite.do(http.MethodGet, "/api/v1/signals/3/chart?interval=1h")
	suite.Equal(http.StatusOK, rec.Code)

	var chart marker.Chart
	suite.decode(rec, &chart)
	suite.Len(chart.Candles, 1)
	suite.Len(chart.Marks, len(marker.Marks(sig, types.OutcomeFromSignal(sig))))
}

func (suite *ServerTestSuite) TestChartRejectsInterval() {
	rec := suite.do(http.MethodGet, "/api/v1/signals/3/chart?interval=7m")
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *ServerTestSuite) TestUnknownRoute() {
	rec := suite.do(http.MethodGet, "/api/v1/nothing")
	suite.Equal(http.StatusNotFound, rec.Code)

	rec = suite.do(http.MethodGet, "/api/v1/signals/abc")
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *ServerTestSuite) TestServeShutsDownOnCancel() {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	suite.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- suite.server.Serve(ctx, listener)
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/api/v1/health")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("server did not stop")
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(context.Canceled))
	assert.Equal(t, http.StatusNotFound, statusFor(errors.New(errors.ErrCodeChannelNotFound, "x")))
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.New(errors.ErrCodeInvalidInterval, "x")))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(errors.New(errors.ErrCodeDataSourceUnavailable, "x")))
}
