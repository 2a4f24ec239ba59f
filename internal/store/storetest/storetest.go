// Package storetest holds the behaviour every store.Store backend must
// share, as a testify suite the backend packages run against their own
// database.
package storetest

import (
	"context"
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/internal/store"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"github.com/stretchr/testify/suite"
)

// Suite runs the store contract. Open must return an empty store; the suite
// migrates it.
type Suite struct {
	suite.Suite

	Open  func() store.Store
	Store store.Store
	ctx   context.Context
	base  time.Time
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Store = s.Open()
	s.Require().NoError(s.Store.Migrate(s.ctx))
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		s.NoError(s.Store.Close())
	}
}

func (s *Suite) candles(symbol string, from, count int) []types.Candle {
	candles := make([]types.Candle, 0, count)
	for i := from; i < from+count; i++ {
		price := 100 + float64(i)
		candles = append(candles, types.Candle{
			Time:   s.base.Add(time.Duration(i) * 5 * time.Minute),
			Symbol: symbol,
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price + 0.5,
			Volume: 10,
		})
	}

	return candles
}

func (s *Suite) channel(username string) int64 {
	id, err := s.Store.SaveChannel(s.ctx, types.Channel{Username: username, Title: "Title of " + username})
	s.Require().NoError(err)

	return id
}

// signal builds an open signal; the message id follows the offset so signals
// of one channel never share it.
func (s *Suite) signal(channelID int64, offset time.Duration) types.Signal {
	return types.Signal{
		MessageID:   1000 + int64(offset/time.Minute),
		ChannelID:   channelID,
		Symbol:      "BTCUSDT",
		Direction:   types.DirectionLong,
		EntryPrices: []float64{100, 99.5},
		StopLoss:    90,
		TakeProfits: []float64{110, 120},
		Leverage:    10,
		MarginMode:  "cross",
		SignalTime:  s.base.Add(offset),
		CreatedAt:   s.base.Add(offset + time.Minute),
		CloseTime:   optional.None[time.Time](),
		Result:      optional.None[types.Result](),
		PnL:         optional.None[float64](),
	}
}

func (s *Suite) saveSignal(sig types.Signal) int64 {
	id, err := s.Store.SaveSignal(s.ctx, sig)
	s.Require().NoError(err)

	return id
}

func (s *Suite) TestSaveCandlesIsIdempotent() {
	first := s.candles("BTCUSDT", 0, 10)
	overlap := s.candles("BTCUSDT", 5, 10)

	s.Require().NoError(s.Store.SaveCandles(s.ctx, first, marketdata.IntervalFiveMinutes))
	s.Require().NoError(s.Store.SaveCandles(s.ctx, first, marketdata.IntervalFiveMinutes))
	s.Require().NoError(s.Store.SaveCandles(s.ctx, overlap, marketdata.IntervalFiveMinutes))

	got, err := s.Store.GetCandles(s.ctx, "BTCUSDT", marketdata.IntervalFiveMinutes, s.base, s.base.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(got, 15)

	for i, c := range got {
		s.True(c.Time.Equal(s.base.Add(time.Duration(i)*5*time.Minute)), "candle %d out of order", i)
		s.Equal(100+float64(i), c.Open)
	}
}

func (s *Suite) TestSaveCandlesDropsRepeatsWithinOneCall() {
	series := s.candles("BTCUSDT", 0, 3)
	repeated := append(slices.Clone(series), series[1], series[0])
	repeated[3].Close = 999

	s.Require().NoError(s.Store.SaveCandles(s.ctx, repeated, marketdata.IntervalFiveMinutes))

	got, err := s.Store.GetCandles(s.ctx, "BTCUSDT", marketdata.IntervalFiveMinutes, s.base, s.base.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(series[1].Close, got[1].Close)
}

func (s *Suite) TestSaveCandlesEmpty() {
	s.NoError(s.Store.SaveCandles(s.ctx, nil, marketdata.IntervalFiveMinutes))
}

func (s *Suite) TestSaveCandlesManyChunks() {
	series := s.candles("ETHUSDT", 0, store.CandleBatchSize*2+7)
	s.Require().NoError(s.Store.SaveCandles(s.ctx, series, marketdata.IntervalFiveMinutes))

	got, err := s.Store.GetCandles(s.ctx, "ETHUSDT", marketdata.IntervalFiveMinutes, s.base, s.base.Add(365*24*time.Hour))
	s.Require().NoError(err)
	s.Len(got, len(series))
}

func (s *Suite) TestCandlesAreKeyedByInterval() {
	series := s.candles("BTCUSDT", 0, 3)
	s.Require().NoError(s.Store.SaveCandles(s.ctx, series, marketdata.IntervalFiveMinutes))
	s.Require().NoError(s.Store.SaveCandles(s.ctx, series, marketdata.IntervalOneHour))

	fiveMinute, err := s.Store.GetCandles(s.ctx, "BTCUSDT", marketdata.IntervalFiveMinutes, s.base, s.base.Add(time.Hour))
	s.Require().NoError(err)
	s.Len(fiveMinute, 3)

	hourly, err := s.Store.GetCandles(s.ctx, "BTCUSDT", marketdata.IntervalOneHour, s.base, s.base.Add(time.Hour))
	s.Require().NoError(err)
	s.Len(hourly, 3)

	other, err := s.Store.GetCandles(s.ctx, "ETHUSDT", marketdata.IntervalFiveMinutes, s.base, s.base.Add(time.Hour))
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *Suite) TestGetCandlesWindowIsInclusive() {
	s.Require().NoError(s.Store.SaveCandles(s.ctx, s.candles("BTCUSDT", 0, 10), marketdata.IntervalFiveMinutes))

	got, err := s.Store.GetCandles(s.ctx, "BTCUSDT", marketdata.IntervalFiveMinutes,
		s.base.Add(10*time.Minute), s.base.Add(20*time.Minute))
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.True(got[0].Time.Equal(s.base.Add(10 * time.Minute)))
	s.True(got[2].Time.Equal(s.base.Add(20 * time.Minute)))
}

func (s *Suite) TestSaveAndGetSignal() {
	channelID := s.channel("alpha")
	want := s.signal(channelID, 0)
	id := s.saveSignal(want)

	got, err := s.Store.GetSignal(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, got.ID)
	s.Equal(want.MessageID, got.MessageID)
	s.Equal(channelID, got.ChannelID)
	s.Equal(want.Symbol, got.Symbol)
	s.Equal(types.DirectionLong, got.Direction)
	s.Equal(want.EntryPrices, got.EntryPrices)
	s.Equal(want.StopLoss, got.StopLoss)
	s.Equal(want.TakeProfits, got.TakeProfits)
	s.Equal(want.Leverage, got.Leverage)
	s.Equal(want.MarginMode, got.MarginMode)
	s.True(want.SignalTime.Equal(got.SignalTime))
	s.Equal(time.UTC, got.SignalTime.Location())
	s.True(want.CreatedAt.Equal(got.CreatedAt))
	s.False(got.IsClosed())
	s.True(got.Result.IsNone())
	s.True(got.PnL.IsNone())
}

func (s *Suite) TestSaveSignalRejectsMalformed() {
	sig := s.signal(s.channel("alpha"), 0)
	sig.EntryPrices = nil

	_, err := s.Store.SaveSignal(s.ctx, sig)
	s.True(errors.HasCode(err, errors.ErrCodeMalformedSignal))
}

func (s *Suite) TestGetSignalNotFound() {
	_, err := s.Store.GetSignal(s.ctx, 9999)
	s.True(errors.HasCode(err, errors.ErrCodeSignalNotFound))
}

func (s *Suite) TestCloseSignal() {
	id := s.saveSignal(s.signal(s.channel("alpha"), 0))
	closeTime := s.base.Add(2 * time.Hour)

	s.Require().NoError(s.Store.CloseSignal(s.ctx, id, closeTime, types.ResultSuccess, 100))

	got, err := s.Store.GetSignal(s.ctx, id)
	s.Require().NoError(err)
	s.True(got.IsClosed())
	s.True(closeTime.Equal(got.CloseTime.Unwrap()))
	s.Equal(types.ResultSuccess, got.Result.Unwrap())
	s.Equal(100.0, got.PnL.Unwrap())

	// the same outcome again is a no-op
	s.NoError(s.Store.CloseSignal(s.ctx, id, closeTime, types.ResultSuccess, 100))

	err = s.Store.CloseSignal(s.ctx, id, closeTime.Add(time.Hour), types.ResultFail, -100)
	s.True(errors.HasCode(err, errors.ErrCodeSignalAlreadyClosed))

	got, err = s.Store.GetSignal(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(types.ResultSuccess, got.Result.Unwrap())
}

func (s *Suite) TestCloseSignalErrors() {
	err := s.Store.CloseSignal(s.ctx, 9999, s.base, types.ResultFail, -10)
	s.True(errors.HasCode(err, errors.ErrCodeSignalNotFound))

	id := s.saveSignal(s.signal(s.channel("alpha"), 0))

	err = s.Store.CloseSignal(s.ctx, id, s.base, "draw", 0)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidOutcome))

	err = s.Store.CloseSignal(s.ctx, id, time.Time{}, types.ResultFail, -10)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (s *Suite) TestListOpenSignals() {
	channelID := s.channel("alpha")
	late := s.saveSignal(s.signal(channelID, 3*time.Hour))
	early := s.saveSignal(s.signal(channelID, time.Hour))
	closed := s.saveSignal(s.signal(channelID, 2*time.Hour))
	s.Require().NoError(s.Store.CloseSignal(s.ctx, closed, s.base.Add(5*time.Hour), types.ResultFail, -100))

	open, err := s.Store.ListOpenSignals(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(open, 2)
	s.Equal(early, open[0].ID)
	s.Equal(late, open[1].ID)

	limited, err := s.Store.ListOpenSignals(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal(early, limited[0].ID)
}

func (s *Suite) TestListSignalsByChannel() {
	alpha := s.channel("alpha")
	beta := s.channel("beta")

	var ids []int64
	for i := range 7 {
		ids = append(ids, s.saveSignal(s.signal(alpha, time.Duration(i)*time.Hour)))
	}

	s.saveSignal(s.signal(beta, 0))

	got, err := s.Store.ListSignalsByChannel(s.ctx, alpha, 0)
	s.Require().NoError(err)
	s.Require().Len(got, store.DefaultSignalListLimit)
	s.Equal(ids[6], got[0].ID)
	s.Equal(ids[2], got[4].ID)

	got, err = s.Store.ListSignalsByChannel(s.ctx, alpha, 100)
	s.Require().NoError(err)
	s.Len(got, 7)

	_, err = s.Store.ListSignalsByChannel(s.ctx, 9999, 5)
	s.True(errors.HasCode(err, errors.ErrCodeChannelNotFound))
}

func (s *Suite) TestSaveChannelUpsertsByUsername() {
	id := s.channel("alpha")

	again, err := s.Store.SaveChannel(s.ctx, types.Channel{Username: "alpha", Title: "Renamed"})
	s.Require().NoError(err)
	s.Equal(id, again)

	_, err = s.Store.SaveChannel(s.ctx, types.Channel{Title: "nameless"})
	s.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	channels, err := s.Store.ListChannels(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(channels, 1)
	s.Equal("Renamed", channels[0].Title)
	s.True(channels[0].Rate.IsNone())
}

func (s *Suite) TestReimportKeepsChannelAndSignalIDs() {
	channelID := s.channel("alpha")
	sig := s.signal(channelID, 0)
	signalID := s.saveSignal(sig)
	s.Require().NoError(s.Store.CloseSignal(s.ctx, signalID, s.base.Add(time.Hour), types.ResultSuccess, 100))

	again, err := s.Store.SaveChannel(s.ctx, types.Channel{Username: "alpha", Title: "Alpha again"})
	s.Require().NoError(err)
	s.Require().Equal(channelID, again)

	sig.StopLoss = 91
	s.Equal(signalID, s.saveSignal(sig))

	signals, err := s.Store.ListSignalsByChannel(s.ctx, channelID, 100)
	s.Require().NoError(err)
	s.Require().Len(signals, 1)
	s.Equal(91.0, signals[0].StopLoss)
	s.True(signals[0].IsClosed(), "re-import must not reopen a closed signal")
	s.Equal(types.ResultSuccess, signals[0].Result.Unwrap())

	open, err := s.Store.ListOpenSignals(s.ctx, 0)
	s.Require().NoError(err)
	s.Empty(open)
}

func (s *Suite) TestSignalsWithoutMessageIDAreNotMerged() {
	channelID := s.channel("alpha")

	first := s.signal(channelID, 0)
	first.MessageID = 0
	second := s.signal(channelID, time.Hour)
	second.MessageID = 0

	s.NotEqual(s.saveSignal(first), s.saveSignal(second))

	signals, err := s.Store.ListSignalsByChannel(s.ctx, channelID, 100)
	s.Require().NoError(err)
	s.Len(signals, 2)
}

func (s *Suite) TestChannelStatsAndRates() {
	alpha := s.channel("alpha")
	beta := s.channel("beta")
	empty := s.channel("empty")

	outcomes := []types.Result{types.ResultSuccess, types.ResultSuccess, types.ResultFail}
	for i, result := range outcomes {
		id := s.saveSignal(s.signal(alpha, time.Duration(i)*time.Hour))
		s.Require().NoError(s.Store.CloseSignal(s.ctx, id, s.base.Add(10*time.Hour), result, 1))
	}

	s.saveSignal(s.signal(alpha, 4*time.Hour))
	s.saveSignal(s.signal(beta, 0))

	stats, err := s.Store.ChannelStats(s.ctx, alpha)
	s.Require().NoError(err)
	s.Equal(types.ChannelStats{ChannelID: alpha, Success: 2, Fail: 1, Open: 1, SuccessRate: 66.67}, stats)

	stats, err = s.Store.ChannelStats(s.ctx, empty)
	s.Require().NoError(err)
	s.Equal(types.ChannelStats{ChannelID: empty}, stats)

	_, err = s.Store.ChannelStats(s.ctx, 9999)
	s.True(errors.HasCode(err, errors.ErrCodeChannelNotFound))

	s.Require().NoError(s.Store.UpdateChannelRates(s.ctx))

	channels, err := s.Store.ListChannels(s.ctx)
	s.Require().NoError(err)

	rates := map[int64]optional.Option[float64]{}
	for _, ch := range channels {
		rates[ch.ID] = ch.Rate
	}

	s.Equal(66.67, rates[alpha].Unwrap())
	s.Equal(0.0, rates[beta].Unwrap())
	s.True(rates[empty].IsNone())
}
