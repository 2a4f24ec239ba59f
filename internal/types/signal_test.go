package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}

func validSignal() Signal {
	return Signal{
		ID:          1,
		MessageID:   10,
		ChannelID:   100,
		Symbol:      "BTCUSDT",
		Direction:   DirectionLong,
		EntryPrices: []float64{100},
		StopLoss:    90,
		TakeProfits: []float64{110, 120},
		Leverage:    10,
		MarginMode:  "cross",
		SignalTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC),
		CloseTime:   optional.None[time.Time](),
		Result:      optional.None[Result](),
		PnL:         optional.None[float64](),
	}
}

func (suite *SignalTestSuite) TestParseDirection() {
	tests := []struct {
		name    string
		input   string
		want    Direction
		wantErr bool
	}{
		{name: "lowercase long", input: "long", want: DirectionLong},
		{name: "mixed case short", input: "Short", want: DirectionShort},
		{name: "first word only", input: "Long Signal", want: DirectionLong},
		{name: "surrounding whitespace", input: "  SHORT  ", want: DirectionShort},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "sideways", wantErr: true},
		{name: "second word ignored", input: "buy long", wantErr: true},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			got, err := ParseDirection(tt.input)
			if tt.wantErr {
				suite.Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidDirection))

				return
			}

			suite.NoError(err)
			suite.Equal(tt.want, got)
		})
	}
}

func (suite *SignalTestSuite) TestParseResult() {
	res, err := ParseResult("Success")
	suite.NoError(err)
	suite.Equal(ResultSuccess, res)

	res, err = ParseResult("fail")
	suite.NoError(err)
	suite.Equal(ResultFail, res)

	_, err = ParseResult("draw")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOutcome))
}

func (suite *SignalTestSuite) TestValidate() {
	suite.NoError(validSignal().Validate())

	tests := []struct {
		name   string
		mutate func(s *Signal)
	}{
		{name: "missing symbol", mutate: func(s *Signal) { s.Symbol = "" }},
		{name: "bad direction", mutate: func(s *Signal) { s.Direction = "up" }},
		{name: "no entries", mutate: func(s *Signal) { s.EntryPrices = nil }},
		{name: "zero entry", mutate: func(s *Signal) { s.EntryPrices = []float64{0} }},
		{name: "no take profits", mutate: func(s *Signal) { s.TakeProfits = []float64{} }},
		{name: "negative take profit", mutate: func(s *Signal) { s.TakeProfits = []float64{110, -1} }},
		{name: "zero stop loss", mutate: func(s *Signal) { s.StopLoss = 0 }},
		{name: "zero leverage", mutate: func(s *Signal) { s.Leverage = 0 }},
		{name: "missing signal time", mutate: func(s *Signal) { s.SignalTime = time.Time{} }},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			sig := validSignal()
			tt.mutate(&sig)
			err := sig.Validate()
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeMalformedSignal))
		})
	}
}

func (suite *SignalTestSuite) TestValidateDoesNotCheckPriceOrdering() {
	sig := validSignal()
	// stop-loss above entry on a long is accepted as-is
	sig.StopLoss = 150
	suite.NoError(sig.Validate())
}

func (suite *SignalTestSuite) TestIsClosedAndPrimaryEntry() {
	sig := validSignal()
	suite.False(sig.IsClosed())
	suite.Equal(100.0, sig.PrimaryEntry())

	sig.CloseTime = optional.Some(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	suite.True(sig.IsClosed())

	sig.EntryPrices = nil
	suite.Equal(0.0, sig.PrimaryEntry())
}
