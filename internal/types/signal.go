package types

import (
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
)

// Direction is the side of a trading signal.
type Direction string

const (
	// DirectionLong profits when the price rises
	DirectionLong Direction = "long"
	// DirectionShort profits when the price falls
	DirectionShort Direction = "short"
)

// ParseDirection parses a stored direction value. Only the first word is
// significant and the match is case-insensitive, so "Long Signal" is a long.
func ParseDirection(s string) (Direction, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", errors.New(errors.ErrCodeInvalidDirection, "direction is empty")
	}

	switch Direction(strings.ToLower(fields[0])) {
	case DirectionLong:
		return DirectionLong, nil
	case DirectionShort:
		return DirectionShort, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidDirection, "unknown direction %q", s)
	}
}

// Valid reports whether d is long or short.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// Result is the classification of a closed signal.
type Result string

const (
	// ResultSuccess means a take-profit was touched before the stop-loss
	ResultSuccess Result = "success"
	// ResultFail means the stop-loss was touched first
	ResultFail Result = "fail"
)

// ParseResult parses a stored result value.
func ParseResult(s string) (Result, error) {
	switch Result(strings.ToLower(strings.TrimSpace(s))) {
	case ResultSuccess:
		return ResultSuccess, nil
	case ResultFail:
		return ResultFail, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidOutcome, "unknown result %q", s)
	}
}

// Signal is a parsed trade recommendation as stored in the catalog.
type Signal struct {
	ID          int64     `yaml:"id" json:"id"`
	MessageID   int64     `yaml:"message_id" json:"message_id"`
	ChannelID   int64     `yaml:"channel_id" json:"channel_id"`
	Symbol      string    `yaml:"symbol" json:"symbol" validate:"required"`
	Direction   Direction `yaml:"direction" json:"direction" validate:"required,oneof=long short"`
	EntryPrices []float64 `yaml:"entry_prices" json:"entry_prices" validate:"required,min=1,dive,gt=0"`
	StopLoss    float64   `yaml:"stop_loss" json:"stop_loss" validate:"required,gt=0"`
	TakeProfits []float64 `yaml:"take_profits" json:"take_profits" validate:"required,min=1,dive,gt=0"`
	Leverage    int       `yaml:"leverage" json:"leverage" validate:"min=1"`
	MarginMode  string    `yaml:"margin_mode" json:"margin_mode"`
	// SignalTime is when the signal was published, in UTC
	SignalTime time.Time `yaml:"signal_time" json:"signal_time" validate:"required"`
	CreatedAt  time.Time `yaml:"created_at" json:"created_at"`

	// Option has no YAML form; the outcome is only ever written by the evaluator
	CloseTime optional.Option[time.Time] `yaml:"-" json:"close_time"`
	Result    optional.Option[Result]    `yaml:"-" json:"result"`
	PnL       optional.Option[float64]   `yaml:"-" json:"pnl"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func signalValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	return validate
}

// Validate checks the fields the evaluator depends on. It does not check
// that prices are ordered the way the direction implies.
func (s Signal) Validate() error {
	if err := signalValidator().Struct(s); err != nil {
		return errors.Wrapf(errors.ErrCodeMalformedSignal, err, "signal %d is malformed", s.ID)
	}

	return nil
}

// IsClosed reports whether an outcome has already been recorded.
func (s Signal) IsClosed() bool {
	return s.CloseTime.IsSome()
}

// PrimaryEntry returns the first entry price, or 0 when there is none.
func (s Signal) PrimaryEntry() float64 {
	if len(s.EntryPrices) == 0 {
		return 0
	}

	return s.EntryPrices[0]
}
