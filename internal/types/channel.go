package types

import (
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// Channel is a Telegram channel that publishes signals.
type Channel struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Title    string `json:"title"`
	// Rate is the last computed success rate in percent
	Rate optional.Option[float64] `json:"rate"`
}

// ChannelStats counts the signals of a channel by outcome.
type ChannelStats struct {
	ChannelID   int64   `json:"channel_id"`
	Success     int     `json:"success"`
	Fail        int     `json:"fail"`
	Open        int     `json:"open"`
	SuccessRate float64 `json:"success_rate"`
}

// NewChannelStats computes the success rate over closed signals, rounded to
// two decimals. A channel with no closed signals has a rate of 0.
func NewChannelStats(channelID int64, success, fail, open int) ChannelStats {
	rate := 0.0
	if closed := success + fail; closed > 0 {
		rate = decimal.NewFromInt(int64(success)).
			Div(decimal.NewFromInt(int64(closed))).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			InexactFloat64()
	}

	return ChannelStats{
		ChannelID:   channelID,
		Success:     success,
		Fail:        fail,
		Open:        open,
		SuccessRate: rate,
	}
}
