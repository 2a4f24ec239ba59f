package browser

import "github.com/rxtech-lab/signal-tracker/internal/types"

// ChannelsLoadedMsg carries the channel list.
type ChannelsLoadedMsg struct {
	Channels []types.Channel
}

// SignalsLoadedMsg carries the latest signals of one channel and its counts.
type SignalsLoadedMsg struct {
	ChannelID int64
	Signals   []types.Signal
	Stats     types.ChannelStats
}

// SignalEvaluatedMsg carries the outcome of an evaluation started from the
// signal table.
type SignalEvaluatedMsg struct {
	Outcome types.Outcome
}

// ErrorMsg reports a failed load or evaluation.
type ErrorMsg struct {
	Err error
}
