package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/signal-tracker/internal/browser"
	"github.com/rxtech-lab/signal-tracker/internal/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})
}

func renderChannels(channels []types.Channel) string {
	t := newTable("ID", "Username", "Title", "Success Rate")

	for _, channel := range channels {
		t.Row(
			strconv.FormatInt(channel.ID, 10),
			"@"+channel.Username,
			channel.Title,
			browser.FormatRate(channel.Rate),
		)
	}

	return t.String()
}

func renderSignals(signals []types.Signal) string {
	t := newTable("ID", "Symbol", "Side", "Entry", "SL", "TP", "Signal Time", "Result", "PnL")

	for _, sig := range signals {
		t.Row(
			strconv.FormatInt(sig.ID, 10),
			sig.Symbol,
			string(sig.Direction),
			browser.FormatPrices(sig.EntryPrices),
			browser.FormatPrices([]float64{sig.StopLoss}),
			browser.FormatPrices(sig.TakeProfits),
			sig.SignalTime.UTC().Format("2006-01-02 15:04"),
			browser.FormatResult(sig.Result),
			browser.FormatPnL(sig.PnL),
		)
	}

	return t.String()
}

// formatOutcome renders one line per evaluated signal.
func formatOutcome(outcome types.Outcome) string {
	switch outcome.Status() {
	case types.OutcomeStatusCached:
		return fmt.Sprintf("signal %d: already closed, %s at %s, PnL %s",
			outcome.SignalID, outcome.Result.Unwrap(), outcome.CloseTime.Unwrap().UTC().Format(time.RFC3339),
			browser.FormatPnL(outcome.PnL))
	case types.OutcomeStatusClosed:
		return fmt.Sprintf("signal %d: closed, %s at %s, PnL %s (%d candles)",
			outcome.SignalID, outcome.Result.Unwrap(), outcome.CloseTime.Unwrap().UTC().Format(time.RFC3339),
			browser.FormatPnL(outcome.PnL), len(outcome.Candles))
	default:
		return fmt.Sprintf("signal %d: still open (%d candles)", outcome.SignalID, len(outcome.Candles))
	}
}
