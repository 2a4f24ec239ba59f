package browser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/signal-tracker/internal/types"
)

// channelItem implements list.Item for the channel list.
type channelItem struct {
	channel types.Channel
}

func (i channelItem) Title() string {
	if i.channel.Title != "" {
		return i.channel.Title
	}

	return i.channel.Username
}

func (i channelItem) Description() string {
	return fmt.Sprintf("@%s | success rate %s", i.channel.Username, FormatRate(i.channel.Rate))
}

func (i channelItem) FilterValue() string { return i.channel.Username }

// NewChannelList creates the channel selection list.
func NewChannelList(channels []types.Channel) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(channelItems(channels), delegate, 0, 0)
	l.Title = "Select Channel"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

func channelItems(channels []types.Channel) []list.Item {
	items := make([]list.Item, 0, len(channels))
	for _, channel := range channels {
		items = append(items, channelItem{channel: channel})
	}

	return items
}

// NewSignalTable creates the table listing a channel's signals.
func NewSignalTable() table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Symbol", Width: 12},
		{Title: "Side", Width: 6},
		{Title: "Entry", Width: 18},
		{Title: "SL", Width: 10},
		{Title: "TP", Width: 18},
		{Title: "Signal Time", Width: 17},
		{Title: "Result", Width: 8},
		{Title: "PnL", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateSignalRows replaces the table rows with signals, in the given order.
func UpdateSignalRows(t table.Model, signals []types.Signal) table.Model {
	rows := make([]table.Row, 0, len(signals))

	for _, sig := range signals {
		rows = append(rows, table.Row{
			strconv.FormatInt(sig.ID, 10),
			sig.Symbol,
			string(sig.Direction),
			FormatPrices(sig.EntryPrices),
			FormatPrices([]float64{sig.StopLoss}),
			FormatPrices(sig.TakeProfits),
			sig.SignalTime.UTC().Format("2006-01-02 15:04"),
			FormatResult(sig.Result),
			FormatPnL(sig.PnL),
		})
	}

	t.SetRows(rows)

	return t
}

// FormatPrices joins prices with "/" without trailing zeros.
func FormatPrices(prices []float64) string {
	parts := make([]string, 0, len(prices))
	for _, price := range prices {
		parts = append(parts, strconv.FormatFloat(price, 'f', -1, 64))
	}

	return strings.Join(parts, "/")
}

// FormatStats renders the outcome counts of a channel on one line.
func FormatStats(stats types.ChannelStats) string {
	return fmt.Sprintf("Success %d | Fail %d | Open %d | Rate %.2f%%",
		stats.Success, stats.Fail, stats.Open, stats.SuccessRate)
}
