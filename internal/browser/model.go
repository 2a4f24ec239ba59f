// Package browser is a terminal UI for browsing channels and their signals
// and evaluating a signal on demand.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/signal-tracker/internal/marker"
	"github.com/rxtech-lab/signal-tracker/internal/processor"
	"github.com/rxtech-lab/signal-tracker/internal/store"
	"github.com/rxtech-lab/signal-tracker/internal/types"
)

// Application states.
const (
	StateChannelSelect = iota
	StateSignalTable
	StateSignalDetail
)

// Catalog is the read side of the store the browser needs.
type Catalog interface {
	ListChannels(ctx context.Context) ([]types.Channel, error)
	ListSignalsByChannel(ctx context.Context, channelID int64, limit int) ([]types.Signal, error)
	ChannelStats(ctx context.Context, channelID int64) (types.ChannelStats, error)
}

// Model is the main Bubble Tea model of the signal browser.
type Model struct {
	state       int
	ctx         context.Context
	catalog     Catalog
	processor   processor.SignalProcessor
	limit       int
	channelList list.Model
	signalTable table.Model
	channels    []types.Channel
	channel     types.Channel
	signals     []types.Signal
	stats       types.ChannelStats
	detail      types.Signal
	evaluating  bool
	err         error
	width       int
	height      int
}

// NewModel creates a browser over catalog. proc may be nil, which disables
// evaluation. limit caps the signals listed per channel; values below 1 use
// store.DefaultSignalListLimit.
func NewModel(ctx context.Context, catalog Catalog, proc processor.SignalProcessor, limit int) Model {
	//nolint:exhaustruct // selection fields are filled as the user navigates
	return Model{
		state:       StateChannelSelect,
		ctx:         ctx,
		catalog:     catalog,
		processor:   proc,
		limit:       store.SignalListLimit(limit),
		channelList: NewChannelList(nil),
		signalTable: NewSignalTable(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadChannels()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			return m.handleEsc()
		case "r":
			return m, m.reload()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.channelList.SetSize(msg.Width, msg.Height-4)
		m.signalTable.SetWidth(msg.Width)
		m.signalTable.SetHeight(max(msg.Height-8, 3))

		return m, nil

	case ChannelsLoadedMsg:
		m.channels = msg.Channels
		m.err = nil

		return m, m.channelList.SetItems(channelItems(msg.Channels))

	case SignalsLoadedMsg:
		if msg.ChannelID != m.channel.ID {
			return m, nil
		}

		m.signals = msg.Signals
		m.stats = msg.Stats
		m.err = nil
		m.signalTable = UpdateSignalRows(m.signalTable, msg.Signals)

		for _, sig := range msg.Signals {
			if sig.ID == m.detail.ID {
				m.detail = sig
			}
		}

		return m, nil

	case SignalEvaluatedMsg:
		m.evaluating = false
		if m.detail.ID == msg.Outcome.SignalID {
			m.detail = applyOutcome(m.detail, msg.Outcome)
		}

		return m, m.loadSignals(m.channel.ID)

	case ErrorMsg:
		m.evaluating = false
		m.err = msg.Err

		return m, nil
	}

	// Delegate to state-specific update
	switch m.state {
	case StateChannelSelect:
		return m.updateChannelSelect(msg)
	case StateSignalTable:
		return m.updateSignalTable(msg)
	case StateSignalDetail:
		return m.updateSignalDetail(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateSignalTable:
		m.state = StateChannelSelect
		m.signals = nil
		m.err = nil
		m.channel = types.Channel{}
		m.signalTable = UpdateSignalRows(m.signalTable, nil)

		return m, m.loadChannels()
	case StateSignalDetail:
		m.state = StateSignalTable
		m.detail = types.Signal{}
		m.err = nil
	}

	return m, nil
}

func (m Model) updateChannelSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		if item, ok := m.channelList.SelectedItem().(channelItem); ok {
			m.channel = item.channel
			m.state = StateSignalTable
			m.signals = nil

			return m, m.loadSignals(item.channel.ID)
		}
	}

	var cmd tea.Cmd
	m.channelList, cmd = m.channelList.Update(msg)

	return m, cmd
}

func (m Model) updateSignalTable(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			if sig, ok := m.selectedSignal(); ok {
				m.detail = sig
				m.state = StateSignalDetail

				return m, nil
			}
		case "e":
			if sig, ok := m.selectedSignal(); ok {
				return m.evaluate(sig.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.signalTable, cmd = m.signalTable.Update(msg)

	return m, cmd
}

func (m Model) updateSignalDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "e" {
		return m.evaluate(m.detail.ID)
	}

	return m, nil
}

func (m Model) selectedSignal() (types.Signal, bool) {
	cursor := m.signalTable.Cursor()
	if cursor < 0 || cursor >= len(m.signals) {
		return types.Signal{}, false
	}

	return m.signals[cursor], true
}

func (m Model) evaluate(id int64) (tea.Model, tea.Cmd) {
	if m.processor == nil || m.evaluating {
		return m, nil
	}

	m.evaluating = true
	m.err = nil

	ctx, proc := m.ctx, m.processor

	return m, func() tea.Msg {
		outcome, err := proc.ProcessSignal(ctx, id)
		if err != nil {
			return ErrorMsg{Err: err}
		}

		return SignalEvaluatedMsg{Outcome: outcome}
	}
}

func (m Model) reload() tea.Cmd {
	switch m.state {
	case StateSignalTable, StateSignalDetail:
		return m.loadSignals(m.channel.ID)
	default:
		return m.loadChannels()
	}
}

func (m Model) loadChannels() tea.Cmd {
	ctx, catalog := m.ctx, m.catalog

	return func() tea.Msg {
		channels, err := catalog.ListChannels(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}

		return ChannelsLoadedMsg{Channels: channels}
	}
}

func (m Model) loadSignals(channelID int64) tea.Cmd {
	ctx, catalog, limit := m.ctx, m.catalog, m.limit

	return func() tea.Msg {
		signals, err := catalog.ListSignalsByChannel(ctx, channelID, limit)
		if err != nil {
			return ErrorMsg{Err: err}
		}

		stats, err := catalog.ChannelStats(ctx, channelID)
		if err != nil {
			return ErrorMsg{Err: err}
		}

		return SignalsLoadedMsg{ChannelID: channelID, Signals: signals, Stats: stats}
	}
}

// applyOutcome copies the close fields of a closed outcome onto sig.
func applyOutcome(sig types.Signal, outcome types.Outcome) types.Signal {
	if !outcome.IsClosed() {
		return sig
	}

	sig.CloseTime = outcome.CloseTime
	sig.Result = outcome.Result
	sig.PnL = outcome.PnL

	return sig
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateChannelSelect:
		s.WriteString(TitleStyle.Render("Signal Tracker - Channels"))
		s.WriteString("\n\n")

		if len(m.channels) == 0 {
			s.WriteString("No channels yet.\n")
		} else {
			s.WriteString(m.channelList.View())
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Enter: open | r: reload | q: quit"))

	case StateSignalTable:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Signals - @%s", m.channel.Username)))
		s.WriteString("\n")
		s.WriteString(FormatStats(m.stats))
		s.WriteString("\n\n")

		if len(m.signals) == 0 {
			s.WriteString("No signals.\n")
		} else {
			s.WriteString(m.signalTable.View())
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Enter: details | e: evaluate | r: reload | Esc: back | q: quit"))

	case StateSignalDetail:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Signal #%d - %s %s", m.detail.ID, m.detail.Symbol, m.detail.Direction)))
		s.WriteString("\n\n")
		s.WriteString(m.detailView())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("e: evaluate | Esc: back | q: quit"))
	}

	if m.evaluating {
		s.WriteString("\n\nEvaluating...")
	}

	if m.err != nil {
		s.WriteString("\n\n")
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return s.String()
}

func (m Model) detailView() string {
	var s strings.Builder

	sig := m.detail

	fmt.Fprintf(&s, "Entry:       %s\n", FormatPrices(sig.EntryPrices))
	fmt.Fprintf(&s, "Stop loss:   %s\n", FormatPrices([]float64{sig.StopLoss}))
	fmt.Fprintf(&s, "Take profit: %s\n", FormatPrices(sig.TakeProfits))
	fmt.Fprintf(&s, "Leverage:    %dx %s\n", sig.Leverage, sig.MarginMode)
	fmt.Fprintf(&s, "Signal time: %s\n", sig.SignalTime.UTC().Format("2006-01-02 15:04:05"))

	switch {
	case sig.Result.IsSome() && sig.Result.Unwrap() == types.ResultSuccess:
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Result:      success, PnL %s", FormatPnL(sig.PnL))))
	case sig.Result.IsSome():
		s.WriteString(FailStyle.Render(fmt.Sprintf("Result:      fail, PnL %s", FormatPnL(sig.PnL))))
	default:
		s.WriteString("Result:      open")
	}

	if sig.CloseTime.IsSome() {
		fmt.Fprintf(&s, "\nClosed:      %s", sig.CloseTime.Unwrap().UTC().Format("2006-01-02 15:04:05"))
	}

	s.WriteString("\n\nMarks:\n")

	for _, mark := range marker.Marks(sig, types.OutcomeFromSignal(sig)) {
		fmt.Fprintf(&s, "  %-12s %-12s %s\n", mark.Category, FormatPrices([]float64{mark.Price}), mark.Title)
	}

	return s.String()
}
