package browser

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/signal-tracker/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	FailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// FormatResult renders the result column: success, fail or open.
func FormatResult(result optional.Option[types.Result]) string {
	if result.IsNone() {
		return "open"
	}

	return string(result.Unwrap())
}

// FormatPnL renders a PnL percentage with an arrow for its sign.
func FormatPnL(pnl optional.Option[float64]) string {
	if pnl.IsNone() {
		return "-"
	}

	value := pnl.Unwrap()

	switch {
	case value > 0:
		return fmt.Sprintf("%.2f%% ▲", value)
	case value < 0:
		return fmt.Sprintf("%.2f%% ▼", value)
	default:
		return "0.00%"
	}
}

// FormatRate renders a channel success rate, or "n/a" before the first
// rate refresh.
func FormatRate(rate optional.Option[float64]) string {
	if rate.IsNone() {
		return "n/a"
	}

	return fmt.Sprintf("%.2f%%", rate.Unwrap())
}
