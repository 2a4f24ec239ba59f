// Package notify announces closed signals.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/signal-tracker/internal/types"
)

// Notifier is told about every signal the processor closes. Implementations
// must be safe for concurrent use.
type Notifier interface {
	SignalClosed(ctx context.Context, sig types.Signal, outcome types.Outcome) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

var _ Notifier = NopNotifier{}

func (NopNotifier) SignalClosed(context.Context, types.Signal, types.Outcome) error {
	return nil
}

// FormatClosed renders a closed outcome as a short plain text message.
func FormatClosed(sig types.Signal, outcome types.Outcome) string {
	var b strings.Builder

	icon := "✅"
	if outcome.Result.TakeOr("") == types.ResultFail {
		icon = "❌"
	}

	fmt.Fprintf(&b, "%s %s %s x%d closed: %s\n", icon, sig.Symbol, strings.ToUpper(string(sig.Direction)), sig.Leverage, outcome.Result.TakeOr("open"))
	fmt.Fprintf(&b, "Entry: %s\n", joinPrices(sig.EntryPrices))
	fmt.Fprintf(&b, "SL: %g\n", sig.StopLoss)
	fmt.Fprintf(&b, "TP: %s\n", joinPrices(sig.TakeProfits))

	if outcome.PnL.IsSome() {
		fmt.Fprintf(&b, "PnL: %+.2f%%\n", outcome.PnL.Unwrap())
	}

	if outcome.CloseTime.IsSome() {
		closeTime := outcome.CloseTime.Unwrap()
		fmt.Fprintf(&b, "Closed: %s (after %s)", closeTime.UTC().Format(time.DateTime), closeTime.Sub(sig.SignalTime).Round(time.Minute))
	}

	return strings.TrimRight(b.String(), "\n")
}

func joinPrices(prices []float64) string {
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = fmt.Sprintf("%g", p)
	}

	return strings.Join(parts, ", ")
}
