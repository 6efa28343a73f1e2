package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"PairTrader/internal/model"
)

// FormatFill formats a confirmed execution.
func FormatFill(fill *model.Fill) string {
	var b strings.Builder
	icon := "🟢"
	if fill.Intent.Side == model.SideSell {
		icon = "🔴"
	}
	mode := ""
	if fill.Paper {
		mode = " (paper)"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b>%s\n\n", icon, fill.Intent.Side, fill.Intent.Symbol, mode))
	b.WriteString(fmt.Sprintf("Quantity: %s\n", fill.Quantity))
	b.WriteString(fmt.Sprintf("Price: %s\n", fill.Price))
	b.WriteString(fmt.Sprintf("Reason: %s\n", fill.Reason))
	b.WriteString(fmt.Sprintf("Order: %s\n", fill.OrderID))
	b.WriteString(fmt.Sprintf("Time: %s", fill.FilledAt.Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatStatus formats the trader status for the /status command.
func FormatStatus(st model.Status) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>%s status</b>\n\n", st.Symbol))
	b.WriteString(fmt.Sprintf("Exchange: %s\n", st.Exchange))
	b.WriteString(fmt.Sprintf("Position: %s\n", st.Position))
	if st.LastCycle.IsZero() {
		b.WriteString("No cycle completed yet\n")
	} else {
		s := st.Snapshot
		b.WriteString(fmt.Sprintf("Price: %g\n", st.Price))
		b.WriteString(fmt.Sprintf("RSI: %.2f (prev %.2f)\n", s.RSI, s.PrevRSI))
		if s.HasEMA {
			b.WriteString(fmt.Sprintf("EMA: %.6g / %.6g (trend %+.6g)\n", s.EMAShort, s.EMALong, s.TrendAvg))
		}
		b.WriteString(fmt.Sprintf("Last action: %s (%s)\n", st.LastAction, st.LastReason))
		b.WriteString(fmt.Sprintf("Last cycle: %s [%s]\n", st.LastCycle.Format("2006-01-02 15:04:05"), st.LastOutcome))
	}
	b.WriteString(fmt.Sprintf("Cycles: %d | Errors: %d | Trades: %d\n", st.Cycles, st.Errors, st.Trades))
	b.WriteString(fmt.Sprintf("Up since: %s", st.StartedAt.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatDailyReport formats the daily summary: cycle outcomes since the
// previous report and the latest trades.
func FormatDailyReport(st model.Status, outcomes map[string]int, trades []model.Fill) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>%s daily report</b> | %s\n\n", st.Symbol, time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Position: %s\n", st.Position))

	if len(outcomes) > 0 {
		keys := make([]string, 0, len(outcomes))
		total := 0
		for k, n := range outcomes {
			keys = append(keys, k)
			total += n
		}
		sort.Strings(keys)
		b.WriteString(fmt.Sprintf("\n<b>Cycles (%d):</b>\n", total))
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("  %s: %d\n", k, outcomes[k]))
		}
	}

	if len(trades) == 0 {
		b.WriteString("\nNo trades.")
		return b.String()
	}
	b.WriteString("\n<b>Recent trades:</b>\n")
	for _, t := range trades {
		b.WriteString(fmt.Sprintf("  %s %s %s @ %s\n", t.FilledAt.Format("01-02 15:04"), t.Intent.Side, t.Quantity, t.Price))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Commands:\n• /status\n• /report"
}
