// Package report renders backtest results: portfolio series CSV, metrics
// JSON, and a formatted text summary. These are the only artifacts the core
// persists; chart rendering lives in downstream tooling.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/quantframe/backtest/internal/analytics"
	"github.com/quantframe/backtest/internal/portfolio"
)

// WriteSeriesCSV writes the reconstructed portfolio series, one row per bar.
func WriteSeriesCSV(path string, rows []portfolio.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"timestamp",
		"price",
		"cash",
		"position",
		"holdings_value",
		"value",
		"returns",
		"cumulative_returns",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			fmtFloat(r.Price),
			fmtFloat(r.Cash),
			fmtFloat(r.Position),
			fmtFloat(r.HoldingsValue),
			fmtFloat(r.Value),
			fmtFloat(r.Returns),
			fmtFloat(r.CumulativeReturns),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

// resultDoc is the on-disk JSON shape combining the trade summary and the
// metric set.
type resultDoc struct {
	Summary portfolio.Summary `json:"trade_summary"`
	Metrics analytics.Metrics `json:"metrics"`
}

// WriteMetricsJSON writes the trade summary and metrics as one JSON document.
func WriteMetricsJSON(path string, summary portfolio.Summary, metrics analytics.Metrics) error {
	b, err := json.MarshalIndent(resultDoc{Summary: summary, Metrics: metrics}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// RenderSummary writes the human-readable two-column results table.
func RenderSummary(w io.Writer, summary portfolio.Summary, metrics analytics.Metrics) {
	line := func(label, value string) {
		fmt.Fprintf(w, "%-22s %14s\n", label, value)
	}
	pct := func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }
	dec := func(v float64) string { return fmt.Sprintf("%.2f", v) }

	fmt.Fprintln(w, "=== Performance ===")
	line("Total Return", pct(metrics.TotalReturn))
	line("Annualized Return", pct(metrics.AnnualizedReturn))
	line("Volatility", pct(metrics.Volatility))
	line("Sharpe Ratio", dec(metrics.SharpeRatio))
	line("Sortino Ratio", dec(metrics.SortinoRatio))
	line("Max Drawdown", pct(metrics.MaxDrawdown))
	line("Max DD Duration", fmt.Sprintf("%d days", metrics.MaxDrawdownDuration))
	line("Calmar Ratio", dec(metrics.CalmarRatio))
	line("Win Rate", pct(metrics.WinRate))
	line("Profit Factor", dec(metrics.ProfitFactor))

	fmt.Fprintln(w, "=== Trades ===")
	line("Total Trades", strconv.Itoa(summary.TotalTrades))
	line("Buy Trades", strconv.Itoa(summary.BuyTrades))
	line("Sell Trades", strconv.Itoa(summary.SellTrades))
	line("Entry Signals", strconv.Itoa(summary.EntrySignals))
	line("Exit Signals", strconv.Itoa(summary.ExitSignals))
	line("Rebalance Signals", strconv.Itoa(summary.RebalanceSignals))
	line("Total Fees", dec(summary.TotalFees))
	line("Total Slippage", dec(summary.TotalSlippage))
	line("Avg Slippage", dec(summary.AvgSlippage))
	line("Total P&L", dec(summary.TotalPnL))
	line("Return %", fmt.Sprintf("%.2f%%", summary.ReturnPct))
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
