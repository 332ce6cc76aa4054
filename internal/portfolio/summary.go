package portfolio

import (
	"github.com/quantframe/backtest/internal/engine"
)

// Summary is the fixed-key trade rollup. P&L is derived solely from the
// terminal portfolio value; no buy/sell lot matching is performed.
type Summary struct {
	TotalTrades      int     `json:"total_trades"`
	BuyTrades        int     `json:"buy_trades"`
	SellTrades       int     `json:"sell_trades"`
	EntrySignals     int     `json:"entry_signals"`
	ExitSignals      int     `json:"exit_signals"`
	RebalanceSignals int     `json:"rebalance_signals"`
	TotalFees        float64 `json:"total_fees"`
	TotalSlippage    float64 `json:"total_slippage"`
	AvgSlippage      float64 `json:"avg_slippage"`
	TotalPnL         float64 `json:"total_pnl"`
	ReturnPct        float64 `json:"return_pct"`
}

// Summarize computes the trade rollup against the reconstructed series.
// An empty tape returns the zeroed summary with the full key set.
func Summarize(trades []engine.Trade, series []Row, initialCapital float64) Summary {
	var s Summary
	if len(trades) == 0 {
		return s
	}

	s.TotalTrades = len(trades)
	for _, t := range trades {
		switch t.Side {
		case engine.SideBuy:
			s.BuyTrades++
		case engine.SideSell:
			s.SellTrades++
		}
		switch t.SignalType {
		case engine.SignalEntry:
			s.EntrySignals++
		case engine.SignalExit:
			s.ExitSignals++
		case engine.SignalRebalance:
			s.RebalanceSignals++
		}
		s.TotalFees += t.Fee
		s.TotalSlippage += t.Slippage
	}
	s.AvgSlippage = s.TotalSlippage / float64(len(trades))

	if len(series) > 0 && initialCapital != 0 {
		finalValue := series[len(series)-1].Value
		s.TotalPnL = finalValue - initialCapital
		s.ReturnPct = (finalValue/initialCapital - 1) * 100
	}
	return s
}
