// Package portfolio reconstructs a daily cash/position/valuation series from
// an executed trade tape and aggregates trade-level summaries.
package portfolio

import (
	"sort"
	"time"

	"github.com/quantframe/backtest/internal/engine"
	"github.com/quantframe/backtest/internal/marketdata"
)

// Row is one mark-to-market observation of the reconstructed portfolio.
// Invariant: Value == Cash + Position*Price at every row.
type Row struct {
	Timestamp         time.Time `json:"timestamp"`
	Price             float64   `json:"price"`
	Cash              float64   `json:"cash"`
	Position          float64   `json:"position"`
	HoldingsValue     float64   `json:"holdings_value"`
	Value             float64   `json:"value"`
	Returns           float64   `json:"returns"`
	CumulativeReturns float64   `json:"cumulative_returns"`
}

// Build replays the trade tape against the bar index and produces the full
// daily series. Cash and position are right-continuous step functions: a
// trade takes effect at the first bar timestamp at or after its own and
// persists until changed by a later trade. A trade before the first bar
// applies to every row; a trade between two bars settles at the next bar.
// An empty tape yields the flat all-cash portfolio.
func Build(trades []engine.Trade, bars []marketdata.Bar, initialCapital float64) []Row {
	rows := make([]Row, len(bars))
	for i, bar := range bars {
		rows[i] = Row{
			Timestamp: bar.Timestamp,
			Price:     bar.Close,
			Cash:      initialCapital,
			Value:     initialCapital,
		}
	}
	if len(rows) == 0 {
		return rows
	}

	if len(trades) > 0 {
		// Stable sort keeps arrival order for same-timestamp fills.
		sorted := make([]engine.Trade, len(trades))
		copy(sorted, trades)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})

		// Single forward sweep: advance the (cash, position) accumulators
		// once per trade and write them forward until the next trade.
		cash := initialCapital
		position := 0.0
		next := 0
		for i := range rows {
			// time.Time comparison is instant-based, so mixed zones on the
			// trade tape and bar index need no explicit normalization.
			for next < len(sorted) && !sorted[next].Timestamp.After(rows[i].Timestamp) {
				cash, position = applyTrade(sorted[next], cash, position)
				next++
			}
			rows[i].Cash = cash
			rows[i].Position = position
		}
	}

	for i := range rows {
		rows[i].HoldingsValue = rows[i].Position * rows[i].Price
		rows[i].Value = rows[i].Cash + rows[i].HoldingsValue
	}

	cumulative := 1.0
	for i := range rows {
		if i > 0 && rows[i-1].Value != 0 {
			rows[i].Returns = rows[i].Value/rows[i-1].Value - 1
		}
		cumulative *= 1 + rows[i].Returns
		rows[i].CumulativeReturns = cumulative - 1
	}
	return rows
}

// applyTrade folds one fill into the running accumulators. Fees hit cash;
// slippage is already embedded in the reported price and is tracked only in
// the summary, never re-subtracted here.
func applyTrade(t engine.Trade, cash, position float64) (float64, float64) {
	switch t.Side {
	case engine.SideBuy:
		position += t.Quantity
		cash -= t.Price*t.Quantity + t.Fee
	case engine.SideSell:
		position -= t.Quantity
		cash += t.Price*t.Quantity - t.Fee
	}
	return cash, position
}
