// Package analytics computes standardized risk/return metrics from a
// reconstructed portfolio series.
package analytics

import (
	"math"

	"github.com/quantframe/backtest/internal/portfolio"
)

// TradingDaysPerYear is the fixed annualization convention.
const TradingDaysPerYear = 252

// Metrics is the fixed scalar set produced for every backtest. Every ratio
// has an explicit zero fallback for its singular denominator, so degenerate
// series (empty, single row, constant value) always yield a well-formed,
// comparable record rather than an error.
type Metrics struct {
	TotalReturn         float64 `json:"total_return"`
	AnnualizedReturn    float64 `json:"annualized_return"`
	Volatility          float64 `json:"volatility"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	SortinoRatio        float64 `json:"sortino_ratio"`
	MaxDrawdown         float64 `json:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration"`
	CalmarRatio         float64 `json:"calmar_ratio"`
	NumTrades           int     `json:"num_trades"`
	WinRate             float64 `json:"win_rate"`
	AvgWin              float64 `json:"avg_win"`
	AvgLoss             float64 `json:"avg_loss"`
	ProfitFactor        float64 `json:"profit_factor"`
}

// Compute derives the metric set from the series using the given annual
// risk-free rate. numTrades gates the trade-level stats: with an empty tape
// they are all zero regardless of the return series.
func Compute(series []portfolio.Row, riskFreeAnnual float64, numTrades int) Metrics {
	m := Metrics{NumTrades: numTrades}
	if len(series) == 0 {
		return m
	}

	values := make([]float64, len(series))
	returns := make([]float64, len(series))
	for i, row := range series {
		values[i] = row.Value
		returns[i] = row.Returns
	}

	if values[0] != 0 {
		m.TotalReturn = values[len(values)-1]/values[0] - 1
	}

	numDays := len(returns)
	if numDays > 0 {
		m.AnnualizedReturn = math.Pow(1+m.TotalReturn, TradingDaysPerYear/float64(numDays)) - 1
	}

	m.Volatility = sampleStd(returns) * math.Sqrt(TradingDaysPerYear)

	dailyRf := riskFreeAnnual / TradingDaysPerYear
	excessMean := mean(returns) - dailyRf
	if m.Volatility > 0 {
		m.SharpeRatio = excessMean * TradingDaysPerYear / m.Volatility
	}

	var downside []float64
	for _, r := range returns {
		if r < dailyRf {
			downside = append(downside, r)
		}
	}
	if len(downside) > 0 {
		if downsideDev := sampleStd(downside) * math.Sqrt(TradingDaysPerYear); downsideDev > 0 {
			m.SortinoRatio = excessMean * TradingDaysPerYear / downsideDev
		}
	}

	m.MaxDrawdown, m.MaxDrawdownDuration = maxDrawdown(values)
	if m.MaxDrawdown != 0 {
		m.CalmarRatio = m.AnnualizedReturn / math.Abs(m.MaxDrawdown)
	}

	if numTrades > 0 {
		m.WinRate, m.AvgWin, m.AvgLoss, m.ProfitFactor = tradeStats(returns)
	}
	return m
}

// maxDrawdown scans the value series once, tracking the running maximum, the
// deepest relative decline, and the longest contiguous run of observations
// strictly below the running maximum. A drawdown still open at the last
// observation counts as a candidate for the longest run.
func maxDrawdown(values []float64) (float64, int) {
	maxDD := 0.0
	runningMax := values[0]
	currentRun := 0
	longestRun := 0

	for _, v := range values {
		if v > runningMax {
			runningMax = v
		}
		if runningMax > 0 {
			if dd := (v - runningMax) / runningMax; dd < maxDD {
				maxDD = dd
			}
		}
		if v < runningMax {
			currentRun++
			if currentRun > longestRun {
				longestRun = currentRun
			}
		} else {
			currentRun = 0
		}
	}
	return maxDD, longestRun
}

// tradeStats derives win/loss statistics from the sign of per-period
// returns, not from matched trade pairs.
func tradeStats(returns []float64) (winRate, avgWin, avgLoss, profitFactor float64) {
	var wins, losses []float64
	for _, r := range returns {
		if r > 0 {
			wins = append(wins, r)
		} else if r < 0 {
			losses = append(losses, r)
		}
	}

	if len(returns) > 0 {
		winRate = float64(len(wins)) / float64(len(returns))
	}
	if len(wins) > 0 {
		avgWin = mean(wins)
	}
	if len(losses) > 0 {
		avgLoss = mean(losses)
	}

	totalWins := sum(wins)
	totalLosses := math.Abs(sum(losses))
	if totalLosses > 0 {
		profitFactor = totalWins / totalLosses
	}
	return winRate, avgWin, avgLoss, profitFactor
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

// sampleStd is the n-1 denominator standard deviation; series shorter than
// two observations have no spread and return 0.
func sampleStd(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
