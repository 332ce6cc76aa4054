package strategy

import (
	"fmt"
	"math"

	"github.com/quantframe/backtest/internal/marketdata"
)

// RSIMeanReversion enters a long position when RSI drops below the lower
// threshold and exits when RSI rises above the upper threshold. The emitted
// position is the held stance (0 or 1).
type RSIMeanReversion struct {
	period int
	lower  float64
	upper  float64
}

// NewRSIMeanReversion creates an RSI mean-reversion strategy. Zero values
// select period 14 and thresholds 35/65.
func NewRSIMeanReversion(period int, lower, upper float64) (*RSIMeanReversion, error) {
	if period == 0 {
		period = 14
	}
	if lower == 0 {
		lower = 35
	}
	if upper == 0 {
		upper = 65
	}
	if period <= 0 {
		return nil, fmt.Errorf("rsi period %d must be positive", period)
	}
	if !(0 < lower && lower < upper && upper < 100) {
		return nil, fmt.Errorf("thresholds must satisfy 0 < lower(%.1f) < upper(%.1f) < 100", lower, upper)
	}
	return &RSIMeanReversion{period: period, lower: lower, upper: upper}, nil
}

func (s *RSIMeanReversion) Name() string { return "rsi" }

// Signals computes a simple-average RSI and walks the entry/exit state
// machine. Bars inside the warmup window carry a NaN RSI and no signal.
func (s *RSIMeanReversion) Signals(bars []marketdata.Bar) ([]Signal, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars")
	}

	rsi := computeRSI(marketdata.Closes(bars), s.period)

	signals := make([]Signal, len(bars))
	stance := 0.0
	for i := range bars {
		if !math.IsNaN(rsi[i]) {
			if rsi[i] < s.lower && stance == 0 {
				stance = 1
			} else if rsi[i] > s.upper && stance == 1 {
				stance = 0
			}
		}

		ind := map[string]float64{}
		if !math.IsNaN(rsi[i]) {
			ind["rsi"] = rsi[i]
			ind["signal_strength"] = math.Abs(rsi[i]-50) / 50
		}
		signals[i] = Signal{
			Timestamp:  bars[i].Timestamp,
			Position:   stance,
			Indicators: ind,
		}
	}
	return signals, nil
}

// computeRSI returns the simple rolling-average RSI; the first period entries
// are NaN. A window with zero average loss pins RSI at 100.
func computeRSI(closes []float64, period int) []float64 {
	rsi := make([]float64, len(closes))
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := range closes {
		rsi[i] = math.NaN()
		if i == 0 {
			continue
		}
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := period; i < len(closes); i++ {
		var avgGain, avgLoss float64
		for j := i - period + 1; j <= i; j++ {
			avgGain += gains[j]
			avgLoss += losses[j]
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)

		if avgLoss == 0 {
			rsi[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		rsi[i] = 100 - 100/(1+rs)
	}
	return rsi
}
