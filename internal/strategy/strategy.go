// Package strategy defines the signal-generator contract and the built-in
// strategies that emit per-bar target positions for the execution engine.
package strategy

import (
	"fmt"
	"time"

	"github.com/quantframe/backtest/internal/marketdata"
)

// Signal is one generator output row, aligned to a bar timestamp. Position is
// the target exposure handed to the execution engine; Indicators carries
// strategy-specific diagnostic values for reporting.
type Signal struct {
	Timestamp  time.Time
	Position   float64
	Indicators map[string]float64
}

// Strategy generates signals from a bar series. Implementations must not use
// bars beyond the timestamp being evaluated.
type Strategy interface {
	Name() string
	Signals(bars []marketdata.Bar) ([]Signal, error)
}

// New constructs a built-in strategy by name using the supplied parameters.
func New(name string, p Params) (Strategy, error) {
	switch name {
	case "ma_cross":
		return NewMACross(p.ShortWindow, p.LongWindow)
	case "rsi":
		return NewRSIMeanReversion(p.RSIPeriod, p.RSILower, p.RSIUpper)
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// Params carries tunables for the built-in strategies. Zero values select the
// per-strategy defaults.
type Params struct {
	ShortWindow int
	LongWindow  int
	RSIPeriod   int
	RSILower    float64
	RSIUpper    float64
}

// rollingMean computes a trailing mean with window w and min_periods of 1:
// row i averages the last min(i+1, w) values.
func rollingMean(xs []float64, w int) []float64 {
	out := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		sum += x
		n := w
		if i+1 < w {
			n = i + 1
		} else if i >= w {
			sum -= xs[i-w]
		}
		out[i] = sum / float64(n)
	}
	return out
}
