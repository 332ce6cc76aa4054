package strategy

import (
	"fmt"

	"github.com/quantframe/backtest/internal/marketdata"
)

// MACross is a moving-average crossover strategy: long stance while the short
// average is above the long average, short stance otherwise. The emitted
// position is the stance change, so only crossover bars carry a non-zero
// target for the engine.
type MACross struct {
	short int
	long  int
}

// NewMACross creates a crossover strategy. The short window must be positive
// and strictly less than the long window. Zero windows select 20/50.
func NewMACross(short, long int) (*MACross, error) {
	if short == 0 {
		short = 20
	}
	if long == 0 {
		long = 50
	}
	if short <= 0 || short >= long {
		return nil, fmt.Errorf("short window %d must be positive and less than long window %d", short, long)
	}
	return &MACross{short: short, long: long}, nil
}

func (s *MACross) Name() string { return "ma_cross" }

// Signals computes both averages with an expanding warmup, holds a neutral
// stance until the long window is filled, and emits stance deltas.
func (s *MACross) Signals(bars []marketdata.Bar) ([]Signal, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars")
	}

	closes := marketdata.Closes(bars)
	maShort := rollingMean(closes, s.short)
	maLong := rollingMean(closes, s.long)

	signals := make([]Signal, len(bars))
	prevStance := 0.0
	for i := range bars {
		stance := 0.0
		if i >= s.long-1 {
			if maShort[i] > maLong[i] {
				stance = 1
			} else {
				stance = -1
			}
		}
		signals[i] = Signal{
			Timestamp: bars[i].Timestamp,
			Position:  stance - prevStance,
			Indicators: map[string]float64{
				"ma_short": maShort[i],
				"ma_long":  maLong[i],
			},
		}
		prevStance = stance
	}
	return signals, nil
}
