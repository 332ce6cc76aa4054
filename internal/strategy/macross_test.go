package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/backtest/internal/marketdata"
)

func barsFromCloses(closes []float64) []marketdata.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]marketdata.Bar, len(closes))
	for i, c := range closes {
		bars[i] = marketdata.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    100,
		}
	}
	return bars
}

func TestNewMACrossValidation(t *testing.T) {
	_, err := NewMACross(50, 20)
	assert.Error(t, err)

	_, err = NewMACross(20, 20)
	assert.Error(t, err)

	s, err := NewMACross(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "ma_cross", s.Name())
}

func TestMACrossSignals(t *testing.T) {
	s, err := NewMACross(2, 3)
	require.NoError(t, err)

	// Flat, then a jump that lifts the short average above the long one.
	bars := barsFromCloses([]float64{10, 10, 10, 14, 14})
	signals, err := s.Signals(bars)
	require.NoError(t, err)
	require.Len(t, signals, 5)

	// Warmup rows hold no stance.
	assert.Equal(t, 0.0, signals[0].Position)
	assert.Equal(t, 0.0, signals[1].Position)
	// Long window filled, short==long: short stance, delta -1.
	assert.Equal(t, -1.0, signals[2].Position)
	// Crossover: stance flips -1 -> +1, emitted delta +2.
	assert.Equal(t, 2.0, signals[3].Position)
	// Stance held: no new target.
	assert.Equal(t, 0.0, signals[4].Position)

	assert.InDelta(t, 12.0, signals[3].Indicators["ma_short"], 1e-12)
	assert.InDelta(t, 34.0/3.0, signals[3].Indicators["ma_long"], 1e-12)
}

func TestMACrossNoBars(t *testing.T) {
	s, err := NewMACross(2, 3)
	require.NoError(t, err)
	_, err = s.Signals(nil)
	assert.Error(t, err)
}

func TestRollingMeanWarmup(t *testing.T) {
	got := rollingMean([]float64{2, 4, 6, 8}, 3)
	want := []float64{2, 3, 4, 6}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "index %d", i)
	}
}
