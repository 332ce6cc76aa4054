package marketdata

import (
	"context"
	"fmt"
	"time"
)

// Bar is one OHLCV observation for one timestamp.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Source provides historical daily bars for a symbol.
type Source interface {
	FetchDaily(ctx context.Context, symbol string) ([]Bar, error)
}

// ValidateBars performs fail-closed validation of a bar series: timestamps
// strictly increasing, high/low enveloping open and close, non-negative volume.
func ValidateBars(bars []Bar) error {
	var prev time.Time
	for i, b := range bars {
		if i > 0 && !b.Timestamp.After(prev) {
			return fmt.Errorf("bar %d: timestamp %v not after previous %v", i, b.Timestamp, prev)
		}
		prev = b.Timestamp

		if b.High < b.Open || b.High < b.Close {
			return fmt.Errorf("bar %d: high %.4f below open/close (%.4f/%.4f)", i, b.High, b.Open, b.Close)
		}
		if b.Low > b.Open || b.Low > b.Close {
			return fmt.Errorf("bar %d: low %.4f above open/close (%.4f/%.4f)", i, b.Low, b.Open, b.Close)
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d: negative volume %.2f", i, b.Volume)
		}
	}
	return nil
}

// Closes extracts the close column.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
