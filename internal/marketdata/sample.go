package marketdata

import (
	"math/rand"
	"time"
)

// SampleSeries generates a deterministic synthetic daily bar series: a random
// walk with upward drift around a 50000 base price. The same seed always
// yields the same series, which keeps demo runs and tests reproducible.
func SampleSeries(days int, seed int64) []Bar {
	if days <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	bars := make([]Bar, days)
	price := 50000.0
	for i := 0; i < days; i++ {
		if i > 0 {
			price *= 1 + rng.NormFloat64()*0.02
		}
		// Trend component keeps the sample series net-positive over a year.
		price += 5000.0 / float64(days)

		open := price * (1 + (rng.Float64()*2-1)*0.001)
		high := price * (1 + rng.Float64()*0.01)
		low := price * (1 - rng.Float64()*0.01)
		if open > high {
			high = open
		}
		if open < low {
			low = open
		}

		bars[i] = Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     price,
			Volume:    1000 + rng.Float64()*4000,
		}
	}
	return bars
}
