package marketdata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTempCSV(t, `Date,Open,High,Low,Close,Volume
2024-01-02,100,105,99,104,1500
2024-01-03,104,108,103,107,1800
`)

	bars, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 104.0, bars[0].Close)
	assert.Equal(t, 1800.0, bars[1].Volume)
	assert.NoError(t, ValidateBars(bars))
}

func TestLoadCSVMissingClose(t *testing.T) {
	path := writeTempCSV(t, `date,open,high,low,volume
2024-01-02,100,105,99,1500
`)

	_, err := LoadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "close"`)
}

func TestLoadCSVBadValue(t *testing.T) {
	path := writeTempCSV(t, `date,open,high,low,close,volume
2024-01-02,100,105,99,oops,1500
`)

	_, err := LoadCSV(path)
	assert.Error(t, err)
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestValidateBars(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	good := Bar{Timestamp: base, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100}

	cases := []struct {
		name    string
		mutate  func(*Bar)
		wantErr bool
	}{
		{"valid", func(b *Bar) {}, false},
		{"high_below_close", func(b *Bar) { b.High = 10 }, true},
		{"low_above_open", func(b *Bar) { b.Low = 10.2 }, true},
		{"negative_volume", func(b *Bar) { b.Volume = -1 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := good
			tc.mutate(&b)
			err := ValidateBars([]Bar{b})
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("non_increasing_timestamps", func(t *testing.T) {
		err := ValidateBars([]Bar{good, good})
		assert.Error(t, err)
	})
}

func TestSampleSeriesDeterministic(t *testing.T) {
	a := SampleSeries(100, 42)
	b := SampleSeries(100, 42)
	require.Len(t, a, 100)
	assert.Equal(t, a, b)
	assert.NoError(t, ValidateBars(a))

	c := SampleSeries(100, 7)
	assert.NotEqual(t, a[50].Close, c[50].Close)
}
