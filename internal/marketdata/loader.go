// Package marketdata provides OHLCV bar types plus loaders for CSV files,
// deterministic sample series, and the Alpha Vantage daily API.
package marketdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// timestamp layouts accepted by LoadCSV, tried in order.
var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadCSV reads a bar series from a headered CSV file. Column names are
// matched case-insensitively; date/timestamp, open, high, low, close and
// volume are all required. Rows are returned in file order.
func LoadCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bar file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read bar file %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("bar file %s has no data rows", path)
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	tsCol, ok := col["date"]
	if !ok {
		if tsCol, ok = col["timestamp"]; !ok {
			tsCol, ok = col["time"]
		}
	}
	if !ok {
		return nil, fmt.Errorf("bar file %s: missing required column %q", path, "date")
	}
	for _, required := range []string{"open", "high", "low", "close", "volume"} {
		if _, found := col[required]; !found {
			return nil, fmt.Errorf("bar file %s: missing required column %q", path, required)
		}
	}

	bars := make([]Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		ts, err := parseCSVTime(rec[tsCol])
		if err != nil {
			return nil, fmt.Errorf("bar file %s row %d: %w", path, i+1, err)
		}
		b := Bar{Timestamp: ts}
		for name, dst := range map[string]*float64{
			"open": &b.Open, "high": &b.High, "low": &b.Low,
			"close": &b.Close, "volume": &b.Volume,
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col[name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("bar file %s row %d: bad %s value %q", path, i+1, name, rec[col[name]])
			}
			*dst = v
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseCSVTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range csvTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
