package engine

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/backtest/internal/marketdata"
	"github.com/quantframe/backtest/internal/strategy"
)

func testBars(n int) []marketdata.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]marketdata.Bar, n)
	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = marketdata.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1000,
		}
	}
	return bars
}

func TestEncodeFieldLayout(t *testing.T) {
	bars := testBars(2)
	signals := []strategy.Signal{
		{Timestamp: bars[0].Timestamp, Position: 1},
		// no signal for bar 1: position must default to 0
	}

	out, err := Encode(bars, signals, "AAPL")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	fields := strings.Split(lines[0], ",")
	require.Len(t, fields, 9)
	assert.Equal(t, fmt.Sprintf("%d", bars[0].Timestamp.Unix()), fields[0])
	assert.Equal(t, "AAPL", fields[1])
	assert.Equal(t, "99.99", fields[2])  // close * (1 - spread)
	assert.Equal(t, "100.01", fields[3]) // close * (1 + spread)
	assert.Equal(t, "100", fields[4])
	assert.Equal(t, "100", fields[5])
	assert.Equal(t, "100", fields[6])
	assert.Equal(t, "1000", fields[7])
	assert.Equal(t, "1", fields[8])

	// Left-join default for the signal-less bar.
	fields = strings.Split(lines[1], ",")
	assert.Equal(t, "0", fields[8])
}

func TestEncodeDefaultSymbol(t *testing.T) {
	out, err := Encode(testBars(1), nil, "")
	require.NoError(t, err)
	assert.Contains(t, out, ",BTC-USD,")
}

func TestEncodeSchemaError(t *testing.T) {
	_, err := Encode(nil, nil, "AAPL")
	require.Error(t, err)
	assert.True(t, IsType(err, ErrTypeSchema))

	bad := testBars(1)
	bad[0].Close = 0
	_, err = Encode(bad, nil, "AAPL")
	assert.True(t, IsType(err, ErrTypeSchema))
}

func TestDecodeTradesRoundTrip(t *testing.T) {
	want := []Trade{
		{
			Timestamp:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Symbol:     "BTC-USD",
			TradeID:    1,
			Side:       SideBuy,
			Price:      50000.5,
			Quantity:   10,
			Fee:        1.25,
			Slippage:   0.5,
			SignalType: SignalEntry,
		},
		{
			Timestamp:  time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Symbol:     "BTC-USD",
			TradeID:    2,
			Side:       SideSell,
			Price:      51000,
			Quantity:   10,
			Fee:        1.25,
			Slippage:   0.75,
			SignalType: SignalExit,
		},
	}

	var raw strings.Builder
	for _, tr := range want {
		fmt.Fprintf(&raw, "TRADE,%d,%s,%d,%s,%v,%v,%v,%v,%s\n",
			tr.Timestamp.Unix(), tr.Symbol, tr.TradeID, tr.Side,
			tr.Price, tr.Quantity, tr.Fee, tr.Slippage, tr.SignalType)
	}

	got, err := DecodeTrades(raw.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeTradesSkipsUnknownLines(t *testing.T) {
	raw := strings.Join([]string{
		"DEBUG,starting engine",
		"TRADE,1704153600,BTC-USD,1,BUY,50000,10,1,0.5,ENTRY",
		"FILLSTATS,ignored,future,record,kind",
		"",
	}, "\n")

	trades, err := DecodeTrades(raw)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(1), trades[0].TradeID)
}

func TestDecodeTradesEmptyTapeIsNotAnError(t *testing.T) {
	trades, err := DecodeTrades("")
	require.NoError(t, err)
	assert.NotNil(t, trades)
	assert.Empty(t, trades)
}

func TestDecodeTradesProtocolErrors(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"wrong_field_count", "TRADE,1704153600,BTC-USD,1,BUY,50000,10,1,ENTRY"},
		{"bad_timestamp", "TRADE,notatime,BTC-USD,1,BUY,50000,10,1,0.5,ENTRY"},
		{"unknown_side", "TRADE,1704153600,BTC-USD,1,SHORT,50000,10,1,0.5,ENTRY"},
		{"unknown_signal_type", "TRADE,1704153600,BTC-USD,1,BUY,50000,10,1,0.5,SCALP"},
		{"bad_price", "TRADE,1704153600,BTC-USD,1,BUY,abc,10,1,0.5,ENTRY"},
		{"zero_quantity", "TRADE,1704153600,BTC-USD,1,BUY,50000,0,1,0.5,ENTRY"},
		{"negative_fee", "TRADE,1704153600,BTC-USD,1,BUY,50000,10,-1,0.5,ENTRY"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeTrades(tc.line)
			require.Error(t, err)
			assert.True(t, IsType(err, ErrTypeProtocol), "expected protocol error, got %v", err)
		})
	}
}

func TestDecodeStates(t *testing.T) {
	raw := strings.Join([]string{
		"engine: processed 2 rows", // diagnostic noise on the state channel
		"STATE,1704153600,99499,10,500000,599499,50000",
		"STATE,1704240000,99499,10,510000,609499,51000",
	}, "\n")

	states, err := DecodeStates(raw)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, 99499.0, states[0].Cash)
	assert.Equal(t, 10.0, states[0].Position)
	assert.Equal(t, 51000.0, states[1].LastPrice)

	_, err = DecodeStates("STATE,1704153600,99499,10")
	assert.True(t, IsType(err, ErrTypeProtocol))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	bars := testBars(3)
	signals := []strategy.Signal{{Timestamp: bars[1].Timestamp, Position: 1}}

	encoded, err := Encode(bars, signals, "AAPL")
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(encoded), "\n"), 3)

	// Synthetic engine output built from the encoded input's timestamps.
	raw := fmt.Sprintf("TRADE,%d,AAPL,1,BUY,101,5,0.5,0.1,ENTRY\n", bars[1].Timestamp.Unix())
	trades, err := DecodeTrades(raw)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Timestamp.Equal(bars[1].Timestamp))
	assert.Equal(t, SideBuy, trades[0].Side)
	assert.Equal(t, 5.0, trades[0].Quantity)
}
