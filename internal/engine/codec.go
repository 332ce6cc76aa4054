// Package engine implements the wire protocol and subprocess adapter for the
// external execution engine: market data and signals go out as header-free
// CSV lines, executed trades and portfolio states come back on two prefixed
// output channels.
package engine

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quantframe/backtest/internal/marketdata"
	"github.com/quantframe/backtest/internal/strategy"
)

const (
	tradePrefix = "TRADE,"
	statePrefix = "STATE,"

	// Synthetic quote defaults used when the bar source carries no book data.
	syntheticSpread  = 0.0001 // 1 basis point each side of close
	defaultQuoteSize = 100.0
	defaultSymbol    = "BTC-USD"
)

// Encode flattens bars and signals into the engine input protocol: one CSV
// line per bar with columns timestamp,symbol,bid,ask,bid_size,ask_size,
// last_price,volume,signal_position. Signals are left-joined on the bar
// timestamp; bars without a signal row default to position 0. Timestamps are
// integer Unix seconds. Bid/ask are synthesized from close with a fixed
// symmetric spread.
func Encode(bars []marketdata.Bar, signals []strategy.Signal, symbol string) (string, error) {
	if len(bars) == 0 {
		return "", NewSchemaError("close")
	}
	if symbol == "" {
		symbol = defaultSymbol
	}

	positions := make(map[int64]float64, len(signals))
	for _, s := range signals {
		positions[s.Timestamp.Unix()] = s.Position
	}

	var b strings.Builder
	for _, bar := range bars {
		if bar.Close <= 0 {
			return "", NewSchemaError("close")
		}
		sec := bar.Timestamp.Unix()
		fields := []string{
			strconv.FormatInt(sec, 10),
			symbol,
			formatFloat(bar.Close * (1 - syntheticSpread)),
			formatFloat(bar.Close * (1 + syntheticSpread)),
			formatFloat(defaultQuoteSize),
			formatFloat(defaultQuoteSize),
			formatFloat(bar.Close),
			formatFloat(bar.Volume),
			formatFloat(positions[sec]),
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DecodeTrades parses the trade output channel. Lines without the TRADE
// prefix are skipped for forward compatibility; an input with no trade lines
// decodes to an empty tape, which is a valid outcome, not an error.
func DecodeTrades(raw string) ([]Trade, error) {
	trades := []Trade{}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, tradePrefix) {
			continue
		}
		trade, err := parseTradeLine(strings.TrimPrefix(line, tradePrefix))
		if err != nil {
			return nil, NewProtocolError(line, err)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func parseTradeLine(body string) (Trade, error) {
	fields := strings.Split(body, ",")
	if len(fields) != 9 {
		return Trade{}, fmt.Errorf("expected 9 fields, got %d", len(fields))
	}

	sec, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Trade{}, fmt.Errorf("bad timestamp %q: %w", fields[0], err)
	}
	tradeID, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Trade{}, fmt.Errorf("bad trade_id %q: %w", fields[2], err)
	}
	side, err := ParseSide(fields[3])
	if err != nil {
		return Trade{}, err
	}
	price, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Trade{}, fmt.Errorf("bad price %q: %w", fields[4], err)
	}
	quantity, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return Trade{}, fmt.Errorf("bad quantity %q: %w", fields[5], err)
	}
	fee, err := strconv.ParseFloat(fields[6], 64)
	if err != nil {
		return Trade{}, fmt.Errorf("bad fee %q: %w", fields[6], err)
	}
	slippage, err := strconv.ParseFloat(fields[7], 64)
	if err != nil {
		return Trade{}, fmt.Errorf("bad slippage %q: %w", fields[7], err)
	}
	signalType, err := ParseSignalType(fields[8])
	if err != nil {
		return Trade{}, err
	}

	if price <= 0 || quantity <= 0 {
		return Trade{}, fmt.Errorf("non-positive price/quantity: %.6f/%.6f", price, quantity)
	}
	if fee < 0 || slippage < 0 {
		return Trade{}, fmt.Errorf("negative fee/slippage: %.6f/%.6f", fee, slippage)
	}

	return Trade{
		Timestamp:  time.Unix(sec, 0).UTC(),
		Symbol:     fields[1],
		TradeID:    tradeID,
		Side:       side,
		Price:      price,
		Quantity:   quantity,
		Fee:        fee,
		Slippage:   slippage,
		SignalType: signalType,
	}, nil
}

// DecodeStates parses the portfolio-state output channel analogously to
// DecodeTrades. The states channel doubles as the engine's diagnostic
// channel, so non-STATE lines are common and skipped.
func DecodeStates(raw string) ([]PortfolioState, error) {
	states := []PortfolioState{}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, statePrefix) {
			continue
		}
		state, err := parseStateLine(strings.TrimPrefix(line, statePrefix))
		if err != nil {
			return nil, NewProtocolError(line, err)
		}
		states = append(states, state)
	}
	return states, nil
}

func parseStateLine(body string) (PortfolioState, error) {
	fields := strings.Split(body, ",")
	if len(fields) != 6 {
		return PortfolioState{}, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}

	sec, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return PortfolioState{}, fmt.Errorf("bad timestamp %q: %w", fields[0], err)
	}
	state := PortfolioState{Timestamp: time.Unix(sec, 0).UTC()}
	for i, dst := range []*float64{
		&state.Cash, &state.Position, &state.HoldingsValue, &state.TotalValue, &state.LastPrice,
	} {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return PortfolioState{}, fmt.Errorf("bad field %d value %q: %w", i+1, fields[i+1], err)
		}
		*dst = v
	}
	return state, nil
}

// Decode parses both engine output channels.
func Decode(rawTrades, rawStates string) ([]Trade, []PortfolioState, error) {
	trades, err := DecodeTrades(rawTrades)
	if err != nil {
		return nil, nil, err
	}
	states, err := DecodeStates(rawStates)
	if err != nil {
		return nil, nil, err
	}
	return trades, states, nil
}
