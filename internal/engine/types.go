package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/quantframe/backtest/internal/marketdata"
	"github.com/quantframe/backtest/internal/strategy"
)

// Side is the executed direction of a fill. Modeled as a closed enumeration
// so decoding rejects unknown values instead of mis-categorizing them.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide converts an engine-reported side string, rejecting unknowns.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), nil
	}
	return "", fmt.Errorf("unknown trade side %q", s)
}

// SignalType classifies why the engine executed a fill.
type SignalType string

const (
	SignalEntry     SignalType = "ENTRY"
	SignalExit      SignalType = "EXIT"
	SignalRebalance SignalType = "REBALANCE"
)

// ParseSignalType converts an engine-reported signal type, rejecting unknowns.
func ParseSignalType(s string) (SignalType, error) {
	switch SignalType(s) {
	case SignalEntry, SignalExit, SignalRebalance:
		return SignalType(s), nil
	}
	return "", fmt.Errorf("unknown signal type %q", s)
}

// Trade is one immutable fill record reported by the execution engine.
type Trade struct {
	Timestamp  time.Time  `json:"timestamp"`
	Symbol     string     `json:"symbol"`
	TradeID    int64      `json:"trade_id"`
	Side       Side       `json:"side"`
	Price      float64    `json:"price"`
	Quantity   float64    `json:"quantity"`
	Fee        float64    `json:"fee"`
	Slippage   float64    `json:"slippage"`
	SignalType SignalType `json:"signal_type"`
}

// PortfolioState is the engine's own per-timestamp account snapshot. It is
// secondary to the reconstructed series and only used for cross-checking.
type PortfolioState struct {
	Timestamp     time.Time `json:"timestamp"`
	Cash          float64   `json:"cash"`
	Position      float64   `json:"position"`
	HoldingsValue float64   `json:"holdings_value"`
	TotalValue    float64   `json:"total_value"`
	LastPrice     float64   `json:"last_price"`
}

// Input is the full payload for one engine round trip.
type Input struct {
	Symbol         string
	Bars           []marketdata.Bar
	Signals        []strategy.Signal
	InitialCapital float64
	PositionSize   float64
}

// Result holds the decoded output of one engine run.
type Result struct {
	Trades []Trade
	States []PortfolioState
}

// Executor abstracts the execution engine backend so the subprocess binary
// can be swapped for an embedded or remote implementation.
type Executor interface {
	Execute(ctx context.Context, in Input) (*Result, error)
}
