package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/quantframe/backtest/internal/analytics"
	"github.com/quantframe/backtest/internal/config"
	"github.com/quantframe/backtest/internal/engine"
	"github.com/quantframe/backtest/internal/marketdata"
	"github.com/quantframe/backtest/internal/observ"
	"github.com/quantframe/backtest/internal/portfolio"
	"github.com/quantframe/backtest/internal/report"
	"github.com/quantframe/backtest/internal/strategy"
)

const sampleSeed = 42

func main() {
	var (
		configPath   = flag.String("config", "", "path to YAML config (optional)")
		enginePath   = flag.String("engine", "", "path to execution engine binary")
		symbol       = flag.String("symbol", "", "symbol to fetch from Alpha Vantage; empty uses csv/sample data")
		csvPath      = flag.String("csv", "", "path to OHLCV CSV file")
		strategyName = flag.String("strategy", "", "strategy to run: ma_cross | rsi")
		capital      = flag.Float64("capital", 0, "initial capital")
		positionSize = flag.Float64("size", 0, "position size fraction per trade")
		outDir       = flag.String("out-dir", "", "directory for series CSV and result JSON (optional)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// Flags win over config.
	if *enginePath != "" {
		cfg.Engine.Path = *enginePath
	}
	if *symbol != "" {
		cfg.Backtest.Symbol = *symbol
	}
	if *csvPath != "" {
		cfg.Data.CSVPath = *csvPath
	}
	if *strategyName != "" {
		cfg.Strategy.Name = *strategyName
	}
	if *capital != 0 {
		cfg.Backtest.InitialCapital = *capital
	}
	if *positionSize != 0 {
		cfg.Backtest.PositionSize = *positionSize
	}
	if cfg.Engine.Path == "" {
		log.Fatalf("no engine binary configured; pass -engine or set engine.path")
	}

	bars, err := loadBars(cfg)
	if err != nil {
		log.Fatalf("load bars: %v", err)
	}
	if err := marketdata.ValidateBars(bars); err != nil {
		log.Fatalf("invalid bar series: %v", err)
	}

	strat, err := strategy.New(cfg.Strategy.Name, strategy.Params{
		ShortWindow: cfg.Strategy.ShortWindow,
		LongWindow:  cfg.Strategy.LongWindow,
		RSIPeriod:   cfg.Strategy.RSIPeriod,
		RSILower:    cfg.Strategy.RSILower,
		RSIUpper:    cfg.Strategy.RSIUpper,
	})
	if err != nil {
		log.Fatalf("build strategy: %v", err)
	}

	observ.Log("backtest_started", map[string]any{
		"strategy": strat.Name(),
		"bars":     len(bars),
		"capital":  cfg.Backtest.InitialCapital,
	})

	signals, err := strat.Signals(bars)
	if err != nil {
		log.Fatalf("generate signals: %v", err)
	}

	executor, err := engine.NewSubprocessExecutor(engine.SubprocessConfig{
		Path:    cfg.Engine.Path,
		Timeout: time.Duration(cfg.Engine.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("validate engine: %v", err)
	}

	result, err := executor.Execute(context.Background(), engine.Input{
		Symbol:         cfg.Backtest.Symbol,
		Bars:           bars,
		Signals:        signals,
		InitialCapital: cfg.Backtest.InitialCapital,
		PositionSize:   cfg.Backtest.PositionSize,
	})
	if err != nil {
		log.Fatalf("engine run: %v", err)
	}

	series := portfolio.Build(result.Trades, bars, cfg.Backtest.InitialCapital)
	summary := portfolio.Summarize(result.Trades, series, cfg.Backtest.InitialCapital)
	metrics := analytics.Compute(series, cfg.Backtest.RiskFreeRate, len(result.Trades))

	observ.SetGauge("backtest_total_return", metrics.TotalReturn, nil)
	observ.SetGauge("backtest_max_drawdown", metrics.MaxDrawdown, nil)
	observ.Log("backtest_completed", map[string]any{
		"strategy":     strat.Name(),
		"trades":       summary.TotalTrades,
		"total_return": metrics.TotalReturn,
		"sharpe":       metrics.SharpeRatio,
	})

	report.RenderSummary(os.Stdout, summary, metrics)

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			log.Fatalf("create output dir: %v", err)
		}
		seriesPath := filepath.Join(*outDir, "portfolio.csv")
		if err := report.WriteSeriesCSV(seriesPath, series); err != nil {
			log.Fatalf("write series csv: %v", err)
		}
		resultPath := filepath.Join(*outDir, "result.json")
		if err := report.WriteMetricsJSON(resultPath, summary, metrics); err != nil {
			log.Fatalf("write result json: %v", err)
		}
		fmt.Printf("wrote %s and %s\n", seriesPath, resultPath)
	}
}

// loadBars picks the data source by precedence: CSV file, then Alpha Vantage
// when a symbol is configured, then the synthetic sample series.
func loadBars(cfg config.Root) ([]marketdata.Bar, error) {
	if cfg.Data.CSVPath != "" {
		return marketdata.LoadCSV(cfg.Data.CSVPath)
	}
	if cfg.Backtest.Symbol != "" && cfg.Data.AlphaVantage.APIKey != "" {
		source, err := marketdata.NewAlphaVantageSource(marketdata.AlphaVantageConfig{
			APIKey:             cfg.Data.AlphaVantage.APIKey,
			RateLimitPerMinute: cfg.Data.AlphaVantage.RateLimitPerMinute,
			TimeoutSeconds:     cfg.Data.AlphaVantage.TimeoutSeconds,
		})
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return source.FetchDaily(ctx, cfg.Backtest.Symbol)
	}
	return marketdata.SampleSeries(cfg.Data.SampleDays, sampleSeed), nil
}
