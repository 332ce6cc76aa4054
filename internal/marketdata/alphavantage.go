package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// AlphaVantageConfig holds configuration for the Alpha Vantage bar source.
type AlphaVantageConfig struct {
	APIKey             string
	BaseURL            string
	RateLimitPerMinute int
	TimeoutSeconds     int
}

// AlphaVantageSource fetches daily OHLCV bars from the Alpha Vantage API,
// rate limited to stay inside the free-tier request budget.
type AlphaVantageSource struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

var _ Source = (*AlphaVantageSource)(nil)

// NewAlphaVantageSource creates a rate-limited Alpha Vantage daily bar source.
func NewAlphaVantageSource(config AlphaVantageConfig) (*AlphaVantageSource, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Alpha Vantage API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://www.alphavantage.co/query"
	}
	if config.RateLimitPerMinute <= 0 {
		config.RateLimitPerMinute = 5 // Free tier limit
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 10
	}

	return &AlphaVantageSource{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(config.RateLimitPerMinute)/60), 1),
	}, nil
}

// avDailyResponse mirrors the TIME_SERIES_DAILY payload shape.
type avDailyResponse struct {
	Series  map[string]map[string]string `json:"Time Series (Daily)"`
	Note    string                       `json:"Note"`
	Message string                       `json:"Error Message"`
}

// FetchDaily returns the full daily history for symbol, oldest bar first.
func (av *AlphaVantageSource) FetchDaily(ctx context.Context, symbol string) ([]Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	if err := av.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("outputsize", "full")
	params.Set("apikey", av.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, av.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", symbol, err)
	}

	resp, err := av.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage returned HTTP %d for %s", resp.StatusCode, symbol)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response for %s: %w", symbol, err)
	}

	var payload avDailyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse response for %s: %w", symbol, err)
	}
	if payload.Message != "" {
		return nil, fmt.Errorf("alphavantage error for %s: %s", symbol, payload.Message)
	}
	if payload.Note != "" {
		return nil, fmt.Errorf("alphavantage rate limit note for %s: %s", symbol, payload.Note)
	}
	if len(payload.Series) == 0 {
		return nil, fmt.Errorf("no daily series for %s", symbol)
	}

	bars := make([]Bar, 0, len(payload.Series))
	for date, fields := range payload.Series {
		ts, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("bad date %q for %s: %w", date, symbol, err)
		}
		b := Bar{Timestamp: ts}
		for key, dst := range map[string]*float64{
			"1. open": &b.Open, "2. high": &b.High, "3. low": &b.Low,
			"4. close": &b.Close, "5. volume": &b.Volume,
		} {
			raw, ok := fields[key]
			if !ok {
				return nil, fmt.Errorf("missing field %q for %s on %s", key, symbol, date)
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("bad %s value %q for %s on %s", key, raw, symbol, date)
			}
			*dst = v
		}
		bars = append(bars, b)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}
