package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ysoda/indexpulse/internal/contracts"
	"github.com/ysoda/indexpulse/pkg/httputil"
	"github.com/ysoda/indexpulse/pkg/logger"
)

const yahooUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// YahooClient fetches daily closes from the Yahoo Finance chart API.
type YahooClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *YahooClient {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &YahooClient{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

// chartResponse mirrors the subset of the v8 chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetHistory fetches daily closes for [start, end]. Null closes (holiday
// placeholders) are dropped, matching the upstream dropna behavior.
func (c *YahooClient) GetHistory(ctx context.Context, symbol string, start, end time.Time) (contracts.Series, error) {
	// The chart API treats period2 as exclusive; push it one day forward
	// so the end date itself is included.
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	params.Set("period2", fmt.Sprintf("%d", end.AddDate(0, 0, 1).Unix()))
	params.Set("interval", "1d")

	body, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	series, _, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("parse chart for %s: %w", symbol, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrEmptyHistory, symbol)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"points": len(series),
	}).Debug("Fetched Yahoo history")

	return series, nil
}

// GetCurrentPrice returns the live price for a symbol, falling back to the
// last close of a short recent window when no live quote is present.
func (c *YahooClient) GetCurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	params := url.Values{}
	params.Set("range", "5d")
	params.Set("interval", "1d")

	body, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return Quote{}, err
	}

	series, live, err := parseChart(body)
	if err != nil {
		return Quote{}, fmt.Errorf("parse chart for %s: %w", symbol, err)
	}

	if live > 0 {
		return Quote{Price: live, Source: "yahoo_live"}, nil
	}
	if last, ok := series.Last(); ok {
		return Quote{Price: last.Close, Source: "yahoo_close"}, nil
	}

	return Quote{}, fmt.Errorf("%w for %s", ErrEmptyHistory, symbol)
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol string, params url.Values) ([]byte, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL, map[string]string{
		"User-Agent": yahooUserAgent,
		"Accept":     "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	return body, nil
}

// parseChart extracts the close series and the live quote from a chart
// payload.
func parseChart(body []byte) (contracts.Series, float64, error) {
	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("decode JSON: %w", err)
	}

	if payload.Chart.Error != nil {
		return nil, 0, fmt.Errorf("chart error: %s (%s)",
			payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, 0, fmt.Errorf("no chart result")
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, result.Meta.RegularMarketPrice, nil
	}

	closes := result.Indicators.Quote[0].Close
	series := make(contracts.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		day := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		series = append(series, contracts.PricePoint{Date: day, Close: *closes[i]})
	}

	return series, result.Meta.RegularMarketPrice, nil
}
