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

// NAVClient fetches official fund NAV history from a configured API base.
// It serves as the secondary source in the acquisition fallback chain.
type NAVClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	symbol     string
}

// NewNAVClient creates a NAV API client for one instrument.
func NewNAVClient(httpClient *httputil.Client, log *logger.Logger, baseURL, symbol string) *NAVClient {
	return &NAVClient{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		symbol:     symbol,
	}
}

// navPoint mirrors the NAV API history item.
type navPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// GetHistory fetches NAV history for [start, end].
func (c *NAVClient) GetHistory(ctx context.Context, symbol string, start, end time.Time) (contracts.Series, error) {
	if symbol == "" {
		symbol = c.symbol
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("start", start.Format("2006-01-02"))
	params.Set("end", end.Format("2006-01-02"))

	fullURL := fmt.Sprintf("%s/history?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL, nil)
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

	var points []navPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("decode NAV history: %w", err)
	}

	series := make(contracts.Series, 0, len(points))
	for _, p := range points {
		d, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			continue
		}
		series = append(series, contracts.PricePoint{Date: d, Close: p.Close})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%w from NAV API", ErrEmptyHistory)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"points": len(series),
	}).Debug("Fetched NAV history")

	return series, nil
}

// GetCurrentPrice returns the most recent NAV.
func (c *NAVClient) GetCurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	end := time.Now().UTC()
	series, err := c.GetHistory(ctx, symbol, end.AddDate(0, 0, -30), end)
	if err != nil {
		return Quote{}, err
	}

	last, ok := series.Last()
	if !ok {
		return Quote{}, ErrEmptyHistory
	}

	return Quote{Price: last.Close, Source: "nav_api"}, nil
}
