package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ysoda/indexpulse/internal/contracts"
	"github.com/ysoda/indexpulse/pkg/httputil"
	"github.com/ysoda/indexpulse/pkg/logger"
)

// FundNAVScraper extracts fund NAV history from an HTML page that carries
// a date/value table. Fund pages publish values behind markup rather than
// an API, so this is the secondary source for fund-quoted instruments.
type FundNAVScraper struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	pageURL    string
}

// NewFundNAVScraper creates a scraper for one fund page.
func NewFundNAVScraper(httpClient *httputil.Client, log *logger.Logger, pageURL string) *FundNAVScraper {
	return &FundNAVScraper{
		httpClient: httpClient,
		logger:     log,
		pageURL:    pageURL,
	}
}

// GetHistory scrapes the NAV table and keeps rows inside [start, end].
func (s *FundNAVScraper) GetHistory(ctx context.Context, _ string, start, end time.Time) (contracts.Series, error) {
	resp, err := s.httpClient.Get(ctx, s.pageURL, map[string]string{
		"User-Agent": yahooUserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	series := parseNAVTable(doc, start, end)
	if len(series) == 0 {
		return nil, fmt.Errorf("%w from fund page", ErrEmptyHistory)
	}

	s.logger.WithFields(map[string]interface{}{
		"url":    s.pageURL,
		"points": len(series),
	}).Debug("Scraped fund NAV history")

	return series, nil
}

// GetCurrentPrice returns the newest NAV row on the page.
func (s *FundNAVScraper) GetCurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	end := time.Now().UTC()
	series, err := s.GetHistory(ctx, symbol, end.AddDate(0, -1, 0), end)
	if err != nil {
		return Quote{}, err
	}

	last, _ := series.Last()
	return Quote{Price: last.Close, Source: "fund_page"}, nil
}

// parseNAVTable walks every table row looking for a date cell followed by
// a numeric cell. Rows outside the window or with unparsable values are
// skipped.
func parseNAVTable(doc *goquery.Document, start, end time.Time) contracts.Series {
	var series contracts.Series

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		valueText := strings.TrimSpace(cells.Eq(1).Text())

		d, err := parseNAVDate(dateText)
		if err != nil {
			return
		}
		if d.Before(start) || d.After(end) {
			return
		}

		value, err := parseNAVValue(valueText)
		if err != nil || value <= 0 {
			return
		}

		series = append(series, contracts.PricePoint{Date: d, Close: value})
	})

	// Pages usually list newest first; the acquisition layer expects
	// strictly ascending dates.
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	return series
}

func parseNAVDate(text string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006/01/02", "2006.01.02"} {
		if d, err := time.Parse(layout, text); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %s", text)
}

func parseNAVValue(text string) (float64, error) {
	cleaned := strings.ReplaceAll(text, ",", "")
	cleaned = strings.TrimSuffix(cleaned, "円")
	return strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
}
