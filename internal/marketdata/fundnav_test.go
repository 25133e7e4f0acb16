package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysoda/indexpulse/pkg/httputil"
	"github.com/ysoda/indexpulse/pkg/logger"
)

const fundPageHTML = `
<html><body>
<table class="nav">
  <tr><th>Date</th><th>NAV</th></tr>
  <tr><td>2024/01/05</td><td>31,250円</td></tr>
  <tr><td>2024/01/04</td><td>31,100円</td></tr>
  <tr><td>2024/01/03</td><td>30,980円</td></tr>
  <tr><td>not-a-date</td><td>123</td></tr>
  <tr><td>2024/01/02</td><td>n/a</td></tr>
</table>
</body></html>`

func newTestScraper(t *testing.T, html string) *FundNAVScraper {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, html)
	}))
	t.Cleanup(server.Close)

	client := httputil.New(logger.NewNop(), 5*time.Second).DisableRetry()
	return NewFundNAVScraper(client, logger.NewNop(), server.URL)
}

func TestFundNAVScraper_GetHistory(t *testing.T) {
	scraper := newTestScraper(t, fundPageHTML)

	series, err := scraper.GetHistory(context.Background(), "",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Malformed rows are skipped; valid rows come back oldest first.
	require.Len(t, series, 3)
	assert.Equal(t, 30980.0, series[0].Close)
	assert.Equal(t, 31250.0, series[2].Close)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i].Date.After(series[i-1].Date))
	}
}

func TestFundNAVScraper_WindowFilter(t *testing.T) {
	scraper := newTestScraper(t, fundPageHTML)

	series, err := scraper.GetHistory(context.Background(), "",
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, series, 1)
	assert.Equal(t, 31100.0, series[0].Close)
}

func TestFundNAVScraper_EmptyPage(t *testing.T) {
	scraper := newTestScraper(t, "<html><body><p>maintenance</p></body></html>")

	_, err := scraper.GetHistory(context.Background(), "",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestFundNAVScraper_GetCurrentPrice(t *testing.T) {
	now := time.Now().UTC()
	html := fmt.Sprintf(`<table>
		<tr><td>%s</td><td>30,000</td></tr>
		<tr><td>%s</td><td>29,900</td></tr>
	</table>`,
		now.Format("2006/01/02"),
		now.AddDate(0, 0, -1).Format("2006/01/02"))

	scraper := newTestScraper(t, html)

	quote, err := scraper.GetCurrentPrice(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 30000.0, quote.Price)
	assert.Equal(t, "fund_page", quote.Source)
}
