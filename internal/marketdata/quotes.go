// Package marketdata provides the upstream data sources consumed by the
// skill handlers: daily quote series, news headlines, quarterly fundamentals,
// crypto spot prices, and the stock-name catalog.
package marketdata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultQuoteBaseURL is the Yahoo Finance chart API endpoint.
const DefaultQuoteBaseURL = "https://query1.finance.yahoo.com"

// Quotes fetches daily price series from the chart API.
type Quotes struct {
	httpClient *http.Client
	baseURL    string
}

// QuotesOption configures a Quotes client.
type QuotesOption func(*Quotes)

// WithQuoteBaseURL overrides the chart API endpoint (used by tests).
func WithQuoteBaseURL(u string) QuotesOption {
	return func(q *Quotes) { q.baseURL = strings.TrimSuffix(u, "/") }
}

// WithQuoteHTTPClient overrides the HTTP client.
func WithQuoteHTTPClient(c *http.Client) QuotesOption {
	return func(q *Quotes) { q.httpClient = c }
}

// NewQuotes creates a quote fetcher.
func NewQuotes(opts ...QuotesOption) *Quotes {
	q := &Quotes{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultQuoteBaseURL,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// IsTaiwanCode reports whether a stock id looks like a Taiwan-market numeric
// code (4 to 5 digits).
func IsTaiwanCode(stockID string) bool {
	if len(stockID) < 4 || len(stockID) > 5 {
		return false
	}
	for _, r := range stockID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DailyAuto fetches the recent daily series for a stock id, resolving Taiwan
// numeric codes against the TWSE listing first and the OTC listing second.
func (q *Quotes) DailyAuto(ctx context.Context, stockID string) (string, error) {
	if !IsTaiwanCode(stockID) {
		return q.Daily(ctx, stockID)
	}

	report, err := q.Daily(ctx, stockID+".TW")
	if err == nil {
		return report, nil
	}
	slog.Debug("Quotes.DailyAuto: TWSE listing failed, trying OTC", "stock_id", stockID, "error", err)
	report, otcErr := q.Daily(ctx, stockID+".TWO")
	if otcErr != nil {
		return "", fmt.Errorf("無法下載股票資料 (%s): %w", stockID, err)
	}
	return report, nil
}

// Daily fetches roughly a month of daily closes for one symbol and formats
// them as a price block: date, close, and day-over-day change.
func (q *Quotes) Daily(ctx context.Context, symbol string) (string, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1mo&interval=1d", q.baseURL, url.PathEscape(symbol))
	body, err := q.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	if desc := gjson.GetBytes(body, "chart.error.description"); desc.Exists() && desc.String() != "" {
		return "", fmt.Errorf("chart API error for %s: %s", symbol, desc.String())
	}
	timestamps := gjson.GetBytes(body, "chart.result.0.timestamp").Array()
	closes := gjson.GetBytes(body, "chart.result.0.indicators.quote.0.close").Array()
	if len(timestamps) == 0 || len(closes) == 0 {
		return "", fmt.Errorf("no data found for %s", symbol)
	}

	var sb strings.Builder
	prev := 0.0
	for i, ts := range timestamps {
		if i >= len(closes) || closes[i].Type == gjson.Null {
			continue
		}
		day := time.Unix(ts.Int(), 0).UTC().Format("2006-01-02")
		close := closes[i].Float()
		if prev == 0 {
			fmt.Fprintf(&sb, "%s 收盤 %.2f\n", day, close)
		} else {
			fmt.Fprintf(&sb, "%s 收盤 %.2f 漲跌 %+.2f\n", day, close, close-prev)
		}
		prev = close
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no usable closes for %s", symbol)
	}
	return sb.String(), nil
}

func (q *Quotes) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; finchat/1.0)")

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote request returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
