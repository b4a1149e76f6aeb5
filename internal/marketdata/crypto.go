package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultCryptoBaseURL is the CoinGecko API endpoint.
const DefaultCryptoBaseURL = "https://api.coingecko.com"

// Crypto fetches spot prices by CoinGecko coin id.
type Crypto struct {
	httpClient *http.Client
	baseURL    string
}

// CryptoOption configures a Crypto client.
type CryptoOption func(*Crypto)

// WithCryptoBaseURL overrides the API endpoint (used by tests).
func WithCryptoBaseURL(u string) CryptoOption {
	return func(c *Crypto) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithCryptoHTTPClient overrides the HTTP client.
func WithCryptoHTTPClient(hc *http.Client) CryptoOption {
	return func(c *Crypto) { c.httpClient = hc }
}

// NewCrypto creates a spot price fetcher.
func NewCrypto(opts ...CryptoOption) *Crypto {
	c := &Crypto{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultCryptoBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SpotPrice returns a one-line USD/TWD spot price summary for a coin id
// such as "bitcoin" or "dogecoin".
func (c *Crypto) SpotPrice(ctx context.Context, coinID string) (string, error) {
	coinID = strings.ToLower(strings.TrimSpace(coinID))
	if coinID == "" {
		return "", fmt.Errorf("empty coin id")
	}

	endpoint := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd,twd", c.baseURL, url.QueryEscape(coinID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build crypto request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("crypto request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("crypto request returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read crypto response: %w", err)
	}

	coin := gjson.GetBytes(body, coinID)
	if !coin.Exists() {
		return "", fmt.Errorf("unknown coin id %q", coinID)
	}
	usd := coin.Get("usd").Float()
	twd := coin.Get("twd").Float()
	return fmt.Sprintf("%s 現價 %.2f USD（約 %.0f TWD）", coinID, usd, twd), nil
}
