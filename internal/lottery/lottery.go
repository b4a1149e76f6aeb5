// Package lottery fetches the latest Taiwan Lottery draw results.
package lottery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the Taiwan Lottery result API endpoint.
const DefaultBaseURL = "https://api.taiwanlottery.com"

// gameEndpoints maps the game names recognized by the classifier to their
// result API resources.
var gameEndpoints = map[string]string{
	"威力彩":   "SuperLotto638Result",
	"大樂透":   "Lotto649Result",
	"今彩539": "Daily539Result",
	"雙贏彩":   "Lotto1224Result",
	"三星彩":   "3DResult",
	"四星彩":   "4DResult",
	"38樂合彩": "38MonopolyResult",
	"39樂合彩": "39MonopolyResult",
	"49樂合彩": "49MonopolyResult",
}

// Client queries draw results.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a draw result client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GameFromMessage extracts the first known game name contained in a message.
func GameFromMessage(message string) (string, bool) {
	for game := range gameEndpoints {
		if strings.Contains(message, game) {
			return game, true
		}
	}
	return "", false
}

// LatestDraw returns a formatted summary of the most recent draw for a game.
func (c *Client) LatestDraw(ctx context.Context, game string) (string, error) {
	resource, ok := gameEndpoints[game]
	if !ok {
		return "", fmt.Errorf("unsupported lottery game %q", game)
	}

	month := time.Now().Format("2006-01")
	endpoint := fmt.Sprintf("%s/TLCAPIWeB/Lottery/%s?period&month=%s&pageNum=1&pageSize=1", c.baseURL, resource, month)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build lottery request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lottery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lottery request returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read lottery response: %w", err)
	}

	// The result array is keyed per game (e.g. superLotto638Res); take the
	// first array under content rather than hard-coding every key.
	var draw gjson.Result
	gjson.GetBytes(body, "content").ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() && len(value.Array()) > 0 {
			draw = value.Array()[0]
			return false
		}
		return true
	})
	if !draw.Exists() {
		return "", fmt.Errorf("no draw result for %s", game)
	}

	period := draw.Get("period").String()
	date := draw.Get("lotteryDate").String()
	var numbers []string
	for _, n := range draw.Get("drawNumberAppear").Array() {
		numbers = append(numbers, n.String())
	}
	if len(numbers) == 0 {
		return "", fmt.Errorf("draw result for %s has no numbers", game)
	}

	return fmt.Sprintf("%s 第 %s 期（%s）開獎號碼：%s", game, period, date, strings.Join(numbers, ", ")), nil
}
