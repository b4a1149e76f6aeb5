package marketdata

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultNewsBaseURL is the Google News RSS endpoint.
const DefaultNewsBaseURL = "https://news.google.com"

// MaxNewsRunes bounds the news block handed to the prompt assembler.
const MaxNewsRunes = 1024

// News fetches recent headlines for a keyword.
type News struct {
	httpClient *http.Client
	baseURL    string
}

// NewsOption configures a News client.
type NewsOption func(*News)

// WithNewsBaseURL overrides the RSS endpoint (used by tests).
func WithNewsBaseURL(u string) NewsOption {
	return func(n *News) { n.baseURL = strings.TrimSuffix(u, "/") }
}

// WithNewsHTTPClient overrides the HTTP client.
func WithNewsHTTPClient(c *http.Client) NewsOption {
	return func(n *News) { n.httpClient = c }
}

// NewNews creates a headline fetcher.
func NewNews(opts ...NewsOption) *News {
	n := &News{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultNewsBaseURL,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			PubDate string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Headlines returns up to limit recent headline titles for a keyword, cleaned
// of full-width spaces and truncated to MaxNewsRunes.
func (n *News) Headlines(ctx context.Context, keyword string, limit int) (string, error) {
	endpoint := fmt.Sprintf("%s/rss/search?q=%s&hl=zh-TW&gl=TW&ceid=TW:zh-Hant", n.baseURL, url.QueryEscape(keyword))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build news request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("news request returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read news response: %w", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", fmt.Errorf("parse news feed: %w", err)
	}

	var titles []string
	for i, item := range feed.Channel.Items {
		if limit > 0 && i >= limit {
			break
		}
		titles = append(titles, "- "+item.Title)
	}
	if len(titles) == 0 {
		return "", fmt.Errorf("no news found for %q", keyword)
	}

	block := RemoveFullWidthSpaces(strings.Join(titles, "\n"))
	return TruncateRunes(block, MaxNewsRunes), nil
}

// RemoveFullWidthSpaces replaces ideographic spaces common in Taiwanese news
// titles with plain spaces.
func RemoveFullWidthSpaces(s string) string {
	return strings.ReplaceAll(s, "　", " ")
}

// TruncateRunes bounds a string to at most n runes.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
