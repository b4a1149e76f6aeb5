// Package jobs searches the 104 job bank for full-time and part-time listings.
package jobs

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

// DefaultBaseURL is the 104 job bank search endpoint.
const DefaultBaseURL = "https://www.104.com.tw"

// DefaultMaxResults bounds how many listings go into a reply.
const DefaultMaxResults = 10

// Employment term filters accepted by the search API.
const (
	TermAny      = "0"
	TermFullTime = "1"
	TermPartTime = "2"
)

// Client queries the 104 search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxResults int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the search endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxResults overrides the listing cap.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// NewClient creates a 104 search client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Listing is one search result.
type Listing struct {
	Title   string
	Company string
	Salary  string
	Area    string
}

// Search queries listings for a keyword under the given employment term.
func (c *Client) Search(ctx context.Context, keyword, term string) ([]Listing, error) {
	params := url.Values{}
	params.Set("ro", term)
	params.Set("kwop", "7")
	params.Set("keyword", keyword)
	params.Set("mode", "s")
	params.Set("jobsource", "2018indexpoc")

	endpoint := fmt.Sprintf("%s/jobs/search/list?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build job search request: %w", err)
	}
	// The list API rejects requests without a search-page referer.
	req.Header.Set("Referer", c.baseURL+"/jobs/search/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; finchat/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("job search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job search returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read job search response: %w", err)
	}

	var listings []Listing
	for _, item := range gjson.GetBytes(body, "data.list").Array() {
		if len(listings) >= c.maxResults {
			break
		}
		listings = append(listings, Listing{
			Title:   item.Get("jobName").String(),
			Company: item.Get("custName").String(),
			Salary:  item.Get("salaryDesc").String(),
			Area:    item.Get("jobAddrNoDesc").String(),
		})
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("no listings found for %q", keyword)
	}
	return listings, nil
}

// Format renders listings as reply-ready text.
func Format(listings []Listing) string {
	var sb strings.Builder
	for i, l := range listings {
		fmt.Fprintf(&sb, "%d. %s｜%s｜%s｜%s\n", i+1, l.Title, l.Company, l.Salary, l.Area)
	}
	return sb.String()
}
