package marketdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Fundamentals fetches quarterly revenue and earnings for a symbol. It shares
// the Quotes transport since both talk to the same finance API.
type Fundamentals struct {
	quotes *Quotes
}

// NewFundamentals creates a fundamentals fetcher on top of a Quotes client.
func NewFundamentals(quotes *Quotes) *Fundamentals {
	return &Fundamentals{quotes: quotes}
}

// Quarterly returns a formatted block of recent quarterly revenue and
// earnings figures. Taiwan numeric codes are resolved as TWSE symbols.
func (f *Fundamentals) Quarterly(ctx context.Context, stockID string) (string, error) {
	symbol := stockID
	if IsTaiwanCode(stockID) {
		symbol = stockID + ".TW"
	}

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=earnings", f.quotes.baseURL, symbol)
	body, err := f.quotes.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	quarters := gjson.GetBytes(body, "quoteSummary.result.0.earnings.financialsChart.quarterly").Array()
	if len(quarters) == 0 {
		return "", fmt.Errorf("no quarterly earnings found for %s", symbol)
	}

	var sb strings.Builder
	for _, q := range quarters {
		date := q.Get("date").String()
		revenue := q.Get("revenue.raw").Float()
		earnings := q.Get("earnings.raw").Float()
		fmt.Fprintf(&sb, "%s 營收 %.0f 盈餘 %.0f\n", date, revenue, earnings)
	}
	return sb.String(), nil
}
