package skills

import (
	"context"
	"fmt"

	"github.com/hsinyulin/finchat/internal/genai"
	"github.com/hsinyulin/finchat/internal/marketdata"
)

const currencySystemPrompt = "你是一位外匯分析師，" +
	"你會依據近期匯率資料說明現況與走勢。請使用台灣地區的繁體中文回答。"

// FX pair symbols for the currencies the classifier extracts, quoted in TWD.
var currencySymbols = map[string]struct {
	symbol string
	label  string
}{
	"JPY": {symbol: "JPYTWD=X", label: "日圓"},
	"USD": {symbol: "TWD=X", label: "美元"},
}

// Currency answers exchange-rate queries for a currency code.
type Currency struct {
	genAI  genai.ClientInterface
	quotes *marketdata.Quotes
}

// NewCurrency wires the currency skill.
func NewCurrency(genAI genai.ClientInterface, quotes *marketdata.Quotes) *Currency {
	return &Currency{genAI: genAI, quotes: quotes}
}

// Handle fetches the recent rate series for the currency code and asks for a
// short summary.
func (c *Currency) Handle(ctx context.Context, code string) (string, error) {
	pair, ok := currencySymbols[code]
	if !ok {
		return "", fmt.Errorf("unsupported currency %q", code)
	}

	rateBlock, err := c.quotes.Daily(ctx, pair.symbol)
	if err != nil {
		return "", fmt.Errorf("fetch %s rate data: %w", code, err)
	}

	user := fmt.Sprintf("以下是%s兌新台幣近期的匯率:\n%s\n請簡短說明近期匯率走勢。", pair.label, rateBlock)
	return c.genAI.GeneratePrompt(ctx, currencySystemPrompt, user)
}
