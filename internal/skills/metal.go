package skills

import (
	"context"
	"fmt"

	"github.com/hsinyulin/finchat/internal/genai"
	"github.com/hsinyulin/finchat/internal/marketdata"
)

const metalSystemPrompt = "你是一位專業的貴金屬分析師，" +
	"你會依據近期價格資料分析走勢並給出簡短建議。請使用台灣地區的繁體中文回答。"

// Futures symbols backing the metal price lookups.
const (
	goldSymbol     = "GC=F"
	platinumSymbol = "PL=F"
)

// Metal answers gold and platinum price queries.
type Metal struct {
	genAI  genai.ClientInterface
	quotes *marketdata.Quotes
	symbol string
	label  string
}

// NewGold wires the gold skill.
func NewGold(genAI genai.ClientInterface, quotes *marketdata.Quotes) *Metal {
	return &Metal{genAI: genAI, quotes: quotes, symbol: goldSymbol, label: "黃金"}
}

// NewPlatinum wires the platinum skill.
func NewPlatinum(genAI genai.ClientInterface, quotes *marketdata.Quotes) *Metal {
	return &Metal{genAI: genAI, quotes: quotes, symbol: platinumSymbol, label: "鉑金"}
}

// Handle fetches the recent futures series and asks for a short analysis.
// The argument (the user's original question) is forwarded to the prompt.
func (m *Metal) Handle(ctx context.Context, arg string) (string, error) {
	priceBlock, err := m.quotes.Daily(ctx, m.symbol)
	if err != nil {
		return "", fmt.Errorf("fetch %s price data: %w", m.label, err)
	}

	user := fmt.Sprintf("以下是%s近期的期貨價格:\n%s\n使用者的問題是：%s\n請簡短分析近期走勢並回答。",
		m.label, priceBlock, arg)
	return m.genAI.GeneratePrompt(ctx, metalSystemPrompt, user)
}
