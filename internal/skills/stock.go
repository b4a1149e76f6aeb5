package skills

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hsinyulin/finchat/internal/genai"
	"github.com/hsinyulin/finchat/internal/marketdata"
)

const stockSystemPrompt = "你是一位專業的證券分析師，" +
	"你會統整近期的股價、基本面、新聞資訊等方面，並進行完整的趨勢分析。" +
	"請使用台灣地區的繁體中文回答。"

// Index symbols for the market-wide arguments produced by the classifier.
const (
	taiwanIndexSymbol = "^TWII"
	usIndexSymbol     = "^GSPC"
)

// Stock produces an analyst report for a stock code, ticker, or market index.
type Stock struct {
	genAI        genai.ClientInterface
	quotes       *marketdata.Quotes
	fundamentals *marketdata.Fundamentals
	news         *marketdata.News
	catalog      *marketdata.Catalog
}

// NewStock wires the stock skill. catalog may be nil; names then fall back to
// the raw stock id.
func NewStock(genAI genai.ClientInterface, quotes *marketdata.Quotes, fundamentals *marketdata.Fundamentals, news *marketdata.News, catalog *marketdata.Catalog) *Stock {
	return &Stock{genAI: genAI, quotes: quotes, fundamentals: fundamentals, news: news, catalog: catalog}
}

// Handle assembles the analysis prompt from price, fundamentals, and news
// blocks and asks the chat backend for the report.
func (s *Stock) Handle(ctx context.Context, stockID string) (string, error) {
	symbol, name, isIndex := s.resolve(ctx, stockID)

	priceBlock, err := s.quotes.DailyAuto(ctx, symbol)
	if err != nil {
		return "", fmt.Errorf("fetch price data for %s: %w", stockID, err)
	}

	var sb strings.Builder
	sb.WriteString("你現在是一位專業的證券分析師，你會依據以下資料來進行分析並給出一份完整的分析報告:\n")
	fmt.Fprintf(&sb, "近期價格資訊:\n%s\n", priceBlock)

	// Index-wide queries have no per-company revenue to report.
	if !isIndex {
		if fundamentalBlock, err := s.fundamentals.Quarterly(ctx, stockID); err != nil {
			slog.Debug("Stock.Handle: fundamentals unavailable", "stock_id", stockID, "error", err)
			sb.WriteString("每季營收資訊無法取得。\n")
		} else {
			fmt.Fprintf(&sb, "每季營收資訊：\n%s\n", fundamentalBlock)
		}
	}

	if newsBlock, err := s.news.Headlines(ctx, name, 5); err != nil {
		slog.Debug("Stock.Handle: news unavailable", "keyword", name, "error", err)
	} else {
		fmt.Fprintf(&sb, "近期新聞資訊:\n%s\n", newsBlock)
	}

	fmt.Fprintf(&sb, "請給我%s近期的趨勢報告，並以詳細、嚴謹及專業的角度撰寫此報告，請使用台灣地區的繁體中文回答。", name)

	return s.genAI.GeneratePrompt(ctx, stockSystemPrompt, sb.String())
}

func (s *Stock) resolve(ctx context.Context, stockID string) (symbol, name string, isIndex bool) {
	switch stockID {
	case "大盤":
		return taiwanIndexSymbol, "台股大盤", true
	case "美盤":
		return usIndexSymbol, "美國大盤", true
	}
	name = stockID
	if s.catalog != nil {
		name = s.catalog.LookupName(ctx, stockID)
	}
	return stockID, name, false
}
