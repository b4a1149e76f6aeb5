package skills

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hsinyulin/finchat/internal/genai"
	"github.com/hsinyulin/finchat/internal/marketdata"
	"github.com/hsinyulin/finchat/internal/models"
	"github.com/openai/openai-go"
)

// mockGenAI records prompts and returns a canned reply.
type mockGenAI struct {
	reply    string
	err      error
	system   string
	user     string
	messages []openai.ChatCompletionMessageParamUnion
	opts     int
}

func (m *mockGenAI) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, opts ...genai.CallOption) (string, error) {
	m.messages = messages
	m.opts = len(opts)
	return m.reply, m.err
}

func (m *mockGenAI) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.system = systemPrompt
	m.user = userPrompt
	return m.reply, m.err
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(models.SkillCrypto, HandlerFunc(func(ctx context.Context, arg string) (string, error) {
		return "price: " + arg, nil
	}))

	h, ok := r.Lookup(models.SkillCrypto)
	if !ok {
		t.Fatal("expected registered handler")
	}
	out, err := h.Handle(context.Background(), "bitcoin")
	if err != nil || out != "price: bitcoin" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}

	if _, ok := r.Lookup(models.SkillStock); ok {
		t.Error("expected missing handler lookup to fail")
	}
}

const chartOK = `{"chart":{"result":[{"timestamp":[1756339200,1756425600],
	"indicators":{"quote":[{"close":[1040.0,1045.5]}]}}],"error":null}}`

func newQuoteTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "quoteSummary") {
			fmt.Fprint(w, `{"quoteSummary":{"result":[{"earnings":{"financialsChart":{"quarterly":[
				{"date":"2Q2026","revenue":{"raw":100},"earnings":{"raw":30}}
			]}}}]}}`)
			return
		}
		fmt.Fprint(w, chartOK)
	}))
}

func TestStockHandleAssemblesPrompt(t *testing.T) {
	quoteSrv := newQuoteTestServer(t)
	defer quoteSrv.Close()
	newsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><rss><channel><item><title>新聞一</title></item></channel></rss>`)
	}))
	defer newsSrv.Close()

	quotes := marketdata.NewQuotes(marketdata.WithQuoteBaseURL(quoteSrv.URL))
	mock := &mockGenAI{reply: "分析報告"}
	stock := NewStock(mock, quotes, marketdata.NewFundamentals(quotes),
		marketdata.NewNews(marketdata.WithNewsBaseURL(newsSrv.URL)), nil)

	out, err := stock.Handle(context.Background(), "2330")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "分析報告" {
		t.Errorf("unexpected reply %q", out)
	}
	if !strings.Contains(mock.user, "近期價格資訊") {
		t.Error("prompt missing price block")
	}
	if !strings.Contains(mock.user, "每季營收資訊") {
		t.Error("prompt missing fundamentals block")
	}
	if !strings.Contains(mock.user, "新聞一") {
		t.Error("prompt missing news block")
	}
	if !strings.Contains(mock.user, "請給我2330近期的趨勢報告") {
		t.Error("prompt missing report request")
	}
	if !strings.Contains(mock.system, "證券分析師") {
		t.Error("unexpected system prompt")
	}
}

func TestStockHandleIndexSkipsFundamentals(t *testing.T) {
	quoteSrv := newQuoteTestServer(t)
	defer quoteSrv.Close()
	newsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><rss><channel><item><title>大盤新聞</title></item></channel></rss>`)
	}))
	defer newsSrv.Close()

	quotes := marketdata.NewQuotes(marketdata.WithQuoteBaseURL(quoteSrv.URL))
	mock := &mockGenAI{reply: "ok"}
	stock := NewStock(mock, quotes, marketdata.NewFundamentals(quotes),
		marketdata.NewNews(marketdata.WithNewsBaseURL(newsSrv.URL)), nil)

	if _, err := stock.Handle(context.Background(), "大盤"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(mock.user, "每季營收資訊") {
		t.Error("index prompt should not include fundamentals")
	}
	if !strings.Contains(mock.user, "台股大盤") {
		t.Error("index prompt should use the market name")
	}
}

func TestStockHandlePriceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	quotes := marketdata.NewQuotes(marketdata.WithQuoteBaseURL(srv.URL))
	stock := NewStock(&mockGenAI{}, quotes, marketdata.NewFundamentals(quotes),
		marketdata.NewNews(marketdata.WithNewsBaseURL(srv.URL)), nil)

	if _, err := stock.Handle(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error when price data is unavailable")
	}
}

func TestCurrencyHandle(t *testing.T) {
	quoteSrv := newQuoteTestServer(t)
	defer quoteSrv.Close()

	mock := &mockGenAI{reply: "匯率說明"}
	c := NewCurrency(mock, marketdata.NewQuotes(marketdata.WithQuoteBaseURL(quoteSrv.URL)))

	out, err := c.Handle(context.Background(), "JPY")
	if err != nil || out != "匯率說明" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}
	if !strings.Contains(mock.user, "日圓") {
		t.Error("prompt should name the currency")
	}

	if _, err := c.Handle(context.Background(), "EUR"); err == nil {
		t.Error("expected error for unsupported currency")
	}
}

func TestCompanionHandleUsesPersona(t *testing.T) {
	mock := &mockGenAI{reply: "親愛的～"}
	c := NewCompanion(mock)

	out, err := c.Handle(context.Background(), "老公")
	if err != nil || out != "親愛的～" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}
	if len(mock.messages) != 3 {
		t.Fatalf("expected persona priming messages, got %d", len(mock.messages))
	}
	if mock.opts != 1 {
		t.Error("expected per-call temperature option")
	}
}

func TestMetalHandleErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGold(&mockGenAI{err: errors.New("should not be called")},
		marketdata.NewQuotes(marketdata.WithQuoteBaseURL(srv.URL)))
	if _, err := g.Handle(context.Background(), "金價多少"); err == nil {
		t.Fatal("expected error when the price source fails")
	}
}
