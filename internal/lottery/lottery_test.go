package lottery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGameFromMessage(t *testing.T) {
	if game, ok := GameFromMessage("威力彩開獎號碼"); !ok || game != "威力彩" {
		t.Errorf("expected 威力彩, got %q ok=%v", game, ok)
	}
	if _, ok := GameFromMessage("今天天氣"); ok {
		t.Error("expected no game match")
	}
}

func TestLatestDraw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "SuperLotto638Result") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"content":{"superLotto638Res":[
			{"period":113000088,"lotteryDate":"2026-08-28T00:00:00","drawNumberAppear":[3,11,20,25,31,36,7]}
		]}}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	out, err := c.LatestDraw(context.Background(), "威力彩")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "威力彩") || !strings.Contains(out, "3, 11, 20") {
		t.Errorf("unexpected summary: %s", out)
	}
}

func TestLatestDrawUnsupportedGame(t *testing.T) {
	c := NewClient()
	if _, err := c.LatestDraw(context.Background(), "六合彩"); err == nil {
		t.Fatal("expected error for unsupported game")
	}
}

func TestLatestDrawEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":{"daily539Res":[]}}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.LatestDraw(context.Background(), "今彩539"); err == nil {
		t.Fatal("expected error for empty draw list")
	}
}
