package jobs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const searchResponse = `{"data":{"list":[
	{"jobName":"後端工程師","custName":"某科技公司","salaryDesc":"月薪60,000~90,000元","jobAddrNoDesc":"台北市信義區"},
	{"jobName":"資深後端工程師","custName":"另一間公司","salaryDesc":"面議","jobAddrNoDesc":"新北市板橋區"}
]}}`

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("keyword"); got != "後端工程師" {
			t.Errorf("unexpected keyword %q", got)
		}
		if got := r.URL.Query().Get("ro"); got != TermFullTime {
			t.Errorf("unexpected term %q", got)
		}
		if r.Header.Get("Referer") == "" {
			t.Error("expected Referer header")
		}
		fmt.Fprint(w, searchResponse)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	listings, err := c.Search(context.Background(), "後端工程師", TermFullTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[0].Company != "某科技公司" {
		t.Errorf("unexpected company %q", listings[0].Company)
	}
}

func TestSearchRespectsMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchResponse)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithMaxResults(1))
	listings, err := c.Search(context.Background(), "工程師", TermAny)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected capped listings, got %d", len(listings))
	}
}

func TestSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"list":[]}}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.Search(context.Background(), "不存在的職務", TermAny); err == nil {
		t.Fatal("expected error for empty result")
	}
}

func TestFormat(t *testing.T) {
	out := Format([]Listing{{Title: "工讀生", Company: "小店", Salary: "時薪190元", Area: "台中市"}})
	if !strings.Contains(out, "1. 工讀生｜小店｜時薪190元｜台中市") {
		t.Errorf("unexpected format: %s", out)
	}
}
