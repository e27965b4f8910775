package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFetchRates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/USD" {
			t.Errorf("path = %q, want /USD", r.URL.Path)
		}
		w.Write([]byte(`{"conversion_rates":{"USD":1,"EUR":0.9,"BAD":0,"NEG":-2}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	rates, err := c.FetchRates(context.Background(), "usd")
	if err != nil {
		t.Fatalf("FetchRates: %v", err)
	}
	if got := rates["EUR"]; !got.Equal(decimal.RequireFromString("0.9")) {
		t.Errorf("EUR rate = %v, want 0.9", got)
	}
	if _, ok := rates["BAD"]; ok {
		t.Error("zero rate was not dropped")
	}
	if _, ok := rates["NEG"]; ok {
		t.Error("negative rate was not dropped")
	}

	// Second call is served from cache.
	if _, err := c.FetchRates(context.Background(), "USD"); err != nil {
		t.Fatalf("cached FetchRates: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1 (second hit cached)", calls.Load())
	}
}

func TestFetchRates_ErrorPaths(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"empty body", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"conversion_rates":{}}`)) }},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`not json`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, time.Minute)
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			if _, err := c.FetchRates(ctx, "USD"); err == nil {
				t.Error("FetchRates = nil error, want failure")
			}
		})
	}
}

func TestFetchRates_EmptyBase(t *testing.T) {
	c := NewClient("http://localhost:0", time.Minute)
	if _, err := c.FetchRates(context.Background(), "  "); err == nil {
		t.Error("FetchRates with empty base = nil error, want failure")
	}
}
