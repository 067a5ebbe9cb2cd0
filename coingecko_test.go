package valutatrade

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func TestCoinGeckoSupports(t *testing.T) {
	c := NewCoinGecko("", time.Second, 1, zerolog.Nop())
	tests := []struct {
		pair string
		want bool
	}{
		{"BTC/USD", true},
		{"ETH/EUR", true},
		{"SOL/BTC", true}, // BTC is a valid vs_currency
		{"EUR/USD", false},
		{"USD/BTC", false},
		{"SOL/DOGE", false}, // DOGE is no vs_currency
	}
	for _, tt := range tests {
		if got := c.Supports(MustParsePair(tt.pair)); got != tt.want {
			t.Errorf("Supports(%s) = %v, want %v", tt.pair, got, tt.want)
		}
	}
}

func TestCoinGeckoFetchRate(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("x-cg-demo-api-key")
		fmt.Fprint(w, `{"bitcoin":{"usd":59337.21}}`)
	}))
	defer srv.Close()

	c := NewCoinGecko("demo-key", time.Second, 1, zerolog.Nop())
	c.baseURL = srv.URL

	rate, err := c.FetchRate(context.Background(), MustParsePair("BTC/USD"))
	if err != nil {
		t.Fatal(err)
	}
	if !rate.Equal(R(decimal.RequireFromString("59337.21"))) {
		t.Errorf("rate = %v, want 59337.21", rate)
	}
	if want := "/simple/price?ids=bitcoin&vs_currencies=usd"; gotPath != want {
		t.Errorf("request = %q, want %q", gotPath, want)
	}
	if gotKey != "demo-key" {
		t.Errorf("api key header = %q", gotKey)
	}
}

func TestCoinGeckoFetchRateUnsupported(t *testing.T) {
	c := NewCoinGecko("", time.Second, 1, zerolog.Nop())
	_, err := c.FetchRate(context.Background(), MustParsePair("EUR/USD"))
	if !errors.Is(err, ErrUnsupportedPair) {
		t.Errorf("err = %v, want ErrUnsupportedPair", err)
	}
}

func TestCoinGeckoFetchRateBadPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing coin", `{}`},
		{"missing currency", `{"bitcoin":{}}`},
		{"non numeric", `{"bitcoin":{"usd":"high"}}`},
		{"non positive", `{"bitcoin":{"usd":0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := NewCoinGecko("", time.Second, 1, zerolog.Nop())
			c.baseURL = srv.URL
			if _, err := c.FetchRate(context.Background(), MustParsePair("BTC/USD")); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestCoinGeckoRetriesRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"bitcoin":{"usd":100}}`)
	}))
	defer srv.Close()

	c := NewCoinGecko("", 10*time.Second, 3, zerolog.Nop())
	c.baseURL = srv.URL

	rate, err := c.FetchRate(context.Background(), MustParsePair("BTC/USD"))
	if err != nil {
		t.Fatal(err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if !rate.Equal(R(100)) {
		t.Errorf("rate = %v, want 100", rate)
	}
}

func TestCoinGeckoRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCoinGecko("", 10*time.Second, 2, zerolog.Nop())
	c.baseURL = srv.URL

	if _, err := c.FetchRate(context.Background(), MustParsePair("BTC/USD")); err == nil {
		t.Error("expected an error after exhausting retries")
	}
}

func TestCoinGeckoBackoffHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCoinGecko("", 10*time.Second, 5, zerolog.Nop())
	c.baseURL = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.FetchRate(ctx, MustParsePair("BTC/USD"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("backoff ignored cancellation, took %v", elapsed)
	}
}
