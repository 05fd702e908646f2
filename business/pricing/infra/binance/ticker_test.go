package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/logger"
)

func newTestTicker(t *testing.T, handler http.HandlerFunc) *Ticker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ticker, err := NewTicker(TickerConfig{
		BaseURL:  srv.URL,
		CacheTTL: time.Minute,
	}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ticker.Close() })
	return ticker
}

func TestTicker_EthUSDIsCached(t *testing.T) {
	var calls atomic.Int32
	ticker := newTestTicker(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != tickerEndpoint || r.URL.Query().Get("symbol") != "ETHUSDT" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"symbol":"ETHUSDT","price":"3012.45000000"}`))
	})

	for i := 0; i < 3; i++ {
		price, err := ticker.EthUSD(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !price.Equal(decimal.RequireFromString("3012.45")) {
			t.Errorf("price = %s", price)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestTicker_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ticker := newTestTicker(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"symbol":"ETHUSDT","price":"2999.9"}`))
	})

	price, err := ticker.EthUSD(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !price.Equal(decimal.RequireFromString("2999.9")) {
		t.Errorf("price = %s", price)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestTicker_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	ticker := newTestTicker(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	_, err := ticker.Price(context.Background(), "nope")
	if !apperror.HasCode(err, apperror.CodeTickerFetchFailed) {
		t.Fatalf("err = %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != -1121 {
		t.Errorf("want wrapped APIError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
