package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequest_GetDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "ETHUSDT" {
			t.Errorf("symbol = %q", got)
		}
		if got := r.Header.Get("X-Test"); got != "yes" {
			t.Errorf("header X-Test = %q", got)
		}
		fmt.Fprint(w, `{"symbol":"ETHUSDT","price":"3000.50"}`)
	}))
	defer srv.Close()

	c, err := New(WithBaseURL(srv.URL), WithHeaders(map[string]string{"X-Test": "yes"}))
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	resp, err := c.NewRequest().
		SetQueryParam("symbol", "ETHUSDT").
		SetResult(&out).
		Get(context.Background(), "/api/v3/ticker/price")
	if err != nil {
		t.Fatal(err)
	}
	if resp.IsError() {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out.Price != "3000.50" {
		t.Errorf("price = %q", out.Price)
	}
}

func TestRequest_ErrorHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	errLimited := errors.New("limited")
	c, err := New(WithBaseURL(srv.URL), WithResponseErrorHandler(func(status int, _ []byte) error {
		if status == http.StatusTooManyRequests {
			return errLimited
		}
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.NewRequest().Get(context.Background(), "x")
	if !errors.Is(err, errLimited) {
		t.Errorf("err = %v, want %v", err, errLimited)
	}
}

func TestRequest_PostJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.NewRequest().SetBody(map[string]int{"a": 1}).Post(context.Background(), "/rpc")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
