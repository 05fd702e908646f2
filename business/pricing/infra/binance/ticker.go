// Package binance reads spot prices from the Binance REST API.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swapdesk/business/pricing/app"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/cache"
	"github.com/fd1az/swapdesk/internal/httpclient"
	"github.com/fd1az/swapdesk/internal/logger"
	"github.com/fd1az/swapdesk/internal/ratelimit"
)

const (
	tracerName = "binance"

	BaseAPIURL = "https://api.binance.com"

	tickerEndpoint = "/api/v3/ticker/price"

	defaultSymbol   = "ETHUSDT"
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 30 * time.Second
	maxAttempts     = 3
)

var _ app.PriceFeed = (*Ticker)(nil)

// TickerConfig holds configuration for the Binance ticker.
type TickerConfig struct {
	BaseURL           string
	Symbol            string
	RequestsPerMinute int
	CacheTTL          time.Duration
	Timeout           time.Duration
}

// Ticker implements app.PriceFeed on top of /api/v3/ticker/price.
type Ticker struct {
	client  httpclient.Client
	symbol  string
	limiter *ratelimit.Limiter
	prices  *cache.Memoizer[string, decimal.Decimal]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewTicker creates a Ticker.
func NewTicker(cfg TickerConfig, log logger.LoggerInterface) (*Ticker, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Symbol == "" {
		cfg.Symbol = defaultSymbol
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	client, err := httpclient.New(
		httpclient.WithProviderName("binance"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
		httpclient.WithResponseErrorHandler(binanceErrorHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	t := &Ticker{
		client:  client,
		symbol:  strings.ToUpper(cfg.Symbol),
		limiter: ratelimit.New(cfg.RequestsPerMinute),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	t.prices = cache.NewMemoizer(t.fetch, cfg.CacheTTL)
	return t, nil
}

// EthUSD returns the configured symbol's last price.
func (t *Ticker) EthUSD(ctx context.Context) (decimal.Decimal, error) {
	return t.Price(ctx, t.symbol)
}

// Price returns the last traded price of symbol, cached for the TTL.
func (t *Ticker) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return t.prices.Get(ctx, strings.ToUpper(symbol))
}

// Close releases the price cache.
func (t *Ticker) Close() error {
	t.prices.Close()
	return nil
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (t *Ticker) fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ctx, span := t.tracer.Start(ctx, "binance.ticker_price",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	price, err := backoff.Retry(ctx, func() (decimal.Decimal, error) {
		if err := t.limiter.Wait(ctx); err != nil {
			return decimal.Zero, backoff.Permanent(err)
		}

		var result tickerResponse
		_, err := t.client.NewRequest().
			SetQueryParam("symbol", symbol).
			SetResult(&result).
			Get(ctx, tickerEndpoint)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status < 500 && apiErr.Status != 429 {
				return decimal.Zero, backoff.Permanent(err)
			}
			return decimal.Zero, err
		}

		p, err := decimal.NewFromString(result.Price)
		if err != nil {
			return decimal.Zero, backoff.Permanent(fmt.Errorf("parse price %q: %w", result.Price, err))
		}
		if !p.IsPositive() {
			return decimal.Zero, backoff.Permanent(fmt.Errorf("non-positive price %s", p))
		}
		return p, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxAttempts),
	)
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, apperror.External(apperror.CodeTickerFetchFailed, symbol, err)
	}

	span.SetAttributes(attribute.String("price", price.String()))
	t.logger.Debug(ctx, "ticker price", "symbol", symbol, "price", price.String())
	return price, nil
}

// APIError is an error response from the Binance API.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance: HTTP %d: code %d: %s", e.Status, e.Code, e.Message)
}

func binanceErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	apiErr := &APIError{Status: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == 0 {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
