// Package uniswap implements the DEXProvider interface for Uniswap V3.
package uniswap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swapdesk/business/pricing/app"
	"github.com/fd1az/swapdesk/business/pricing/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/cache"
	"github.com/fd1az/swapdesk/internal/circuitbreaker"
	"github.com/fd1az/swapdesk/internal/config"
	"github.com/fd1az/swapdesk/internal/logger"
)

const (
	tracerName = "uniswap"
	meterName  = "uniswap"

	poolHitTTL  = time.Hour
	poolMissTTL = time.Minute
)

var _ app.DEXProvider = (*Provider)(nil)

type providerMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

type poolKey struct {
	a, b common.Address
	fee  int
}

// Provider quotes swaps against Uniswap V3 pools through QuoterV2.
type Provider struct {
	caller  ethereum.ContractCaller
	quoter  common.Address
	factory common.Address

	quoterABI  abi.ABI
	factoryABI abi.ABI
	poolABI    abi.ABI
	feeTiers   []int

	pools  *cache.Cache[poolKey, common.Address]
	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a Uniswap V3 provider. caller is usually an *ethclient.Client.
func NewProvider(caller ethereum.ContractCaller, cfg config.UniswapConfig, log logger.LoggerInterface) (*Provider, error) {
	quoterABI, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("parse quoter ABI: %w", err)
	}
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("parse factory ABI: %w", err)
	}
	poolABI, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		return nil, fmt.Errorf("parse pool ABI: %w", err)
	}

	p := &Provider{
		caller:     caller,
		quoter:     cfg.QuoterAddressHex(),
		factory:    cfg.FactoryAddressHex(),
		quoterABI:  quoterABI,
		factoryABI: factoryABI,
		poolABI:    poolABI,
		feeTiers:   feeTiers(cfg),
		pools:      cache.New[poolKey, common.Address](10 * time.Minute),
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("uniswap-quoter")
	// A revert is the pool answering "no", not the node failing.
	cbCfg.IsSuccessful = func(err error) bool { return err == nil || isRevert(err) }
	p.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return p, nil
}

func feeTiers(cfg config.UniswapConfig) []int {
	tiers := cfg.FeeTiers
	if len(tiers) == 0 {
		tiers = DefaultFeeTiers
	}
	out := make([]int, 0, len(tiers)+1)
	seen := map[int]bool{}
	if cfg.DefaultFeeTier > 0 {
		out = append(out, cfg.DefaultFeeTier)
		seen[cfg.DefaultFeeTier] = true
	}
	for _, t := range tiers {
		if !seen[t] {
			out = append(out, t)
			seen[t] = true
		}
	}
	return out
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	p.metrics = &providerMetrics{}

	p.metrics.quotesTotal, err = meter.Int64Counter("uniswap_quotes_total",
		metric.WithDescription("Total quote requests"))
	if err != nil {
		return err
	}
	p.metrics.quoteLatency, err = meter.Float64Histogram("uniswap_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return err
	}
	p.metrics.quoteErrors, err = meter.Int64Counter("uniswap_quote_errors_total",
		metric.WithDescription("Total quote errors"))
	return err
}

// Close stops the pool cache janitor.
func (p *Provider) Close() error {
	p.pools.Close()
	return nil
}

// QuoteExactInput returns the best quote for selling amountIn of tokenIn.
func (p *Provider) QuoteExactInput(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*domain.RawQuote, error) {
	return p.quote(ctx, domain.ExactInput, tokenIn, tokenOut, amountIn)
}

// QuoteExactOutput returns the cheapest quote for buying amountOut of tokenOut.
func (p *Provider) QuoteExactOutput(ctx context.Context, tokenIn, tokenOut common.Address, amountOut *big.Int) (*domain.RawQuote, error) {
	return p.quote(ctx, domain.ExactOutput, tokenIn, tokenOut, amountOut)
}

func (p *Provider) quote(ctx context.Context, tt domain.TradeType, tokenIn, tokenOut common.Address, amount *big.Int) (*domain.RawQuote, error) {
	ctx, span := p.tracer.Start(ctx, "uniswap.quote",
		trace.WithAttributes(
			attribute.String("trade_type", string(tt)),
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
			attribute.String("amount", amount.String()),
		),
	)
	defer span.End()

	start := time.Now()
	p.metrics.quotesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("trade_type", string(tt))))

	var (
		best    *tierQuote
		lastErr error
	)
	for _, fee := range p.feeTiers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		pool, err := p.pool(ctx, tokenIn, tokenOut, fee)
		if err != nil {
			lastErr = err
			continue
		}
		if pool == (common.Address{}) {
			continue
		}

		q, err := p.quoteTier(ctx, tt, tokenIn, tokenOut, amount, fee)
		if err != nil {
			span.AddEvent("fee_tier_failed", trace.WithAttributes(
				attribute.Int("fee_tier", fee),
				attribute.String("error", err.Error()),
			))
			if !isRevert(err) {
				lastErr = err
			}
			continue
		}
		q.Pool = pool

		if best == nil || better(tt, q, best) {
			best = q
		}
	}

	p.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if best == nil {
		p.metrics.quoteErrors.Add(ctx, 1)
		if lastErr != nil {
			span.SetStatus(codes.Error, lastErr.Error())
			return nil, apperror.External(apperror.CodeContractCallFailed, "uniswap quoter", lastErr)
		}
		span.SetStatus(codes.Error, "no liquidity")
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext(tokenIn.Hex()+"/"+tokenOut.Hex()))
	}

	raw := &domain.RawQuote{
		TradeType:      tt,
		FeeTier:        best.FeeTier,
		SqrtPriceAfter: best.SqrtPriceX96After,
	}
	if best.GasEstimate != nil {
		raw.GasEstimate = best.GasEstimate.Uint64()
	}
	if tt == domain.ExactInput {
		raw.AmountIn, raw.AmountOut = amount, best.Amount
	} else {
		raw.AmountIn, raw.AmountOut = best.Amount, amount
	}

	// Without the starting price the impact reads as zero.
	if before, err := p.sqrtPrice(ctx, best.Pool); err == nil {
		raw.SqrtPriceBefore = before
	} else {
		p.logger.Warn(ctx, "slot0 read failed", "pool", best.Pool.Hex(), "error", err)
	}

	span.SetAttributes(
		attribute.String("amount_in", raw.AmountIn.String()),
		attribute.String("amount_out", raw.AmountOut.String()),
		attribute.Int("fee_tier", raw.FeeTier),
	)
	span.SetStatus(codes.Ok, "quote received")

	p.logger.Debug(ctx, "uniswap quote",
		"trade_type", string(tt),
		"amount_in", raw.AmountIn.String(),
		"amount_out", raw.AmountOut.String(),
		"fee_tier", raw.FeeTier,
	)
	return raw, nil
}

func better(tt domain.TradeType, q, best *tierQuote) bool {
	if tt == domain.ExactOutput {
		return q.Amount.Cmp(best.Amount) < 0
	}
	return q.Amount.Cmp(best.Amount) > 0
}

func (p *Provider) quoteTier(ctx context.Context, tt domain.TradeType, tokenIn, tokenOut common.Address, amount *big.Int, fee int) (*tierQuote, error) {
	var (
		method = "quoteExactInputSingle"
		params any
	)
	if tt == domain.ExactInput {
		params = QuoteExactInputSingleParams{
			TokenIn:           tokenIn,
			TokenOut:          tokenOut,
			AmountIn:          amount,
			Fee:               big.NewInt(int64(fee)),
			SqrtPriceLimitX96: new(big.Int),
		}
	} else {
		method = "quoteExactOutputSingle"
		params = QuoteExactOutputSingleParams{
			TokenIn:           tokenIn,
			TokenOut:          tokenOut,
			Amount:            amount,
			Fee:               big.NewInt(int64(fee)),
			SqrtPriceLimitX96: new(big.Int),
		}
	}

	data, err := p.quoterABI.Pack(method, params)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}
	out, err := p.call(ctx, p.quoter, data)
	if err != nil {
		return nil, err
	}

	values, err := p.quoterABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	if len(values) < 4 {
		return nil, fmt.Errorf("decode %s: %d outputs", method, len(values))
	}

	q := &tierQuote{FeeTier: fee}
	q.Amount, _ = values[0].(*big.Int)
	q.SqrtPriceX96After, _ = values[1].(*big.Int)
	q.GasEstimate, _ = values[3].(*big.Int)
	if q.Amount == nil || q.Amount.Sign() <= 0 {
		return nil, errRevert
	}
	return q, nil
}

// PoolExists reports whether any configured fee tier has a pool for the pair.
func (p *Provider) PoolExists(ctx context.Context, tokenA, tokenB common.Address) (bool, error) {
	var lastErr error
	for _, fee := range p.feeTiers {
		pool, err := p.pool(ctx, tokenA, tokenB, fee)
		if err != nil {
			lastErr = err
			continue
		}
		if pool != (common.Address{}) {
			return true, nil
		}
	}
	if lastErr != nil {
		return false, lastErr
	}
	return false, nil
}

func (p *Provider) pool(ctx context.Context, tokenA, tokenB common.Address, fee int) (common.Address, error) {
	// getPool is symmetric; sort to share cache entries.
	if bytes.Compare(tokenB.Bytes(), tokenA.Bytes()) < 0 {
		tokenA, tokenB = tokenB, tokenA
	}
	key := poolKey{a: tokenA, b: tokenB, fee: fee}
	if addr, ok := p.pools.Get(ctx, key); ok {
		return addr, nil
	}

	data, err := p.factoryABI.Pack("getPool", tokenA, tokenB, big.NewInt(int64(fee)))
	if err != nil {
		return common.Address{}, fmt.Errorf("encode getPool: %w", err)
	}
	out, err := p.call(ctx, p.factory, data)
	if err != nil {
		return common.Address{}, err
	}
	values, err := p.factoryABI.Unpack("getPool", out)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode getPool: %w", err)
	}
	if len(values) == 0 {
		return common.Address{}, errors.New("decode getPool: no outputs")
	}
	addr, _ := values[0].(common.Address)

	ttl := poolHitTTL
	if addr == (common.Address{}) {
		ttl = poolMissTTL
	}
	p.pools.Set(ctx, key, addr, ttl)
	return addr, nil
}

func (p *Provider) sqrtPrice(ctx context.Context, pool common.Address) (*big.Int, error) {
	data, err := p.poolABI.Pack("slot0")
	if err != nil {
		return nil, err
	}
	out, err := p.call(ctx, pool, data)
	if err != nil {
		return nil, err
	}
	values, err := p.poolABI.Unpack("slot0", out)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errors.New("slot0: no outputs")
	}
	price, _ := values[0].(*big.Int)
	if price == nil {
		return nil, errors.New("slot0: bad sqrtPriceX96")
	}
	return price, nil
}

func (p *Provider) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := p.cb.Execute(func() ([]byte, error) {
		return p.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			return nil, apperror.External(apperror.CodeCircuitOpen, p.cb.Name(), err)
		}
		return nil, err
	}
	return out, nil
}

var errRevert = errors.New("execution reverted")

func isRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "execution reverted")
}
