package app

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/swapdesk/business/pricing/domain"
	"github.com/fd1az/swapdesk/internal/apm"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/asset"
	"github.com/fd1az/swapdesk/internal/logger"
)

// PricingService is the price impact oracle and the ETH/USD source.
type PricingService struct {
	dex      DEXProvider
	feed     PriceFeed
	registry *asset.Registry
	log      logger.LoggerInterface
	tracer   apm.Tracer
}

// NewPricingService creates a PricingService.
func NewPricingService(dex DEXProvider, feed PriceFeed, registry *asset.Registry, log logger.LoggerInterface) *PricingService {
	return &PricingService{
		dex:      dex,
		feed:     feed,
		registry: registry,
		log:      log,
		tracer:   apm.NewTracer("pricing"),
	}
}

// CalcImpact quotes req. It returns nil, nil when there is no viable quote:
// a non-positive or dust amount, or a pool without enough liquidity.
func (s *PricingService) CalcImpact(ctx context.Context, req domain.ImpactRequest) (*domain.Impact, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.calc_impact")
	defer span.End()

	if req.SellToken == nil || req.BuyToken == nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "impact request without tokens")
	}
	if !req.Amount.IsPositive() {
		return nil, nil
	}

	span.SetAttributes(
		attribute.String("sell", req.SellToken.Symbol()),
		attribute.String("buy", req.BuyToken.Symbol()),
		attribute.String("amount", req.Amount.String()),
		attribute.Bool("is_sell_amount", req.IsSellAmount),
	)

	fixed := req.BuyToken
	if req.IsSellAmount {
		fixed = req.SellToken
	}
	amount, err := asset.ParseDecimalTruncated(fixed, req.Amount)
	if err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, err.Error())
	}
	if !amount.IsPositive() {
		return nil, nil
	}

	tokenIn := s.registry.PoolAddress(req.SellToken)
	tokenOut := s.registry.PoolAddress(req.BuyToken)

	var raw *domain.RawQuote
	if req.IsSellAmount {
		raw, err = s.dex.QuoteExactInput(ctx, tokenIn, tokenOut, amount.Raw())
	} else {
		raw, err = s.dex.QuoteExactOutput(ctx, tokenIn, tokenOut, amount.Raw())
	}
	if apperror.HasCode(err, apperror.CodeInsufficientLiquidity) {
		span.AddEvent("insufficient_liquidity")
		return nil, nil
	}
	if err != nil {
		span.NoticeError(err)
		return nil, apperror.Wrap(err, apperror.CodeQuoteFailed, req.SellToken.Symbol()+"/"+req.BuyToken.Symbol())
	}
	if raw == nil || raw.AmountIn == nil || raw.AmountOut == nil || raw.AmountOut.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidQuote)
	}

	impact := domain.NewImpact(req, raw)
	s.log.Debug(ctx, "impact",
		"sell", req.SellToken.Symbol(),
		"buy", req.BuyToken.Symbol(),
		"sell_qty", impact.SellQty.String(),
		"buy_qty", impact.BuyQty.String(),
		"fee_tier", raw.FeeTier,
	)
	return impact, nil
}

// PoolExists reports whether a pool trades a against b.
func (s *PricingService) PoolExists(ctx context.Context, a, b *asset.Asset) (bool, error) {
	tokenA, tokenB := s.registry.PoolAddress(a), s.registry.PoolAddress(b)
	if tokenA == tokenB {
		return false, nil
	}
	exists, err := s.dex.PoolExists(ctx, tokenA, tokenB)
	if err != nil {
		return false, apperror.Wrap(err, apperror.CodePoolNotFound, a.Symbol()+"/"+b.Symbol())
	}
	return exists, nil
}

// EthUSD returns the current ETH price in USD.
func (s *PricingService) EthUSD(ctx context.Context) (decimal.Decimal, error) {
	return s.feed.EthUSD(ctx)
}

// NetworkFee estimates the USD cost of a swap at gasPriceWei.
func (s *PricingService) NetworkFee(ctx context.Context, gasPriceWei *big.Int) (decimal.Decimal, error) {
	ethUSD, err := s.feed.EthUSD(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.NetworkFeeUSD(domain.WeiToGwei(gasPriceWei), ethUSD), nil
}
