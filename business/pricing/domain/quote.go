// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swapdesk/internal/asset"
)

// TradeType says which side of a swap is fixed.
type TradeType string

const (
	ExactInput  TradeType = "exact_input"
	ExactOutput TradeType = "exact_output"
)

// RawQuote is a single-pool answer from the quoter in base units.
type RawQuote struct {
	TradeType       TradeType
	AmountIn        *big.Int
	AmountOut       *big.Int
	FeeTier         int
	SqrtPriceBefore *big.Int
	SqrtPriceAfter  *big.Int
	GasEstimate     uint64
}

// Better reports whether q beats other for its trade type: more out for an
// exact input, less in for an exact output.
func (q *RawQuote) Better(other *RawQuote) bool {
	if other == nil {
		return true
	}
	if q.TradeType == ExactOutput {
		return q.AmountIn.Cmp(other.AmountIn) < 0
	}
	return q.AmountOut.Cmp(other.AmountOut) > 0
}

// FeeTierPercent renders the fee tier, e.g. 3000 -> "0.30%".
func (q *RawQuote) FeeTierPercent() string {
	return fmt.Sprintf("%.2f%%", float64(q.FeeTier)/10000.0)
}

// ImpactRequest asks for the counter-quantity of a swap.
type ImpactRequest struct {
	SellToken *asset.Asset
	BuyToken  *asset.Asset
	// Amount is the sell quantity when IsSellAmount, else the buy quantity.
	Amount           decimal.Decimal
	IsSellAmount     bool
	SlippageFraction decimal.Decimal
}

func (r ImpactRequest) TradeType() TradeType {
	if r.IsSellAmount {
		return ExactInput
	}
	return ExactOutput
}

// Impact is the quoted swap in token units.
type Impact struct {
	SellQty decimal.Decimal
	BuyQty  decimal.Decimal
	// PercentChange is the pool price move caused by the swap, in percent.
	PercentChange decimal.Decimal
	// LimitQty is the slippage-protected bound: the minimum received for a
	// sell-amount quote, the maximum spent for a buy-amount quote.
	LimitQty    decimal.Decimal
	FeeTier     int
	GasEstimate uint64
	Timestamp   time.Time
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// NewImpact converts a raw quote into token units for req.
func NewImpact(req ImpactRequest, q *RawQuote) *Impact {
	sell := asset.NewAmount(req.SellToken, q.AmountIn).ToDecimal()
	buy := asset.NewAmount(req.BuyToken, q.AmountOut).ToDecimal()

	limit := buy.Mul(one.Sub(req.SlippageFraction))
	if !req.IsSellAmount {
		limit = sell.Mul(one.Add(req.SlippageFraction))
	}

	return &Impact{
		SellQty:       sell,
		BuyQty:        buy,
		PercentChange: PriceChangePct(q.SqrtPriceBefore, q.SqrtPriceAfter),
		LimitQty:      limit,
		FeeTier:       q.FeeTier,
		GasEstimate:   q.GasEstimate,
		Timestamp:     time.Now(),
	}
}

// PriceChangePct is ((after/before)^2 - 1) * 100 for two sqrtPriceX96 values.
// Missing values give zero.
func PriceChangePct(before, after *big.Int) decimal.Decimal {
	if before == nil || after == nil || before.Sign() == 0 {
		return decimal.Zero
	}
	ratio := decimal.NewFromBigInt(after, 0).DivRound(decimal.NewFromBigInt(before, 0), 18)
	return ratio.Mul(ratio).Sub(one).Mul(hundred).Round(4)
}
