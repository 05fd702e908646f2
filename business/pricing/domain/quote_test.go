package domain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swapdesk/internal/asset"
)

func TestNewImpact_ExactInput(t *testing.T) {
	req := ImpactRequest{
		SellToken:        asset.ETH,
		BuyToken:         asset.USDC,
		Amount:           decimal.NewFromInt(1),
		IsSellAmount:     true,
		SlippageFraction: decimal.RequireFromString("0.003"),
	}
	raw := &RawQuote{
		TradeType: ExactInput,
		AmountIn:  new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
		AmountOut: big.NewInt(3_000_000_000), // 3000 USDC
		FeeTier:   500,
	}

	got := NewImpact(req, raw)

	if !got.SellQty.Equal(decimal.NewFromInt(1)) {
		t.Errorf("SellQty = %s", got.SellQty)
	}
	if !got.BuyQty.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("BuyQty = %s", got.BuyQty)
	}
	if !got.LimitQty.Equal(decimal.NewFromInt(2991)) {
		t.Errorf("LimitQty = %s, want 2991", got.LimitQty)
	}
	if raw.FeeTierPercent() != "0.05%" {
		t.Errorf("FeeTierPercent = %s", raw.FeeTierPercent())
	}
}

func TestNewImpact_ExactOutputLimitIsMaxSpend(t *testing.T) {
	req := ImpactRequest{
		SellToken:        asset.USDC,
		BuyToken:         asset.ETH,
		Amount:           decimal.NewFromInt(1),
		SlippageFraction: decimal.RequireFromString("0.001"),
	}
	raw := &RawQuote{
		TradeType: ExactOutput,
		AmountIn:  big.NewInt(3_000_000_000),
		AmountOut: new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
	}

	got := NewImpact(req, raw)
	if !got.LimitQty.Equal(decimal.NewFromInt(3003)) {
		t.Errorf("LimitQty = %s, want 3003", got.LimitQty)
	}
}

func TestRawQuote_Better(t *testing.T) {
	in := func(amt int64) *RawQuote {
		return &RawQuote{TradeType: ExactOutput, AmountIn: big.NewInt(amt), AmountOut: big.NewInt(1)}
	}
	out := func(amt int64) *RawQuote {
		return &RawQuote{TradeType: ExactInput, AmountIn: big.NewInt(1), AmountOut: big.NewInt(amt)}
	}

	if !out(10).Better(out(9)) || out(9).Better(out(10)) {
		t.Error("exact input should prefer more out")
	}
	if !in(9).Better(in(10)) || in(10).Better(in(9)) {
		t.Error("exact output should prefer less in")
	}
	if !out(1).Better(nil) {
		t.Error("anything beats nil")
	}
}

func TestPriceChangePct(t *testing.T) {
	before := big.NewInt(1000)
	after := big.NewInt(1010) // price ratio 1.0201

	got := PriceChangePct(before, after)
	if !got.Equal(decimal.RequireFromString("2.01")) {
		t.Errorf("PriceChangePct = %s, want 2.01", got)
	}
	if !PriceChangePct(nil, after).IsZero() {
		t.Error("missing before should be zero")
	}
}

func TestNetworkFeeUSD(t *testing.T) {
	tests := []struct {
		name string
		gwei string
		eth  string
		want string
	}{
		// 20 * 79079e-9 * 3000 = 4.74474
		{"twenty_gwei", "20", "3000", "$4.74"},
		{"one_gwei", "1", "2500", "$0.20"},
		{"zero_gas", "0", "3000", "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := NetworkFeeUSD(decimal.RequireFromString(tt.gwei), decimal.RequireFromString(tt.eth))
			if got := FormatUSD(fee); got != tt.want {
				t.Errorf("fee = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWeiToGwei(t *testing.T) {
	if got := WeiToGwei(big.NewInt(25_000_000_000)); !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("WeiToGwei = %s", got)
	}
}
