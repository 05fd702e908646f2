package app

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/swapdesk/business/pricing/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/asset"
	"github.com/fd1az/swapdesk/internal/logger"
)

type fakeDEX struct {
	quote  *domain.RawQuote
	err    error
	exists bool

	gotIn, gotOut common.Address
	gotAmount     *big.Int
	exactOut      bool
}

func (f *fakeDEX) QuoteExactInput(_ context.Context, in, out common.Address, amt *big.Int) (*domain.RawQuote, error) {
	f.gotIn, f.gotOut, f.gotAmount = in, out, amt
	return f.quote, f.err
}

func (f *fakeDEX) QuoteExactOutput(_ context.Context, in, out common.Address, amt *big.Int) (*domain.RawQuote, error) {
	f.gotIn, f.gotOut, f.gotAmount, f.exactOut = in, out, amt, true
	return f.quote, f.err
}

func (f *fakeDEX) PoolExists(context.Context, common.Address, common.Address) (bool, error) {
	return f.exists, f.err
}

type fakeFeed struct{ price decimal.Decimal }

func (f fakeFeed) EthUSD(context.Context) (decimal.Decimal, error) { return f.price, nil }

func newService(dex *fakeDEX) *PricingService {
	return NewPricingService(dex, fakeFeed{price: decimal.NewFromInt(3000)}, asset.DefaultRegistry(), logger.NewNop())
}

func TestCalcImpact_SellAmount(t *testing.T) {
	dex := &fakeDEX{quote: &domain.RawQuote{
		TradeType: domain.ExactInput,
		AmountIn:  big.NewInt(500_000_000_000_000_000),
		AmountOut: big.NewInt(1_500_000_000),
	}}
	svc := newService(dex)

	impact, err := svc.CalcImpact(context.Background(), domain.ImpactRequest{
		SellToken:    asset.ETH,
		BuyToken:     asset.USDC,
		Amount:       decimal.RequireFromString("0.5"),
		IsSellAmount: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !impact.BuyQty.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("BuyQty = %s", impact.BuyQty)
	}
	if dex.gotIn != asset.AddrWETHEthereum {
		t.Errorf("native sell token should quote through WETH, got %s", dex.gotIn.Hex())
	}
	if dex.gotAmount.String() != "500000000000000000" {
		t.Errorf("amount = %s", dex.gotAmount)
	}
}

func TestCalcImpact_BuyAmountUsesExactOutput(t *testing.T) {
	dex := &fakeDEX{quote: &domain.RawQuote{
		TradeType: domain.ExactOutput,
		AmountIn:  big.NewInt(3_100_000_000),
		AmountOut: big.NewInt(1_000_000_000_000_000_000),
	}}
	svc := newService(dex)

	impact, err := svc.CalcImpact(context.Background(), domain.ImpactRequest{
		SellToken: asset.USDC,
		BuyToken:  asset.ETH,
		Amount:    decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !dex.exactOut {
		t.Error("expected an exact output quote")
	}
	if !impact.SellQty.Equal(decimal.NewFromInt(3100)) {
		t.Errorf("SellQty = %s", impact.SellQty)
	}
}

func TestCalcImpact_NoQuote(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		err    error
	}{
		{"zero_amount", "0", nil},
		{"dust_below_decimals", "0.0000001", nil},
		{"insufficient_liquidity", "10", apperror.New(apperror.CodeInsufficientLiquidity)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(&fakeDEX{err: tt.err})
			impact, err := svc.CalcImpact(context.Background(), domain.ImpactRequest{
				SellToken:    asset.USDC,
				BuyToken:     asset.ETH,
				Amount:       decimal.RequireFromString(tt.amount),
				IsSellAmount: true,
			})
			if impact != nil || err != nil {
				t.Errorf("CalcImpact() = %v, %v; want nil, nil", impact, err)
			}
		})
	}
}

func TestCalcImpact_ProviderError(t *testing.T) {
	svc := newService(&fakeDEX{err: errors.New("rpc down")})
	_, err := svc.CalcImpact(context.Background(), domain.ImpactRequest{
		SellToken:    asset.USDC,
		BuyToken:     asset.ETH,
		Amount:       decimal.NewFromInt(10),
		IsSellAmount: true,
	})
	if !apperror.HasCode(err, apperror.CodeQuoteFailed) {
		t.Errorf("err = %v, want QUOTE_FAILED", err)
	}
}

func TestPoolExists_NativeAgainstWrapped(t *testing.T) {
	svc := newService(&fakeDEX{exists: true})
	ok, err := svc.PoolExists(context.Background(), asset.ETH, asset.WETH)
	if err != nil || ok {
		t.Errorf("ETH/WETH pool = %v, %v; want false", ok, err)
	}

	ok, err = svc.PoolExists(context.Background(), asset.ETH, asset.USDC)
	if err != nil || !ok {
		t.Errorf("ETH/USDC pool = %v, %v; want true", ok, err)
	}
}

func TestNetworkFee(t *testing.T) {
	svc := newService(&fakeDEX{})
	fee, err := svc.NetworkFee(context.Background(), big.NewInt(20_000_000_000))
	if err != nil {
		t.Fatal(err)
	}
	if got := domain.FormatUSD(fee); got != "$4.74" {
		t.Errorf("fee = %s", got)
	}
}
