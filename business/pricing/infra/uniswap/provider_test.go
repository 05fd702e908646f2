package uniswap

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/swapdesk/business/pricing/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/config"
	"github.com/fd1az/swapdesk/internal/logger"
)

var (
	quoterAddr  = common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	factoryAddr = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	tokenX      = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenY      = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func poolFor(fee int) common.Address {
	return common.BigToAddress(big.NewInt(int64(0x1000 + fee)))
}

// fakeChain answers factory, quoter and slot0 calls from tables keyed by fee tier.
type fakeChain struct {
	t       *testing.T
	p       *Provider
	pools   map[int]bool
	amounts map[int]int64
	fail    error
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	switch *msg.To {
	case factoryAddr:
		args, err := f.p.factoryABI.Methods["getPool"].Inputs.Unpack(msg.Data[4:])
		if err != nil {
			f.t.Fatalf("unpack getPool: %v", err)
		}
		fee := int(args[2].(*big.Int).Int64())
		addr := common.Address{}
		if f.pools[fee] {
			addr = poolFor(fee)
		}
		return f.p.factoryABI.Methods["getPool"].Outputs.Pack(addr)
	case quoterAddr:
		method, err := f.p.quoterABI.MethodById(msg.Data[:4])
		if err != nil {
			f.t.Fatalf("unknown quoter method: %v", err)
		}
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			f.t.Fatalf("unpack %s: %v", method.Name, err)
		}
		fee := feeOf(args[0])
		amount, ok := f.amounts[fee]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return method.Outputs.Pack(big.NewInt(amount), big.NewInt(2e9), uint32(1), big.NewInt(90000))
	default:
		for fee := range f.pools {
			if *msg.To == poolFor(fee) {
				return f.p.poolABI.Methods["slot0"].Outputs.Pack(
					big.NewInt(1e9), big.NewInt(0), uint16(0), uint16(1), uint16(1), uint8(0), true)
			}
		}
	}
	f.t.Fatalf("unexpected call to %s", msg.To.Hex())
	return nil, nil
}

// feeOf reads the fee field from an unpacked params tuple.
func feeOf(tuple any) int {
	fee := reflect.ValueOf(tuple).FieldByName("Fee").Interface().(*big.Int)
	return int(fee.Int64())
}

func newTestProvider(t *testing.T, chain *fakeChain) *Provider {
	t.Helper()
	p, err := NewProvider(chain, config.UniswapConfig{
		QuoterAddress:  quoterAddr.Hex(),
		FactoryAddress: factoryAddr.Hex(),
		FeeTiers:       []int{FeeTier005, FeeTier030},
	}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	chain.t, chain.p = t, p
	t.Cleanup(func() { p.Close() })
	return p
}

func TestQuoteExactInput_PicksHighestOutput(t *testing.T) {
	chain := &fakeChain{
		pools:   map[int]bool{FeeTier005: true, FeeTier030: true},
		amounts: map[int]int64{FeeTier005: 900, FeeTier030: 1000},
	}
	p := newTestProvider(t, chain)

	q, err := p.QuoteExactInput(context.Background(), tokenX, tokenY, big.NewInt(10))
	if err != nil {
		t.Fatal(err)
	}
	if q.FeeTier != FeeTier030 || q.AmountOut.Int64() != 1000 || q.AmountIn.Int64() != 10 {
		t.Errorf("quote = %+v", q)
	}
	if q.SqrtPriceBefore == nil || q.SqrtPriceBefore.Int64() != 1e9 {
		t.Errorf("SqrtPriceBefore = %v", q.SqrtPriceBefore)
	}
	if !domain.PriceChangePct(q.SqrtPriceBefore, q.SqrtPriceAfter).Equal(domain.PriceChangePct(big.NewInt(1e9), big.NewInt(2e9))) {
		t.Error("price change not derived from slot0 and quoter")
	}
}

func TestQuoteExactOutput_PicksLowestInput(t *testing.T) {
	chain := &fakeChain{
		pools:   map[int]bool{FeeTier005: true, FeeTier030: true},
		amounts: map[int]int64{FeeTier005: 900, FeeTier030: 1000},
	}
	p := newTestProvider(t, chain)

	q, err := p.QuoteExactOutput(context.Background(), tokenX, tokenY, big.NewInt(10))
	if err != nil {
		t.Fatal(err)
	}
	if q.FeeTier != FeeTier005 || q.AmountIn.Int64() != 900 || q.AmountOut.Int64() != 10 {
		t.Errorf("quote = %+v", q)
	}
}

func TestQuote_InsufficientLiquidity(t *testing.T) {
	tests := []struct {
		name  string
		chain *fakeChain
	}{
		{"no_pools", &fakeChain{}},
		{"every_tier_reverts", &fakeChain{pools: map[int]bool{FeeTier030: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.chain)
			_, err := p.QuoteExactInput(context.Background(), tokenX, tokenY, big.NewInt(10))
			if !apperror.HasCode(err, apperror.CodeInsufficientLiquidity) {
				t.Errorf("err = %v, want INSUFFICIENT_LIQUIDITY", err)
			}
		})
	}
}

func TestQuote_NodeFailureIsNotLiquidity(t *testing.T) {
	p := newTestProvider(t, &fakeChain{fail: errors.New("connection refused")})
	_, err := p.QuoteExactInput(context.Background(), tokenX, tokenY, big.NewInt(10))
	if err == nil || apperror.HasCode(err, apperror.CodeInsufficientLiquidity) {
		t.Errorf("err = %v, want a call failure", err)
	}
}

func TestPoolExists(t *testing.T) {
	p := newTestProvider(t, &fakeChain{pools: map[int]bool{FeeTier030: true}})

	ok, err := p.PoolExists(context.Background(), tokenY, tokenX)
	if err != nil || !ok {
		t.Errorf("PoolExists = %v, %v", ok, err)
	}

	p2 := newTestProvider(t, &fakeChain{})
	ok, err = p2.PoolExists(context.Background(), tokenX, tokenY)
	if err != nil || ok {
		t.Errorf("PoolExists without pools = %v, %v", ok, err)
	}
}
