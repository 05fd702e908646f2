package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/logger"
)

type fakePricer struct {
	wei   *big.Int
	err   error
	calls int
}

func (f *fakePricer) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.calls++
	return f.wei, f.err
}

func newTestOracle(t *testing.T, p *fakePricer, maxGwei string) *GasOracle {
	t.Helper()
	g, err := NewGasOracle(GasOracleConfig{
		CacheTTL:   time.Minute,
		MaxGasGwei: decimal.RequireFromString(maxGwei),
	}, p, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestGasOracle_CachesPrice(t *testing.T) {
	p := &fakePricer{wei: big.NewInt(25_000_000_000)}
	g := newTestOracle(t, p, "500")

	for i := 0; i < 3; i++ {
		price, err := g.GasPrice(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !price.Gwei().Equal(decimal.NewFromInt(25)) {
			t.Errorf("gwei = %s", price.Gwei())
		}
	}
	if p.calls != 1 {
		t.Errorf("node calls = %d, want 1", p.calls)
	}

	g.Forget(context.Background())
	g.GasPrice(context.Background())
	if p.calls != 2 {
		t.Errorf("node calls after Forget = %d, want 2", p.calls)
	}
}

func TestGasOracle_CapsAtMax(t *testing.T) {
	g := newTestOracle(t, &fakePricer{wei: big.NewInt(900_000_000_000)}, "500")
	price, err := g.GasPrice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !price.Gwei().Equal(decimal.NewFromInt(500)) {
		t.Errorf("gwei = %s, want capped 500", price.Gwei())
	}
}

func TestGasOracle_Error(t *testing.T) {
	g := newTestOracle(t, &fakePricer{err: errors.New("boom")}, "0")
	_, err := g.GasPrice(context.Background())
	if !apperror.HasCode(err, apperror.CodeEthereumRPCError) {
		t.Errorf("err = %v", err)
	}
}
