package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/asset"
)

type fakeNode struct {
	t      *testing.T
	r      *WalletReader
	native *big.Int
	tokens map[common.Address]*big.Int
	err    error
}

func (f *fakeNode) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.native, f.err
}

func (f *fakeNode) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	method, err := f.r.erc20.MethodById(msg.Data[:4])
	if err != nil || method.Name != "balanceOf" {
		f.t.Fatalf("unexpected call: %v", err)
	}
	bal, ok := f.tokens[*msg.To]
	if !ok {
		bal = new(big.Int)
	}
	return method.Outputs.Pack(bal)
}

func newTestReader(t *testing.T, node *fakeNode) *WalletReader {
	t.Helper()
	r, err := NewWalletReader(node)
	if err != nil {
		t.Fatal(err)
	}
	node.t, node.r = t, r
	return r
}

func TestWalletReader_BalanceOf(t *testing.T) {
	node := &fakeNode{
		native: big.NewInt(42),
		tokens: map[common.Address]*big.Int{asset.AddrUSDCEthereum: big.NewInt(7_000_000)},
	}
	r := newTestReader(t, node)
	owner := common.HexToAddress("0x01")

	tests := []struct {
		token *asset.Asset
		want  int64
	}{
		{asset.ETH, 42},
		{asset.USDC, 7_000_000},
		{asset.DAI, 0},
	}
	for _, tt := range tests {
		t.Run(tt.token.Symbol(), func(t *testing.T) {
			got, err := r.BalanceOf(context.Background(), owner, tt.token)
			if err != nil {
				t.Fatal(err)
			}
			if got.Int64() != tt.want {
				t.Errorf("BalanceOf = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestWalletReader_Error(t *testing.T) {
	r := newTestReader(t, &fakeNode{err: errors.New("rpc down")})
	_, err := r.BalanceOf(context.Background(), common.HexToAddress("0x01"), asset.USDC)
	if !apperror.HasCode(err, apperror.CodeWalletBalanceFailed) {
		t.Errorf("err = %v", err)
	}
}
