// Package ethereum reads wallet balances from an Ethereum node.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swapdesk/business/account/app"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/asset"
	"github.com/fd1az/swapdesk/internal/circuitbreaker"
)

const erc20ABI = `[{
	"constant": true,
	"inputs": [{"name": "owner", "type": "address"}],
	"name": "balanceOf",
	"outputs": [{"name": "", "type": "uint256"}],
	"stateMutability": "view",
	"type": "function"
}]`

var _ app.WalletReader = (*WalletReader)(nil)

// Node is the slice of *ethclient.Client the reader needs.
type Node interface {
	ethereum.ContractCaller
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// WalletReader reads native and ERC20 balances.
type WalletReader struct {
	node   Node
	erc20  abi.ABI
	cb     *circuitbreaker.CircuitBreaker[*big.Int]
	tracer trace.Tracer
}

// NewWalletReader creates a WalletReader.
func NewWalletReader(node Node) (*WalletReader, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 ABI: %w", err)
	}
	return &WalletReader{
		node:   node,
		erc20:  parsed,
		cb:     circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("wallet-balance")),
		tracer: otel.Tracer("github.com/fd1az/swapdesk/business/account/infra/ethereum"),
	}, nil
}

// BalanceOf returns owner's balance of token in base units.
func (r *WalletReader) BalanceOf(ctx context.Context, owner common.Address, token *asset.Asset) (*big.Int, error) {
	ctx, span := r.tracer.Start(ctx, "wallet.balance_of", trace.WithAttributes(
		attribute.String("owner", owner.Hex()),
		attribute.String("token", token.Symbol()),
	))
	defer span.End()

	bal, err := r.cb.Execute(func() (*big.Int, error) {
		if token.IsNative() {
			return r.node.BalanceAt(ctx, owner, nil)
		}
		return r.balanceOf(ctx, owner, token.Address())
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.External(apperror.CodeWalletBalanceFailed, token.Symbol(), err)
	}
	return bal, nil
}

func (r *WalletReader) balanceOf(ctx context.Context, owner, token common.Address) (*big.Int, error) {
	data, err := r.erc20.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	out, err := r.node.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	values, err := r.erc20.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("decode balanceOf: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("decode balanceOf: no outputs")
	}
	bal, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("decode balanceOf: unexpected %T", values[0])
	}
	return bal, nil
}
