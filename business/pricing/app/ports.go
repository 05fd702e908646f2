// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/swapdesk/business/pricing/domain"
)

// DEXProvider quotes single-pool swaps. Quotes fail with
// apperror.CodeInsufficientLiquidity when no pool can fill the amount.
type DEXProvider interface {
	QuoteExactInput(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*domain.RawQuote, error)
	QuoteExactOutput(ctx context.Context, tokenIn, tokenOut common.Address, amountOut *big.Int) (*domain.RawQuote, error)
	PoolExists(ctx context.Context, tokenA, tokenB common.Address) (bool, error)
}

// PriceFeed supplies the ETH/USD rate used for fee conversion.
type PriceFeed interface {
	EthUSD(ctx context.Context) (decimal.Decimal, error)
}
