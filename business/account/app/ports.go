// Package app contains the balance service and its ports.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/swapdesk/business/account/domain"
	"github.com/fd1az/swapdesk/internal/asset"
)

// WalletReader reads on-chain balances in base units.
type WalletReader interface {
	BalanceOf(ctx context.Context, owner common.Address, token *asset.Asset) (*big.Int, error)
}

// ExchangeReader lists an owner's deposits held by the exchange.
type ExchangeReader interface {
	Deposits(ctx context.Context, owner common.Address, chainID uint64) ([]domain.Deposit, error)
}
