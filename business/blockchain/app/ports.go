// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/fd1az/swapdesk/business/blockchain/domain"
)

// BlockSubscriber streams new block headers.
type BlockSubscriber interface {
	// Subscribe returns a channel of blocks, closed when the subscriber closes.
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)
	LatestBlock(ctx context.Context) (*domain.Block, error)
	Status() domain.ConnectionStatus
}

// GasOracle supplies the current gas price.
type GasOracle interface {
	GasPrice(ctx context.Context) (*domain.GasPrice, error)
}
