package app

import (
	"context"

	"github.com/fd1az/swapdesk/business/blockchain/domain"
)

// BlockchainService coordinates blockchain interactions.
type BlockchainService struct {
	subscriber BlockSubscriber
	gasOracle  GasOracle
}

// NewBlockchainService creates a new BlockchainService.
func NewBlockchainService(subscriber BlockSubscriber, gasOracle GasOracle) *BlockchainService {
	return &BlockchainService{
		subscriber: subscriber,
		gasOracle:  gasOracle,
	}
}

// SubscribeBlocks starts the block subscription and returns the channel.
func (s *BlockchainService) SubscribeBlocks(ctx context.Context) (<-chan *domain.Block, error) {
	return s.subscriber.Subscribe(ctx)
}

// LatestBlock fetches the head block.
func (s *BlockchainService) LatestBlock(ctx context.Context) (*domain.Block, error) {
	return s.subscriber.LatestBlock(ctx)
}

// GasPrice retrieves the current gas price.
func (s *BlockchainService) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return s.gasOracle.GasPrice(ctx)
}

// Status returns the block feed status.
func (s *BlockchainService) Status() domain.ConnectionStatus {
	return s.subscriber.Status()
}
