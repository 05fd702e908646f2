package app

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	accountDomain "github.com/fd1az/swapdesk/business/account/domain"
	blockchainDomain "github.com/fd1az/swapdesk/business/blockchain/domain"
	"github.com/fd1az/swapdesk/internal/logger"
)

// BlockFeed is the chain side the refresher listens to.
type BlockFeed interface {
	SubscribeBlocks(ctx context.Context) (<-chan *blockchainDomain.Block, error)
	GasPrice(ctx context.Context) (*blockchainDomain.GasPrice, error)
	Status() blockchainDomain.ConnectionStatus
}

// FeeEstimator prices a swap's gas in USD.
type FeeEstimator interface {
	NetworkFee(ctx context.Context, gasPriceWei *big.Int) (decimal.Decimal, error)
}

// RefresherConfig holds the refresh cadences.
type RefresherConfig struct {
	BalanceInterval time.Duration
	StatusInterval  time.Duration
	FeeTimeout      time.Duration
}

// DefaultRefresherConfig refreshes balances every bucket and reports feed
// status every 5s.
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		BalanceInterval: accountDomain.RefreshPeriod,
		StatusInterval:  5 * time.Second,
		FeeTimeout:      5 * time.Second,
	}
}

// Refresher drives a Converter from the outside world: new blocks re-quote
// and refresh the network fee, a ticker reloads balances, and every change
// is handed to the reporter.
type Refresher struct {
	chain     BlockFeed
	fees      FeeEstimator
	converter *Converter
	reporter  Reporter
	config    RefresherConfig
	logger    logger.LoggerInterface

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
}

// NewRefresher creates a Refresher. fees may be nil.
func NewRefresher(
	chain BlockFeed,
	fees FeeEstimator,
	converter *Converter,
	reporter Reporter,
	config RefresherConfig,
	logger logger.LoggerInterface,
) *Refresher {
	def := DefaultRefresherConfig()
	if config.BalanceInterval <= 0 {
		config.BalanceInterval = def.BalanceInterval
	}
	if config.StatusInterval <= 0 {
		config.StatusInterval = def.StatusInterval
	}
	if config.FeeTimeout <= 0 {
		config.FeeTimeout = def.FeeTimeout
	}
	return &Refresher{
		chain:     chain,
		fees:      fees,
		converter: converter,
		reporter:  reporter,
		config:    config,
		logger:    logger,
	}
}

// Start subscribes to blocks, starts the reporter and the converter, and
// runs the loop until ctx is done or Stop is called.
func (r *Refresher) Start(ctx context.Context) error {
	r.logger.Info(ctx, "starting refresher", "session", r.converter.Session())

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	blocks, err := r.chain.SubscribeBlocks(ctx)
	if err != nil {
		cancel()
		return err
	}

	if err := r.reporter.Start(ctx); err != nil {
		cancel()
		return err
	}

	r.unsubscribe = r.converter.Subscribe(r.reporter.Report)
	r.converter.Start(ctx)
	r.reporter.Report(r.converter.Snapshot())

	r.wg.Add(1)
	go r.run(ctx, blocks)
	return nil
}

func (r *Refresher) run(ctx context.Context, blocks <-chan *blockchainDomain.Block) {
	defer r.wg.Done()

	balances := time.NewTicker(r.config.BalanceInterval)
	defer balances.Stop()
	status := time.NewTicker(r.config.StatusInterval)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info(context.Background(), "refresher stopping", "reason", ctx.Err())
			return
		case block, ok := <-blocks:
			if !ok {
				r.logger.Warn(ctx, "block feed closed")
				return
			}
			if block != nil {
				r.onNewBlock(ctx, block)
			}
		case <-balances.C:
			r.converter.RefreshBalances()
		case <-status.C:
			r.reportStatus()
		}
	}
}

func (r *Refresher) onNewBlock(ctx context.Context, block *blockchainDomain.Block) {
	r.logger.Debug(ctx, "processing block", "number", block.Number, "source", block.Source)
	r.converter.OnBlock(block.Number)

	if r.fees == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.config.FeeTimeout)
	defer cancel()

	gas, err := r.chain.GasPrice(ctx)
	if err != nil {
		r.logger.Warn(ctx, "gas price unavailable", "block", block.Number, "error", err)
		return
	}
	usd, err := r.fees.NetworkFee(ctx, gas.Wei)
	if err != nil {
		r.logger.Warn(ctx, "network fee unavailable", "block", block.Number, "error", err)
		return
	}
	r.reporter.UpdateNetworkFee(NetworkFee{Block: block.Number, GasGwei: gas.Gwei(), USD: usd})
}

func (r *Refresher) reportStatus() {
	st := r.chain.Status()
	var age time.Duration
	if !st.LastUpdate.IsZero() {
		age = time.Since(st.LastUpdate)
	}
	name := "block feed (ws)"
	if st.UsingHTTP {
		name = "block feed (http)"
	}
	r.reporter.UpdateConnectionStatus(name, st.Healthy(), age)
}

// Stop ends the loop, detaches the reporter and stops it. The converter is
// left to its owner.
func (r *Refresher) Stop() error {
	r.logger.Info(context.Background(), "stopping refresher")
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	return r.reporter.Stop()
}
