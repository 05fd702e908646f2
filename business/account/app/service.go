package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/swapdesk/business/account/domain"
	"github.com/fd1az/swapdesk/internal/apm"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/asset"
	"github.com/fd1az/swapdesk/internal/cache"
	"github.com/fd1az/swapdesk/internal/logger"
)

const walletConcurrency = 4

// BalanceService merges wallet and exchange balances, memoized per owner,
// chain and refresh bucket.
type BalanceService struct {
	wallet   WalletReader
	exchange ExchangeReader
	registry *asset.Registry
	log      logger.LoggerInterface
	tracer   apm.Tracer

	period time.Duration
	now    func() time.Time
	memo   *cache.Memoizer[domain.BalanceKey, map[common.Address]domain.Holding]

	mu      sync.RWMutex
	lastErr error
	lastAt  time.Time
	partial map[domain.BalanceKey]bool
}

// NewBalanceService creates a BalanceService. A non-positive period uses
// domain.RefreshPeriod.
func NewBalanceService(wallet WalletReader, exchange ExchangeReader, registry *asset.Registry, period time.Duration, log logger.LoggerInterface) *BalanceService {
	if period <= 0 {
		period = domain.RefreshPeriod
	}
	s := &BalanceService{
		wallet:   wallet,
		exchange: exchange,
		registry: registry,
		log:      log,
		tracer:   apm.NewTracer("account"),
		period:   period,
		now:      time.Now,
		partial:  make(map[domain.BalanceKey]bool),
	}
	// Entries outlive their bucket by one period so a late reader still hits.
	s.memo = cache.NewMemoizer(s.load, 2*period)
	return s
}

// Balances returns the owner's holdings on chainID keyed by token address.
// The map is shared between callers and must not be modified. A result
// missing one of the two sources is returned but not kept.
func (s *BalanceService) Balances(ctx context.Context, owner common.Address, chainID uint64) (map[common.Address]domain.Holding, error) {
	key := s.key(owner, chainID)
	holdings, err := s.memo.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	partial := s.partial[key]
	delete(s.partial, key)
	s.mu.Unlock()
	if partial {
		s.memo.Forget(ctx, key)
	}
	return holdings, nil
}

// Refresh drops the current bucket's entry and fetches again.
func (s *BalanceService) Refresh(ctx context.Context, owner common.Address, chainID uint64) (map[common.Address]domain.Holding, error) {
	key := s.key(owner, chainID)
	s.memo.Forget(ctx, key)
	return s.memo.Get(ctx, key)
}

// LastFetch reports when a fetch last completed and its error, if any.
func (s *BalanceService) LastFetch() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAt, s.lastErr
}

// Close stops the memoizer.
func (s *BalanceService) Close() error {
	s.memo.Close()
	return nil
}

func (s *BalanceService) key(owner common.Address, chainID uint64) domain.BalanceKey {
	return domain.BalanceKey{
		Owner:   owner,
		ChainID: chainID,
		Bucket:  domain.RefreshBucket(s.now(), s.period),
	}
}

func (s *BalanceService) load(ctx context.Context, key domain.BalanceKey) (map[common.Address]domain.Holding, error) {
	ctx, span := s.tracer.Start(ctx, "account.balances",
		attribute.String("owner", key.Owner.Hex()),
		attribute.Int64("chain_id", int64(key.ChainID)),
		attribute.Int64("bucket", key.Bucket),
	)
	defer span.End()

	tokens := s.registry.Tokens(key.ChainID)

	var (
		mu        sync.Mutex
		holdings  = make([]domain.Holding, 0, len(tokens))
		walletErr []error
		deposits  []domain.Deposit
		depErr    error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(walletConcurrency)

	g.Go(func() error {
		deposits, depErr = s.exchange.Deposits(gctx, key.Owner, key.ChainID)
		return nil
	})

	for _, token := range tokens {
		g.Go(func() error {
			raw, err := s.wallet.BalanceOf(gctx, key.Owner, token)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				walletErr = append(walletErr, err)
				s.log.Warn(gctx, "wallet balance failed", "token", token.Symbol(), "error", err)
				return nil
			}
			holdings = append(holdings, domain.Holding{
				Token:    token.Address(),
				Symbol:   token.Symbol(),
				Decimals: token.Decimals(),
				Wallet:   asset.NewAmount(token, raw).ToDecimal(),
			})
			return nil
		})
	}
	_ = g.Wait()

	if depErr != nil {
		s.log.Warn(ctx, "exchange balances failed", "error", depErr)
	}

	var (
		err     error
		partial = len(walletErr) > 0 || depErr != nil
	)
	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case len(tokens) > 0 && len(holdings) == 0 && depErr != nil:
		err = apperror.External(apperror.CodeWalletBalanceFailed, key.Owner.Hex(),
			errors.Join(append(walletErr, depErr)...))
		span.NoticeError(err)
	}

	s.mu.Lock()
	s.lastAt = s.now()
	switch {
	case err != nil:
		s.lastErr = err
	case depErr != nil:
		s.lastErr = apperror.External(apperror.CodeExchangeBalanceFailed, key.Owner.Hex(), depErr)
	case len(walletErr) > 0:
		s.lastErr = apperror.External(apperror.CodeWalletBalanceFailed, key.Owner.Hex(), errors.Join(walletErr...))
	default:
		s.lastErr = nil
	}
	if err == nil && partial {
		s.partial[key] = true
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	merged := domain.Merge(holdings, deposits)
	s.log.Debug(ctx, "balances loaded", "owner", key.Owner.Hex(), "tokens", len(merged))
	return merged, nil
}
