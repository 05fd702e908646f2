// Package app runs the swap engine against its collaborators.
package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	accountDomain "github.com/fd1az/swapdesk/business/account/domain"
	pricingDomain "github.com/fd1az/swapdesk/business/pricing/domain"
	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/internal/asset"
)

// ImpactOracle prices a swap. A nil Impact with a nil error means no viable
// quote.
type ImpactOracle interface {
	CalcImpact(ctx context.Context, req pricingDomain.ImpactRequest) (*pricingDomain.Impact, error)
}

// PoolChecker reports whether a pool exists for two tokens.
type PoolChecker interface {
	PoolExists(ctx context.Context, a, b *asset.Asset) (bool, error)
}

// BalanceSource returns wallet and exchange holdings keyed by token.
type BalanceSource interface {
	Balances(ctx context.Context, owner common.Address, chainID uint64) (map[common.Address]accountDomain.Holding, error)
	Refresh(ctx context.Context, owner common.Address, chainID uint64) (map[common.Address]accountDomain.Holding, error)
}

// Navigator moves the visible route.
type Navigator interface {
	Navigate(ctx context.Context, route domain.Route) error
}

// PrimaryRecord is the persisted primary field.
type PrimaryRecord struct {
	Side     domain.Side
	Quantity string
}

// Store persists what survives a restart. Missing records report ok=false.
type Store interface {
	Primary(ctx context.Context) (PrimaryRecord, bool, error)
	SavePrimary(ctx context.Context, rec PrimaryRecord) error
	Preference(ctx context.Context) (domain.Preference, bool, error)
	SavePreference(ctx context.Context, pref domain.Preference) error
	Slippage(ctx context.Context, pair domain.Pair) (decimal.Decimal, bool, error)
	SaveSlippage(ctx context.Context, pair domain.Pair, pct decimal.Decimal) error
}

// NetworkFee is the estimated cost of a swap at one block.
type NetworkFee struct {
	Block   uint64
	GasGwei decimal.Decimal
	USD     decimal.Decimal
}

// Reporter presents the engine. Implementations must not block.
type Reporter interface {
	Start(ctx context.Context) error
	Report(snap Snapshot)
	UpdateNetworkFee(fee NetworkFee)
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)
	Stop() error
}
