// Package domain contains balance types for the account context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// RefreshPeriod is the width of a balance refresh bucket.
const RefreshPeriod = 5 * time.Minute

// Holding is what an owner holds of one token, in token units. Wallet and
// Exchange come from independent sources.
type Holding struct {
	Token    common.Address
	Symbol   string
	Decimals uint8
	Wallet   decimal.Decimal
	Exchange decimal.Decimal
}

// Deposit is one row of the exchange deposit listing, in base units.
type Deposit struct {
	Token    common.Address
	Symbol   string
	Decimals uint8
	Balance  *big.Int
}

// Amount converts the deposit to token units.
func (d Deposit) Amount() decimal.Decimal {
	if d.Balance == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(d.Balance, -int32(d.Decimals))
}

// Merge combines wallet holdings with exchange deposits by token address.
// A deposit for a token without a wallet entry adds a holding with a zero
// wallet balance.
func Merge(wallet []Holding, deposits []Deposit) map[common.Address]Holding {
	out := make(map[common.Address]Holding, len(wallet)+len(deposits))
	for _, h := range wallet {
		h.Exchange = decimal.Zero
		out[h.Token] = h
	}
	for _, d := range deposits {
		h, ok := out[d.Token]
		if !ok {
			h = Holding{Token: d.Token, Symbol: d.Symbol, Decimals: d.Decimals, Wallet: decimal.Zero}
		}
		h.Exchange = d.Amount()
		out[d.Token] = h
	}
	return out
}

// RefreshBucket is floor(now / period) in milliseconds; equal buckets share
// a cached fetch.
func RefreshBucket(now time.Time, period time.Duration) int64 {
	if period <= 0 {
		period = RefreshPeriod
	}
	return now.UnixMilli() / period.Milliseconds()
}

// BalanceKey identifies one memoized balance fetch.
type BalanceKey struct {
	Owner   common.Address
	ChainID uint64
	Bucket  int64
}
