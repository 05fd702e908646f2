package domain

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/swapdesk/internal/asset"
)

// Pair is the token being sold (A) and the token being bought (B).
type Pair struct {
	TokenA *asset.Asset
	TokenB *asset.Asset
}

// NewPair builds a pair. Both tokens must live on the same chain.
func NewPair(a, b *asset.Asset) Pair {
	return Pair{TokenA: a, TokenB: b}
}

// Reverse swaps the sell and buy tokens.
func (p Pair) Reverse() Pair {
	return Pair{TokenA: p.TokenB, TokenB: p.TokenA}
}

// ChainID of the pair.
func (p Pair) ChainID() uint64 {
	if p.TokenA == nil {
		return 0
	}
	return p.TokenA.ChainID()
}

// IsZero reports whether either token is missing.
func (p Pair) IsZero() bool {
	return p.TokenA == nil || p.TokenB == nil
}

// Equals compares token identities in order.
func (p Pair) Equals(o Pair) bool {
	if p.IsZero() || o.IsZero() {
		return p.IsZero() && o.IsZero()
	}
	return p.TokenA.Equals(o.TokenA) && p.TokenB.Equals(o.TokenB)
}

// IsStable reports whether both tokens are stablecoins.
func (p Pair) IsStable() bool {
	return !p.IsZero() && p.TokenA.IsStable() && p.TokenB.IsStable()
}

// SortBaseQuote orders the pair the way pools key it: base is the token with
// the numerically lower address.
func (p Pair) SortBaseQuote() (base, quote *asset.Asset) {
	if p.TokenB.ID().Less(p.TokenA.ID()) {
		return p.TokenB, p.TokenA
	}
	return p.TokenA, p.TokenB
}

// IsSellTokenBase reports whether token A sorts first.
func (p Pair) IsSellTokenBase() bool {
	base, _ := p.SortBaseQuote()
	return base.Equals(p.TokenA)
}

// Addresses returns the token addresses in A, B order.
func (p Pair) Addresses() (common.Address, common.Address) {
	return p.TokenA.Address(), p.TokenB.Address()
}

func (p Pair) String() string {
	if p.IsZero() {
		return "<none>"
	}
	return p.TokenA.Symbol() + "/" + p.TokenB.Symbol()
}
