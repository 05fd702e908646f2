package asset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrAlreadyRegistered = errors.New("asset: already registered")
	ErrUnknownAsset      = errors.New("asset: unknown asset")
)

// Registry is a thread-safe index of known assets.
type Registry struct {
	mu       sync.RWMutex
	byID     map[AssetID]*Asset
	bySymbol map[string][]*Asset
	wrapped  map[uint64]*Asset
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[AssetID]*Asset),
		bySymbol: make(map[string][]*Asset),
		wrapped:  make(map[uint64]*Asset),
	}
}

// Register adds a.
func (r *Registry) Register(a *Asset) error {
	if a == nil {
		return errors.New("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, a.ID())
	}
	r.byID[a.ID()] = a
	key := strings.ToUpper(a.Symbol())
	r.bySymbol[key] = append(r.bySymbol[key], a)
	return nil
}

// MustRegister panics on error; for package-level wiring.
func (r *Registry) MustRegister(a *Asset) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// SetWrappedNative records the ERC20 that stands in for the native coin in pools.
func (r *Registry) SetWrappedNative(chainID uint64, wrapped *Asset) {
	r.mu.Lock()
	r.wrapped[chainID] = wrapped
	r.mu.Unlock()
}

func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// GetBySymbolAndChain matches symbols case-insensitively.
func (r *Registry) GetBySymbolAndChain(symbol string, chainID uint64) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.bySymbol[strings.ToUpper(symbol)] {
		if a.ChainID() == chainID {
			return a, true
		}
	}
	return nil, false
}

// GetToken looks an asset up by chain and address; the zero address is native.
func (r *Registry) GetToken(chainID uint64, address common.Address) (*Asset, bool) {
	return r.Get(NewAssetID(chainID, address))
}

// Resolve accepts either a hex address or a symbol.
func (r *Registry) Resolve(chainID uint64, ref string) (*Asset, error) {
	ref = strings.TrimSpace(ref)
	if common.IsHexAddress(ref) {
		if a, ok := r.GetToken(chainID, common.HexToAddress(ref)); ok {
			return a, nil
		}
	} else if a, ok := r.GetBySymbolAndChain(ref, chainID); ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q on chain %d", ErrUnknownAsset, ref, chainID)
}

// PoolAddress is the address used for pool lookups and quotes: the wrapped
// native token for native coins, the token address otherwise.
func (r *Registry) PoolAddress(a *Asset) common.Address {
	if !a.IsNative() {
		return a.Address()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if w, ok := r.wrapped[a.ChainID()]; ok {
		return w.Address()
	}
	return a.Address()
}

// Tokens lists the assets of a chain sorted by symbol.
func (r *Registry) Tokens(chainID uint64) []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Asset, 0, len(r.byID))
	for id, a := range r.byID {
		if id.ChainID() == chainID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol() < out[j].Symbol() })
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
