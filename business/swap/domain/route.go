package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// RouteKind is the page a pair link opens.
type RouteKind string

const (
	RouteSwap   RouteKind = "swap"
	RouteMarket RouteKind = "market"
	RouteLimit  RouteKind = "limit"
	RouteRange  RouteKind = "range"
)

// Prefix returns the path prefix for the kind.
func (k RouteKind) Prefix() string {
	switch k {
	case RouteMarket:
		return "/trade/market/"
	case RouteLimit:
		return "/trade/limit/"
	case RouteRange:
		return "/trade/range/"
	default:
		return "/swap/"
	}
}

// Valid reports whether k is a known kind.
func (k RouteKind) Valid() bool {
	switch k {
	case RouteSwap, RouteMarket, RouteLimit, RouteRange:
		return true
	}
	return false
}

// Route is the externally visible pair location.
type Route struct {
	Kind    RouteKind
	ChainID uint64
	TokenA  common.Address
	TokenB  common.Address
}

// RouteFor builds the route of a pair.
func RouteFor(kind RouteKind, p Pair) Route {
	a, b := p.Addresses()
	return Route{Kind: kind, ChainID: p.ChainID(), TokenA: a, TokenB: b}
}

// Slug renders the route path, e.g.
// /swap/chain=0x1&tokenA=0x0000...&tokenB=0xa0b8....
func (r Route) Slug() string {
	return fmt.Sprintf("%schain=0x%x&tokenA=%s&tokenB=%s",
		r.Kind.Prefix(), r.ChainID, strings.ToLower(r.TokenA.Hex()), strings.ToLower(r.TokenB.Hex()))
}

func (r Route) String() string { return r.Slug() }

// ParseRoute reverses Slug. Unknown prefixes and missing keys are errors.
func ParseRoute(path string) (Route, error) {
	var r Route
	for _, k := range []RouteKind{RouteMarket, RouteLimit, RouteRange, RouteSwap} {
		if strings.HasPrefix(path, k.Prefix()) {
			r.Kind = k
			path = strings.TrimPrefix(path, k.Prefix())
			break
		}
	}
	if r.Kind == "" {
		return Route{}, fmt.Errorf("unknown route prefix in %q", path)
	}

	seen := map[string]bool{}
	for _, part := range strings.Split(path, "&") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Route{}, fmt.Errorf("malformed route param %q", part)
		}
		switch key {
		case "chain":
			id, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(value), "0x"), 16, 64)
			if err != nil {
				return Route{}, fmt.Errorf("chain id %q: %w", value, err)
			}
			r.ChainID = id
		case "tokenA", "tokenB":
			if !common.IsHexAddress(value) {
				return Route{}, fmt.Errorf("%s is not an address: %q", key, value)
			}
			if key == "tokenA" {
				r.TokenA = common.HexToAddress(value)
			} else {
				r.TokenB = common.HexToAddress(value)
			}
		default:
			continue
		}
		seen[key] = true
	}
	for _, key := range []string{"chain", "tokenA", "tokenB"} {
		if !seen[key] {
			return Route{}, fmt.Errorf("route is missing %s", key)
		}
	}
	return r, nil
}
