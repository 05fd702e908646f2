package app

import (
	"context"
	"fmt"

	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/asset"
)

// RouteStore recalls the last route the user was on.
type RouteStore interface {
	LastRoute(ctx context.Context) (domain.Route, bool, error)
}

// PairRequest names the configured tokens. Either may be a symbol or an
// address; both empty means "no preference".
type PairRequest struct {
	ChainID uint64
	TokenA  string
	TokenB  string
}

// ResolvePair picks the starting pair: configured tokens first, then the last
// stored route on the same chain, then ETH/USDC.
func ResolvePair(ctx context.Context, reg *asset.Registry, req PairRequest, routes RouteStore) (domain.Pair, domain.RouteKind, error) {
	if req.TokenA != "" || req.TokenB != "" {
		if req.TokenA == "" || req.TokenB == "" {
			return domain.Pair{}, "", apperror.Validation(apperror.CodeInvalidInput, "both tokens must be configured")
		}
		pair, err := resolveRefs(reg, req.ChainID, req.TokenA, req.TokenB)
		return pair, "", err
	}

	if routes != nil {
		r, ok, err := routes.LastRoute(ctx)
		if err == nil && ok && r.ChainID == req.ChainID {
			a, okA := reg.GetToken(r.ChainID, r.TokenA)
			b, okB := reg.GetToken(r.ChainID, r.TokenB)
			if okA && okB && !a.Equals(b) {
				return domain.NewPair(a, b), r.Kind, nil
			}
		}
	}

	pair, err := resolveRefs(reg, req.ChainID, "ETH", "USDC")
	return pair, "", err
}

func resolveRefs(reg *asset.Registry, chainID uint64, refA, refB string) (domain.Pair, error) {
	a, err := reg.Resolve(chainID, refA)
	if err != nil {
		return domain.Pair{}, apperror.Wrap(err, apperror.CodeUnknownToken, fmt.Sprintf("token A %q", refA))
	}
	b, err := reg.Resolve(chainID, refB)
	if err != nil {
		return domain.Pair{}, apperror.Wrap(err, apperror.CodeUnknownToken, fmt.Sprintf("token B %q", refB))
	}
	if a.Equals(b) {
		return domain.Pair{}, apperror.Validation(apperror.CodeInvalidInput, "tokens must differ: "+a.Symbol())
	}
	return domain.NewPair(a, b), nil
}
