package route

import (
	"context"
	"errors"
	"testing"

	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/asset"
	"github.com/fd1az/swapdesk/internal/logger"
)

type sinkFunc func(context.Context, domain.Route) error

func (f sinkFunc) SaveRoute(ctx context.Context, r domain.Route) error { return f(ctx, r) }

func TestNavigator_RecordsAndNotifies(t *testing.T) {
	var saved []domain.Route
	n := NewNavigator(sinkFunc(func(_ context.Context, r domain.Route) error {
		saved = append(saved, r)
		return nil
	}), logger.NewNop())

	var heard []string
	n.OnNavigate(func(r domain.Route) { heard = append(heard, r.Slug()) })

	pair := domain.NewPair(asset.ETH, asset.USDC)
	forward := domain.RouteFor(domain.RouteSwap, pair)
	back := domain.RouteFor(domain.RouteSwap, pair.Reverse())

	for _, r := range []domain.Route{forward, forward, back} {
		if err := n.Navigate(context.Background(), r); err != nil {
			t.Fatalf("Navigate(%s): %v", r, err)
		}
	}

	if got := n.History(); len(got) != 2 || got[0] != forward || got[1] != back {
		t.Errorf("history = %v", got)
	}
	if cur, ok := n.Current(); !ok || cur != back {
		t.Errorf("current = %v %v", cur, ok)
	}
	if len(heard) != 2 || len(saved) != 2 {
		t.Errorf("heard %d saved %d, want 2 each", len(heard), len(saved))
	}
	if heard[1] != back.Slug() {
		t.Errorf("heard %q", heard[1])
	}
}

func TestNavigator_RejectsIncompleteRoute(t *testing.T) {
	n := NewNavigator(nil, logger.NewNop())
	err := n.Navigate(context.Background(), domain.Route{Kind: domain.RouteSwap})
	if !apperror.HasCode(err, apperror.CodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if _, ok := n.Current(); ok {
		t.Error("invalid route recorded")
	}
}

func TestNavigator_SinkFailure(t *testing.T) {
	n := NewNavigator(sinkFunc(func(context.Context, domain.Route) error {
		return errors.New("disk full")
	}), logger.NewNop())

	r := domain.RouteFor(domain.RouteSwap, domain.NewPair(asset.ETH, asset.USDC))
	err := n.Navigate(context.Background(), r)
	if !apperror.HasCode(err, apperror.CodeNavigationFailed) {
		t.Errorf("err = %v", err)
	}
	if cur, ok := n.Current(); !ok || cur != r {
		t.Error("route should still move when saving fails")
	}
}

func TestNavigator_HistoryIsBounded(t *testing.T) {
	n := NewNavigator(nil, logger.NewNop())
	n.max = 3
	pairs := []domain.Pair{
		domain.NewPair(asset.ETH, asset.USDC),
		domain.NewPair(asset.ETH, asset.DAI),
		domain.NewPair(asset.WBTC, asset.USDC),
		domain.NewPair(asset.USDT, asset.USDC),
	}
	for _, p := range pairs {
		if err := n.Navigate(context.Background(), domain.RouteFor(domain.RouteSwap, p)); err != nil {
			t.Fatal(err)
		}
	}
	h := n.History()
	if len(h) != 3 {
		t.Fatalf("history length = %d", len(h))
	}
	if h[0].TokenA != asset.ETH.Address() || h[0].TokenB != asset.DAI.Address() {
		t.Errorf("oldest = %s", h[0])
	}
}
