package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/swapdesk/internal/asset"
)

func testState(t *testing.T) State {
	t.Helper()
	s := NewState(InitialState{
		Pair:        NewPair(asset.ETH, asset.USDC),
		RouteKind:   RouteSwap,
		SlippagePct: VolatileSlippagePct,
	})
	s, _ = Reduce(s, PoolStatusChanged{Exists: true})
	s, _ = Reduce(s, BalancesUpdated{Balances: map[common.Address]BalancePair{
		asset.ETH.Address():  bal("100", "0"),
		asset.USDC.Address(): bal("1000", "0"),
	}})
	return s
}

func findQuote(t *testing.T, cmds []Command) RequestQuote {
	t.Helper()
	for _, c := range cmds {
		if q, ok := c.(RequestQuote); ok {
			return q
		}
	}
	t.Fatalf("no RequestQuote in %#v", cmds)
	return RequestQuote{}
}

func hasCommand[T Command](cmds []Command) bool {
	for _, c := range cmds {
		if _, ok := c.(T); ok {
			return true
		}
	}
	return false
}

func quote(sell, buy string) *Quote {
	return &Quote{SellQty: decimal.RequireFromString(sell), BuyQty: decimal.RequireFromString(buy)}
}

func TestReduce_FieldEditedRequestsQuote(t *testing.T) {
	s := testState(t)

	s, cmds := Reduce(s, FieldEdited{Side: SideA, Raw: ".5"})

	if s.SellQtyText != "0.5" || s.PrimarySide != SideA {
		t.Fatalf("sell text %q primary %s", s.SellQtyText, s.PrimarySide)
	}
	if !s.IsBuyFieldLoading || s.IsSellFieldLoading {
		t.Errorf("loading sell=%v buy=%v, want only buy", s.IsSellFieldLoading, s.IsBuyFieldLoading)
	}
	if s.IsSwapAllowed || s.SwapBlockReason != ReasonPending {
		t.Errorf("gate = %v %q, want pending", s.IsSwapAllowed, s.SwapBlockReason)
	}

	q := findQuote(t, cmds)
	if q.Generation != s.Generation || !q.IsSellAmount || !q.Amount.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("quote = %+v", q)
	}
	if !q.SlippageFraction.Equal(decimal.RequireFromString("0.003")) {
		t.Errorf("slippage fraction = %s", q.SlippageFraction)
	}
	if !hasCommand[PersistPrimary](cmds) {
		t.Error("edit should persist the primary quantity")
	}
}

func TestReduce_OnlyLatestQuoteApplies(t *testing.T) {
	s := testState(t)

	s, cmds := Reduce(s, FieldEdited{Side: SideA, Raw: "1"})
	first := findQuote(t, cmds)
	s, cmds = Reduce(s, FieldEdited{Side: SideA, Raw: "2"})
	second := findQuote(t, cmds)

	// second resolves first, then the stale answer arrives
	s, _ = Reduce(s, QuoteResolved{Generation: second.Generation, Quote: quote("2", "6000")})
	s, _ = Reduce(s, QuoteResolved{Generation: first.Generation, Quote: quote("1", "3000")})

	if s.BuyQtyText != "6000.00" {
		t.Errorf("buy text = %q, want 6000.00", s.BuyQtyText)
	}
	if s.IsBuyFieldLoading {
		t.Error("buy field still loading")
	}
}

func TestReduce_StaleQuoteIgnoredWhilePending(t *testing.T) {
	s := testState(t)

	s, cmds := Reduce(s, FieldEdited{Side: SideA, Raw: "1"})
	first := findQuote(t, cmds)
	s, _ = Reduce(s, FieldEdited{Side: SideA, Raw: "2"})

	next, cmds := Reduce(s, QuoteResolved{Generation: first.Generation, Quote: quote("1", "3000")})
	if len(cmds) != 0 {
		t.Errorf("stale resolution produced commands: %#v", cmds)
	}
	if next != s {
		t.Error("stale resolution changed state")
	}
}

func TestReduce_NoQuoteMeansLiquidityInsufficient(t *testing.T) {
	s := testState(t)

	s, cmds := Reduce(s, FieldEdited{Side: SideB, Raw: "500"})
	q := findQuote(t, cmds)
	if q.IsSellAmount {
		t.Error("buy-side edit should quote a buy amount")
	}

	s, _ = Reduce(s, QuoteResolved{Generation: q.Generation})

	if !s.IsLiquidityInsufficient {
		t.Error("IsLiquidityInsufficient = false")
	}
	if s.SellQtyText != "" {
		t.Errorf("sell text = %q, want blank", s.SellQtyText)
	}
	if s.IsSwapAllowed || s.SwapBlockReason != ReasonLiquidityInsufficient {
		t.Errorf("gate = %v %q", s.IsSwapAllowed, s.SwapBlockReason)
	}
}

func TestReduce_QuoteDisplayRounding(t *testing.T) {
	tests := []struct {
		buy  string
		want string
	}{
		{"1.23456", "1.23"},
		{"123.456", "123.46"},
	}

	for _, tt := range tests {
		t.Run(tt.buy, func(t *testing.T) {
			s := testState(t)
			s, cmds := Reduce(s, FieldEdited{Side: SideA, Raw: "1"})
			s, _ = Reduce(s, QuoteResolved{Generation: findQuote(t, cmds).Generation, Quote: quote("1", tt.buy)})
			if s.BuyQtyText != tt.want {
				t.Errorf("buy text = %q, want %q", s.BuyQtyText, tt.want)
			}
			if !s.IsSwapAllowed {
				t.Errorf("swap blocked: %q", s.SwapBlockReason)
			}
		})
	}
}

func TestReduce_ClearedInputSkipsOracle(t *testing.T) {
	s := testState(t)
	s, cmds := Reduce(s, FieldEdited{Side: SideA, Raw: "1"})
	s, _ = Reduce(s, QuoteResolved{Generation: findQuote(t, cmds).Generation, Quote: quote("1", "3000")})

	for _, raw := range []string{"", "0", "abc"} {
		next, cmds := Reduce(s, FieldEdited{Side: SideA, Raw: raw})
		if hasCommand[RequestQuote](cmds) {
			t.Errorf("%q: oracle called", raw)
		}
		if !hasCommand[CancelQuote](cmds) {
			t.Errorf("%q: in-flight quote not cancelled", raw)
		}
		if next.BuyQtyText != "" || next.IsBuyFieldLoading {
			t.Errorf("%q: buy text %q loading %v", raw, next.BuyQtyText, next.IsBuyFieldLoading)
		}
		if next.SwapBlockReason != ReasonEnterAmount {
			t.Errorf("%q: reason %q", raw, next.SwapBlockReason)
		}
	}
}

func TestReduce_ReverseMovesText(t *testing.T) {
	s := testState(t)
	s, cmds := Reduce(s, FieldEdited{Side: SideA, Raw: "10"})
	s, _ = Reduce(s, QuoteResolved{Generation: findQuote(t, cmds).Generation, Quote: quote("10", "30000")})

	s, cmds = Reduce(s, ReverseRequested{})

	if s.PrimarySide != SideB {
		t.Errorf("primary = %s, want B", s.PrimarySide)
	}
	if s.BuyQtyText != "10" || s.SellQtyText != "" {
		t.Errorf("sell %q buy %q, want \"\" / \"10\"", s.SellQtyText, s.BuyQtyText)
	}
	if !s.IsSellFieldLoading {
		t.Error("new counter field should be loading")
	}
	if s.Pair.TokenA != asset.USDC || s.Pair.TokenB != asset.ETH {
		t.Errorf("pair = %s", s.Pair)
	}
	if !s.SellBalance.Wallet.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("sell balance not swapped: %+v", s.SellBalance)
	}
	if !s.ReverseDisabled {
		t.Error("cooldown not engaged")
	}

	var nav Navigate
	for _, c := range cmds {
		if n, ok := c.(Navigate); ok {
			nav = n
		}
	}
	if nav.Route.TokenA != asset.USDC.Address() || nav.Route.TokenB != asset.ETH.Address() {
		t.Errorf("navigate = %+v", nav.Route)
	}
	if !hasCommand[StartCooldown](cmds) {
		t.Error("StartCooldown missing")
	}
	if q := findQuote(t, cmds); q.IsSellAmount {
		t.Error("re-quote after reverse should price the buy amount")
	}
}

func TestReduce_ReverseTwiceWithinCooldown(t *testing.T) {
	s := testState(t)
	s, _ = Reduce(s, FieldEdited{Side: SideA, Raw: "10"})

	first, _ := Reduce(s, ReverseRequested{})
	second, cmds := Reduce(first, ReverseRequested{})

	if second != first {
		t.Error("second reverse changed state")
	}
	if len(cmds) != 0 {
		t.Errorf("second reverse produced commands: %#v", cmds)
	}

	third, _ := Reduce(first, CooldownElapsed{})
	third, _ = Reduce(third, ReverseRequested{})
	if third.Pair.TokenA != asset.ETH {
		t.Error("reverse after cooldown should flip back")
	}
}

func TestReduce_ReverseNeedsPool(t *testing.T) {
	s := NewState(InitialState{Pair: NewPair(asset.ETH, asset.USDC)})
	next, cmds := Reduce(s, ReverseRequested{})
	if next != s || cmds != nil {
		t.Error("reverse without a pool should be a no-op")
	}
}

func TestReduce_ReverseBlanksNaN(t *testing.T) {
	s := testState(t)
	s.SellQtyText = "NaN"

	s, _ = Reduce(s, ReverseRequested{})
	if s.BuyQtyText != "" {
		t.Errorf("buy text = %q, want blank", s.BuyQtyText)
	}
}

func TestReduce_BlockTickRespectsCooldown(t *testing.T) {
	s := testState(t)
	s, _ = Reduce(s, FieldEdited{Side: SideA, Raw: "1"})
	s, _ = Reduce(s, ReverseRequested{})

	_, cmds := Reduce(s, BlockTick{Number: 100})
	if len(cmds) != 0 {
		t.Errorf("block tick during cooldown produced %#v", cmds)
	}

	s, _ = Reduce(s, CooldownElapsed{})
	gen := s.Generation
	s, cmds = Reduce(s, BlockTick{Number: 101})
	if findQuote(t, cmds).Generation != gen+1 {
		t.Error("block tick should start a new generation")
	}
	if s.PrimarySide != SideB {
		t.Error("refresh must not change the primary side")
	}
}

func TestReduce_RefreshKeepsPrimaryText(t *testing.T) {
	s := testState(t)
	s, _ = Reduce(s, FieldEdited{Side: SideB, Raw: "250"})

	s, cmds := Reduce(s, RefreshTick{Reason: "slippage"})
	if s.PrimarySide != SideB || s.BuyQtyText != "250" {
		t.Errorf("primary %s text %q", s.PrimarySide, s.BuyQtyText)
	}
	if hasCommand[PersistPrimary](cmds) {
		t.Error("refresh should not persist")
	}
	findQuote(t, cmds)
}

func TestReduce_WithdrawDefaultAndOverride(t *testing.T) {
	s := testState(t)
	if s.Preference.WithdrawFromExchange {
		t.Fatal("withdraw on without exchange funds")
	}

	funded := BalancesUpdated{Balances: map[common.Address]BalancePair{
		asset.ETH.Address(): bal("1", "2"),
	}}
	s, _ = Reduce(s, funded)
	if !s.Preference.WithdrawFromExchange {
		t.Fatal("auto-default did not fire")
	}

	s, cmds := Reduce(s, WithdrawToggled{On: false})
	if !hasCommand[PersistPreference](cmds) {
		t.Error("toggle not persisted")
	}

	funded.Balances[asset.ETH.Address()] = bal("1", "3")
	s, _ = Reduce(s, funded)
	if s.Preference.WithdrawFromExchange {
		t.Error("auto-default overrode the user")
	}
}

func TestReduce_MaxClicked(t *testing.T) {
	s := testState(t)
	s, _ = Reduce(s, BalancesUpdated{Balances: map[common.Address]BalancePair{
		asset.ETH.Address(): bal("5", "2"),
	}})

	s, cmds := Reduce(s, MaxClicked{})
	if s.SellQtyText != "7" {
		t.Errorf("sell text = %q, want 7", s.SellQtyText)
	}
	if !s.UserClickedCombinedMax {
		t.Error("combined max not flagged")
	}
	findQuote(t, cmds)

	s, _ = Reduce(s, FieldEdited{Side: SideA, Raw: "1"})
	if s.UserClickedCombinedMax {
		t.Error("edit should clear the combined max flag")
	}
}

func TestReduce_BalanceChangeRequotes(t *testing.T) {
	s := testState(t)
	s, _ = Reduce(s, FieldEdited{Side: SideA, Raw: "1"})

	same := BalancesUpdated{Balances: map[common.Address]BalancePair{
		asset.ETH.Address():  bal("100", "0"),
		asset.USDC.Address(): bal("1000", "0"),
	}}
	if _, cmds := Reduce(s, same); hasCommand[RequestQuote](cmds) {
		t.Error("unchanged balances should not re-quote")
	}

	same.Balances[asset.USDC.Address()] = bal("999", "0")
	if _, cmds := Reduce(s, same); !hasCommand[RequestQuote](cmds) {
		t.Error("changed balances should re-quote")
	}
}

func TestReduce_PairSelected(t *testing.T) {
	s := testState(t)
	s, _ = Reduce(s, FieldEdited{Side: SideA, Raw: "1"})

	s, cmds := Reduce(s, PairSelected{Pair: NewPair(asset.WBTC, asset.USDC)})
	if s.PoolKnown || s.PoolExists {
		t.Error("pool status should reset")
	}
	if !hasCommand[CheckPool](cmds) || !hasCommand[RefreshBalances](cmds) || !hasCommand[Navigate](cmds) {
		t.Errorf("commands = %#v", cmds)
	}
	if s.SwapBlockReason != ReasonPending {
		t.Errorf("reason = %q", s.SwapBlockReason)
	}
}

func TestNewState_PersistedQuantityStartsLoading(t *testing.T) {
	s := NewState(InitialState{
		Pair:        NewPair(asset.ETH, asset.USDC),
		PrimarySide: SideB,
		PrimaryQty:  "1,500",
	})
	if s.BuyQtyText != "1500" || !s.IsSellFieldLoading {
		t.Errorf("buy %q sell loading %v", s.BuyQtyText, s.IsSellFieldLoading)
	}

	s, cmds := Reduce(s, PoolStatusChanged{Exists: true})
	if q := findQuote(t, cmds); q.IsSellAmount || !q.Amount.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("initial quote = %+v", q)
	}
	if s.RouteKind != RouteSwap {
		t.Errorf("route kind = %s", s.RouteKind)
	}
}

func TestReduce_BlockTickRetriesUnknownPool(t *testing.T) {
	s := NewState(InitialState{
		Pair:        NewPair(asset.ETH, asset.USDC),
		RouteKind:   RouteSwap,
		SlippagePct: VolatileSlippagePct,
	})

	s, cmds := Reduce(s, BlockTick{Number: 1})
	if !hasCommand[CheckPool](cmds) {
		t.Fatalf("block tick with unknown pool produced %#v, want CheckPool", cmds)
	}
	if s.IsSwapAllowed || s.SwapBlockReason != ReasonPoolNotInitialized {
		t.Errorf("gate = %v %q", s.IsSwapAllowed, s.SwapBlockReason)
	}

	s, _ = Reduce(s, PoolStatusChanged{Exists: true})
	_, cmds = Reduce(s, BlockTick{Number: 2})
	if hasCommand[CheckPool](cmds) {
		t.Error("pool re-checked once its status is known")
	}
}

func TestReduce_BuyQuoteRoundingSellToNothingBlocks(t *testing.T) {
	s := testState(t)
	s, cmds := Reduce(s, FieldEdited{Side: SideB, Raw: "1"})
	s, _ = Reduce(s, QuoteResolved{Generation: findQuote(t, cmds).Generation, Quote: quote("0", "1")})

	if s.SellQtyText != "" {
		t.Fatalf("sell text = %q, want blank", s.SellQtyText)
	}
	if s.IsLiquidityInsufficient {
		t.Error("a resolved quote is not a liquidity failure")
	}
	if s.IsSwapAllowed || s.SwapBlockReason != ReasonEnterAmount {
		t.Errorf("gate = %v %q, want %q", s.IsSwapAllowed, s.SwapBlockReason, ReasonEnterAmount)
	}
}
