package domain

import (
	"github.com/shopspring/decimal"
)

// State is the converter's full state. It is a value: Reduce returns a new
// one and callers may keep old copies.
type State struct {
	PrimarySide             Side
	SellQtyText             string
	BuyQtyText              string
	IsSellFieldLoading      bool
	IsBuyFieldLoading       bool
	IsLiquidityInsufficient bool
	IsSwapAllowed           bool
	SwapBlockReason         string

	Pair        Pair
	RouteKind   RouteKind
	SellBalance BalancePair
	BuyBalance  BalancePair
	PoolExists  bool
	// PoolKnown is false until the first pool status arrives.
	PoolKnown   bool
	Preference  Preference
	SlippagePct decimal.Decimal

	ReverseDisabled        bool
	UserClickedCombinedMax bool
	// Generation identifies the latest quote request.
	Generation uint64
}

// InitialState describes a converter at startup.
type InitialState struct {
	Pair        Pair
	RouteKind   RouteKind
	PrimarySide Side
	// PrimaryQty is a persisted quantity for the primary field, may be "".
	PrimaryQty  string
	Preference  Preference
	SlippagePct decimal.Decimal
}

// NewState builds the starting state. A positive persisted quantity leaves the
// counter field loading until the first quote lands.
func NewState(in InitialState) State {
	side := in.PrimarySide
	if side != SideB {
		side = SideA
	}
	kind := in.RouteKind
	if !kind.Valid() {
		kind = RouteSwap
	}

	s := State{
		PrimarySide: side,
		Pair:        in.Pair,
		RouteKind:   kind,
		Preference:  in.Preference,
		SlippagePct: in.SlippagePct,
	}
	s.setText(side, NormalizeInput(in.PrimaryQty))
	if IsPositiveText(s.text(side)) {
		s.setLoading(side.Other(), true)
	}
	return s.withGate()
}

// PrimaryText is the text of the primary field.
func (s State) PrimaryText() string {
	return s.text(s.PrimarySide)
}

// Loading reports whether either field is waiting on a quote.
func (s State) Loading() bool {
	return s.IsSellFieldLoading || s.IsBuyFieldLoading
}

// Allocation derives the wallet/exchange split for the current fields.
func (s State) Allocation() AllocationResult {
	sell, _ := ParseQuantity(s.SellQtyText)
	buy, _ := ParseQuantity(s.BuyQtyText)
	return ComputeAllocation(AllocationInput{
		SellQty:    sell,
		BuyQty:     buy,
		Sell:       s.SellBalance,
		Buy:        s.BuyBalance,
		Preference: s.Preference,
	})
}

func (s State) text(side Side) string {
	if side == SideA {
		return s.SellQtyText
	}
	return s.BuyQtyText
}

func (s *State) setText(side Side, text string) {
	if side == SideA {
		s.SellQtyText = text
	} else {
		s.BuyQtyText = text
	}
}

func (s *State) setLoading(side Side, loading bool) {
	if side == SideA {
		s.IsSellFieldLoading = loading
	} else {
		s.IsBuyFieldLoading = loading
	}
}

func (s State) sellSymbol() string {
	if s.Pair.TokenA == nil {
		return ""
	}
	return s.Pair.TokenA.Symbol()
}

func (s State) withGate() State {
	res := EvaluateSwapGate(GateInput{
		SellLoading:           s.IsSellFieldLoading,
		BuyLoading:            s.IsBuyFieldLoading,
		PoolExists:            s.PoolExists,
		PrimaryText:           s.PrimaryText(),
		SellText:              s.SellQtyText,
		LiquidityInsufficient: s.IsLiquidityInsufficient,
		SellSymbol:            s.sellSymbol(),
		SellBalance:           s.SellBalance,
		WithdrawFromExchange:  s.Preference.WithdrawFromExchange,
	})
	s.IsSwapAllowed = res.Allowed
	s.SwapBlockReason = res.Reason
	return s
}
