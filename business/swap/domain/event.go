package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Event is an input to Reduce.
type Event interface {
	event()
}

// FieldEdited is a keystroke in one of the quantity fields.
type FieldEdited struct {
	Side Side
	Raw  string
}

// MaxClicked fills the sell field with everything spendable.
type MaxClicked struct{}

// Quote is an oracle answer for both sides of the trade.
type Quote struct {
	SellQty       decimal.Decimal
	BuyQty        decimal.Decimal
	PercentChange decimal.Decimal
}

// QuoteResolved delivers the outcome of RequestQuote. A nil Quote means no
// viable quote, whatever the reason.
type QuoteResolved struct {
	Generation uint64
	Quote      *Quote
}

// RefreshTick re-quotes from the primary field, e.g. after a pair, balance
// or slippage change upstream.
type RefreshTick struct {
	Reason string
}

// BlockTick is a new chain head.
type BlockTick struct {
	Number uint64
}

// ReverseRequested swaps the pair.
type ReverseRequested struct{}

// CooldownElapsed re-enables reversing.
type CooldownElapsed struct{}

// BalancesUpdated carries fresh balances keyed by token address.
type BalancesUpdated struct {
	Balances map[common.Address]BalancePair
}

// PoolStatusChanged reports whether the pair's pool exists.
type PoolStatusChanged struct {
	Exists bool
}

// WithdrawToggled is the user flipping the withdraw-from-exchange toggle.
type WithdrawToggled struct {
	On bool
}

// SurplusToggled is the user flipping save-as-exchange-surplus.
type SurplusToggled struct {
	On bool
}

// SlippageChanged sets the tolerance in percent.
type SlippageChanged struct {
	Pct decimal.Decimal
}

// PairSelected replaces the pair.
type PairSelected struct {
	Pair Pair
}

// AccountChanged is a different wallet being connected.
type AccountChanged struct {
	Account common.Address
}

func (FieldEdited) event()       {}
func (MaxClicked) event()        {}
func (QuoteResolved) event()     {}
func (RefreshTick) event()       {}
func (BlockTick) event()         {}
func (ReverseRequested) event()  {}
func (CooldownElapsed) event()   {}
func (BalancesUpdated) event()   {}
func (PoolStatusChanged) event() {}
func (WithdrawToggled) event()   {}
func (SurplusToggled) event()    {}
func (SlippageChanged) event()   {}
func (PairSelected) event()      {}
func (AccountChanged) event()    {}
