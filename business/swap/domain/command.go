package domain

import "github.com/shopspring/decimal"

// Command is a side effect Reduce asks the runtime to perform.
type Command interface {
	command()
}

// RequestQuote asks the oracle for the counter-quantity. The result must be
// fed back as QuoteResolved with the same Generation.
type RequestQuote struct {
	Generation uint64
	Pair       Pair
	Amount     decimal.Decimal
	// IsSellAmount is true when Amount is the sell quantity.
	IsSellAmount     bool
	SlippageFraction decimal.Decimal
}

// CancelQuote abandons any in-flight quote.
type CancelQuote struct{}

// Navigate moves the visible route.
type Navigate struct {
	Route Route
}

// StartCooldown arms the reverse cooldown timer.
type StartCooldown struct{}

// PersistPrimary stores the primary side and its text.
type PersistPrimary struct {
	Side     Side
	Quantity string
}

// PersistPreference stores the withdrawal toggles.
type PersistPreference struct {
	Preference Preference
}

// CheckPool asks whether the pair's pool exists; answer with PoolStatusChanged.
type CheckPool struct {
	Pair Pair
}

// RefreshBalances asks for fresh balances; answer with BalancesUpdated.
type RefreshBalances struct{}

func (RequestQuote) command()      {}
func (CancelQuote) command()       {}
func (Navigate) command()          {}
func (StartCooldown) command()     {}
func (PersistPrimary) command()    {}
func (PersistPreference) command() {}
func (CheckPool) command()         {}
func (RefreshBalances) command()   {}
