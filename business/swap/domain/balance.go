package domain

import "github.com/shopspring/decimal"

// BalancePair is one token's wallet and exchange-custody balance. The two
// fields are sourced independently and are never folded into each other.
type BalancePair struct {
	Wallet   decimal.Decimal
	Exchange decimal.Decimal
}

// Combined is a transient display/accounting figure.
func (b BalancePair) Combined() decimal.Decimal {
	return b.Wallet.Add(b.Exchange)
}

// Preference holds the two withdrawal toggles.
type Preference struct {
	WithdrawFromExchange  bool
	SaveAsExchangeSurplus bool
	// WithdrawOverridden is set once the user toggles WithdrawFromExchange
	// and disables the auto-default for the rest of the session.
	WithdrawOverridden bool
}

// ApplyWithdrawDefault forces WithdrawFromExchange on when the sell token
// already has exchange funds, unless the user has overridden it.
func (p Preference) ApplyWithdrawDefault(sell BalancePair) Preference {
	if !p.WithdrawFromExchange && !p.WithdrawOverridden && sell.Exchange.IsPositive() {
		p.WithdrawFromExchange = true
	}
	return p
}
