package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Block reasons.
const (
	ReasonPending               = "pending"
	ReasonPoolNotInitialized    = "pool not initialized"
	ReasonEnterAmount           = "enter an amount"
	ReasonLiquidityInsufficient = "liquidity insufficient"
)

// GateInput is the state EvaluateSwapGate checks.
type GateInput struct {
	SellLoading           bool
	BuyLoading            bool
	PoolExists            bool
	PrimaryText           string
	SellText              string
	LiquidityInsufficient bool
	SellSymbol            string
	SellBalance           BalancePair
	WithdrawFromExchange  bool
}

// GateResult is the outcome; Reason is empty when Allowed.
type GateResult struct {
	Allowed bool
	Reason  string
}

func blocked(reason string) GateResult {
	return GateResult{Reason: reason}
}

// EvaluateSwapGate runs the checks in priority order; the first match wins.
func EvaluateSwapGate(in GateInput) GateResult {
	if in.SellLoading || in.BuyLoading {
		return blocked(ReasonPending)
	}
	if !in.PoolExists {
		return blocked(ReasonPoolNotInitialized)
	}

	primary, ok := ParseQuantity(in.PrimaryText)
	if !ok {
		return blocked(ReasonEnterAmount)
	}
	if in.LiquidityInsufficient {
		return blocked(ReasonLiquidityInsufficient)
	}
	// A buy-side quote can round the sell field down to nothing.
	if !primary.IsPositive() || !IsPositiveText(in.SellText) {
		return blocked(ReasonEnterAmount)
	}

	sell, _ := ParseQuantity(in.SellText)
	hurdle, label := Hurdle(in.SellBalance, in.WithdrawFromExchange)
	if sell.GreaterThan(hurdle) {
		return blocked(fmt.Sprintf("%s exceeds %s balance", in.SellSymbol, label))
	}
	return GateResult{Allowed: true}
}

// Hurdle is the most the sell side can spend and the balance it is checked
// against: the wallet alone, or wallet plus exchange when withdrawing.
func Hurdle(sell BalancePair, withdraw bool) (decimal.Decimal, string) {
	if withdraw {
		return sell.Combined(), "exchange"
	}
	return sell.Wallet, "wallet"
}
