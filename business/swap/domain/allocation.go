package domain

import "github.com/shopspring/decimal"

// AllocationInput is everything ComputeAllocation reads.
type AllocationInput struct {
	SellQty    decimal.Decimal
	BuyQty     decimal.Decimal
	Sell       BalancePair
	Buy        BalancePair
	Preference Preference
}

// AllocationResult splits the sell quantity between exchange and wallet funds
// and projects both tokens' balances after the trade.
type AllocationResult struct {
	CoveredByExchange decimal.Decimal
	CoveredByWallet   decimal.Decimal

	SellWalletAfter   decimal.Decimal
	SellExchangeAfter decimal.Decimal
	BuyWalletAfter    decimal.Decimal
	BuyExchangeAfter  decimal.Decimal
}

// ComputeAllocation is pure. Negative quantities count as zero, so the
// covered amounts always sum to the sell quantity and are never negative.
func ComputeAllocation(in AllocationInput) AllocationResult {
	sellQty := clampZero(in.SellQty)
	buyQty := clampZero(in.BuyQty)

	exCovered := decimal.Zero
	if in.Preference.WithdrawFromExchange {
		exCovered = decimal.Min(sellQty, clampZero(in.Sell.Exchange))
	}
	walletCovered := sellQty.Sub(exCovered)

	res := AllocationResult{
		CoveredByExchange: exCovered,
		CoveredByWallet:   walletCovered,
		SellWalletAfter:   in.Sell.Wallet.Sub(walletCovered),
		SellExchangeAfter: in.Sell.Exchange.Sub(exCovered),
		BuyWalletAfter:    in.Buy.Wallet,
		BuyExchangeAfter:  in.Buy.Exchange,
	}
	if in.Preference.SaveAsExchangeSurplus {
		res.BuyExchangeAfter = res.BuyExchangeAfter.Add(buyQty)
	} else {
		res.BuyWalletAfter = res.BuyWalletAfter.Add(buyQty)
	}
	return res
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
