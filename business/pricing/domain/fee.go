package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// SwapGasUnits is the gas a single-pool swap is estimated to burn.
const SwapGasUnits = 79079

var (
	gweiPerEth = decimal.New(1, 9)
	weiPerGwei = decimal.New(1, 9)
)

// NetworkFeeUSD is gasPriceGwei * SwapGasUnits * 1e-9 * ethUSD.
func NetworkFeeUSD(gasPriceGwei, ethUSD decimal.Decimal) decimal.Decimal {
	return gasPriceGwei.
		Mul(decimal.NewFromInt(SwapGasUnits)).
		Div(gweiPerEth).
		Mul(ethUSD)
}

// WeiToGwei converts a gas price in wei.
func WeiToGwei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, 0).Div(weiPerGwei)
}

// FormatUSD renders d as "$x.xx".
func FormatUSD(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
