package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

var weiPerGwei = decimal.New(1, 9)

// GasPrice is a suggested gas price.
type GasPrice struct {
	Wei       *big.Int
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int) *GasPrice {
	if wei == nil {
		wei = new(big.Int)
	}
	return &GasPrice{Wei: new(big.Int).Set(wei), Timestamp: time.Now()}
}

// Gwei returns the price in gwei.
func (g *GasPrice) Gwei() decimal.Decimal {
	return decimal.NewFromBigInt(g.Wei, 0).Div(weiPerGwei)
}

// GweiToWei converts a gwei amount, truncating sub-wei digits.
func GweiToWei(gwei decimal.Decimal) *big.Int {
	return gwei.Mul(weiPerGwei).Truncate(0).BigInt()
}

// GasEstimate is the cost of gasLimit units at a price.
type GasEstimate struct {
	GasLimit uint64
	GasPrice *GasPrice
	TotalWei *big.Int
}

// CalculateGasEstimate computes the total gas cost.
func CalculateGasEstimate(gasLimit uint64, price *GasPrice) *GasEstimate {
	total := new(big.Int).Mul(price.Wei, new(big.Int).SetUint64(gasLimit))
	return &GasEstimate{GasLimit: gasLimit, GasPrice: price, TotalWei: total}
}

// TotalGwei returns the total cost in gwei.
func (e *GasEstimate) TotalGwei() decimal.Decimal {
	return decimal.NewFromBigInt(e.TotalWei, 0).Div(weiPerGwei)
}
