package domain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestGasPrice_Gwei(t *testing.T) {
	tests := []struct {
		wei  int64
		want string
	}{
		{20_000_000_000, "20"},
		{1_500_000_000, "1.5"},
		{1, "0.000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := NewGasPrice(big.NewInt(tt.wei)).Gwei()
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Gwei() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGweiToWei(t *testing.T) {
	if got := GweiToWei(decimal.RequireFromString("500")); got.String() != "500000000000" {
		t.Errorf("GweiToWei(500) = %s", got)
	}
}

func TestCalculateGasEstimate(t *testing.T) {
	est := CalculateGasEstimate(79079, NewGasPrice(big.NewInt(10_000_000_000)))
	if !est.TotalGwei().Equal(decimal.NewFromInt(790790)) {
		t.Errorf("TotalGwei() = %s", est.TotalGwei())
	}
}
