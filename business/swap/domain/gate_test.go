package domain

import (
	"strings"
	"testing"
)

func TestEvaluateSwapGate(t *testing.T) {
	base := GateInput{
		PoolExists:  true,
		PrimaryText: "10",
		SellText:    "10",
		SellSymbol:  "ETH",
		SellBalance: bal("100", "0"),
	}

	tests := []struct {
		name       string
		mutate     func(*GateInput)
		wantOK     bool
		wantReason string
	}{
		{"allowed", func(*GateInput) {}, true, ""},
		{"sell_loading", func(in *GateInput) { in.SellLoading = true }, false, ReasonPending},
		{"loading_beats_pool", func(in *GateInput) { in.BuyLoading = true; in.PoolExists = false }, false, ReasonPending},
		{"pool_missing", func(in *GateInput) { in.PoolExists = false }, false, ReasonPoolNotInitialized},
		{"unparsable", func(in *GateInput) { in.PrimaryText = "" }, false, ReasonEnterAmount},
		{"unparsable_beats_liquidity", func(in *GateInput) {
			in.PrimaryText = "NaN"
			in.LiquidityInsufficient = true
		}, false, ReasonEnterAmount},
		{"liquidity", func(in *GateInput) { in.LiquidityInsufficient = true }, false, ReasonLiquidityInsufficient},
		{"liquidity_beats_zero", func(in *GateInput) {
			in.PrimaryText = "0"
			in.LiquidityInsufficient = true
		}, false, ReasonLiquidityInsufficient},
		{"zero", func(in *GateInput) { in.PrimaryText = "0" }, false, ReasonEnterAmount},
		{"buy_primary_blank_sell", func(in *GateInput) {
			in.PrimaryText = "1"
			in.SellText = ""
		}, false, ReasonEnterAmount},
		{"buy_primary_zero_sell", func(in *GateInput) {
			in.PrimaryText = "1"
			in.SellText = "0"
		}, false, ReasonEnterAmount},
		{"exceeds_wallet", func(in *GateInput) {
			in.SellText = "10"
			in.SellBalance = bal("5", "0")
		}, false, "ETH exceeds wallet balance"},
		{"exceeds_combined", func(in *GateInput) {
			in.SellText = "10"
			in.SellBalance = bal("5", "4")
			in.WithdrawFromExchange = true
		}, false, "ETH exceeds exchange balance"},
		{"combined_covers", func(in *GateInput) {
			in.SellText = "10"
			in.SellBalance = bal("5", "5")
			in.WithdrawFromExchange = true
		}, true, ""},
		{"exchange_ignored_without_withdraw", func(in *GateInput) {
			in.SellText = "10"
			in.SellBalance = bal("5", "500")
		}, false, "ETH exceeds wallet balance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			got := EvaluateSwapGate(in)
			if got.Allowed != tt.wantOK || got.Reason != tt.wantReason {
				t.Errorf("EvaluateSwapGate() = %+v, want allowed=%v reason=%q", got, tt.wantOK, tt.wantReason)
			}
		})
	}
}

func TestEvaluateSwapGate_ExceedsWalletBalance(t *testing.T) {
	got := EvaluateSwapGate(GateInput{
		PoolExists:  true,
		PrimaryText: "10",
		SellText:    "10",
		SellSymbol:  "USDC",
		SellBalance: bal("5", "0"),
	})
	if got.Allowed {
		t.Fatal("swap should be blocked")
	}
	if !strings.Contains(got.Reason, "exceeds wallet balance") {
		t.Errorf("reason = %q", got.Reason)
	}
}
