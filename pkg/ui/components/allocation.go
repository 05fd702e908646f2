package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// AllocationView is the wallet/exchange split of the sell quantity and the
// balances left after the swap.
type AllocationView struct {
	SellSymbol        string
	BuySymbol         string
	CoveredByWallet   decimal.Decimal
	CoveredByExchange decimal.Decimal
	SellWalletAfter   decimal.Decimal
	SellExchangeAfter decimal.Decimal
	BuyWalletAfter    decimal.Decimal
	BuyExchangeAfter  decimal.Decimal
	Withdraw          bool
	Surplus           bool
}

// RenderAllocation draws the allocation block.
func RenderAllocation(a AllocationView) string {
	head := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	neg := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	amount := func(d decimal.Decimal, sym string) string {
		s := FormatBalance(d) + " " + sym
		if d.IsNegative() {
			return neg.Render(s)
		}
		return s
	}

	var sb strings.Builder
	sb.WriteString(head.Render("ALLOCATION"))
	sb.WriteString("\n")
	sb.WriteString(toggle("withdraw from exchange", a.Withdraw) + "   " + toggle("keep output on exchange", a.Surplus))
	sb.WriteString("\n\n")
	sb.WriteString(muted.Render("from wallet    ") + amount(a.CoveredByWallet, a.SellSymbol) + "\n")
	sb.WriteString(muted.Render("from exchange  ") + amount(a.CoveredByExchange, a.SellSymbol) + "\n\n")
	sb.WriteString(muted.Render("after swap") + "\n")
	sb.WriteString(muted.Render("  wallet    ") + amount(a.SellWalletAfter, a.SellSymbol) + "  " + amount(a.BuyWalletAfter, a.BuySymbol) + "\n")
	sb.WriteString(muted.Render("  exchange  ") + amount(a.SellExchangeAfter, a.SellSymbol) + "  " + amount(a.BuyExchangeAfter, a.BuySymbol))
	return sb.String()
}

func toggle(label string, on bool) string {
	if on {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Render("[x] " + label)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render("[ ] " + label)
}
