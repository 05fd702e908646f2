package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// FieldView is one quantity field of the swap form.
type FieldView struct {
	Label    string
	Symbol   string
	Input    string // rendered text input
	Loading  bool
	Spinner  string
	Focused  bool
	Primary  bool
	Wallet   decimal.Decimal
	Exchange decimal.Decimal
}

var (
	fieldBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)
	fieldFocused = fieldBorder.BorderForeground(lipgloss.Color("#7C3AED"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	symbolStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	balanceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	primaryMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Render("◆")
)

// RenderField draws a field box of the given inner width.
func RenderField(f FieldView, width int) string {
	var sb strings.Builder

	header := labelStyle.Render(f.Label)
	if f.Primary {
		header += " " + primaryMark
	}
	sb.WriteString(header)
	sb.WriteString("\n")

	input := f.Input
	if f.Loading {
		input = f.Spinner + " " + labelStyle.Render("quoting")
	}
	sb.WriteString(input)
	sb.WriteString("  ")
	sb.WriteString(symbolStyle.Render(f.Symbol))
	sb.WriteString("\n")

	sb.WriteString(balanceStyle.Render("wallet " + FormatBalance(f.Wallet) + "  exchange " + FormatBalance(f.Exchange)))

	style := fieldBorder
	if f.Focused {
		style = fieldFocused
	}
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(sb.String())
}

// FormatBalance trims a balance for display.
func FormatBalance(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	if d.Abs().LessThan(decimal.NewFromInt(1)) {
		return d.Round(6).String()
	}
	return d.Round(4).String()
}
