package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/fd1az/swapdesk/business/swap/app"
	"github.com/fd1az/swapdesk/business/swap/domain"
)

// Controller is the part of the converter the form drives.
type Controller interface {
	EditField(side domain.Side, raw string)
	ClickMax()
	Reverse()
	ToggleWithdraw()
	ToggleSurplus()
	SetSlippage(pct decimal.Decimal)
	RefreshBalances()
	Snapshot() app.Snapshot
}

var slippageStep = decimal.RequireFromString("0.1")

// quantityChars is what a quantity field accepts; the converter normalizes
// the rest.
const quantityChars = "0123456789.,"

func newQuantityInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 32
	in.Width = 24
	return in
}

// acceptsKey reports whether a key may reach a quantity field: editing and
// cursor keys, and runes from quantityChars only.
func acceptsKey(msg tea.KeyMsg) bool {
	if msg.Type != tea.KeyRunes {
		return true
	}
	for _, r := range msg.Runes {
		if !strings.ContainsRune(quantityChars, r) {
			return false
		}
	}
	return true
}

// syncInput sets in to text without disturbing it when nothing changed.
func syncInput(in *textinput.Model, text string) {
	if in.Value() == text {
		return
	}
	in.SetValue(text)
	in.CursorEnd()
}
