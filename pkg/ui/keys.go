package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit         key.Binding
	NextField    key.Binding
	Reverse      key.Binding
	Max          key.Binding
	Withdraw     key.Binding
	Surplus      key.Binding
	SlippageUp   key.Binding
	SlippageDown key.Binding
	Refresh      key.Binding
	ClearErrors  key.Binding
	Help         key.Binding
}

// DefaultKeyMap returns the default keybindings. Plain characters go to the
// focused quantity field, so actions sit on control keys.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "up", "down"),
			key.WithHelp("tab", "switch field"),
		),
		Reverse: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reverse"),
		),
		Max: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "max"),
		),
		Withdraw: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("ctrl+w", "withdraw from exchange"),
		),
		Surplus: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "keep as exchange surplus"),
		),
		SlippageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "slippage +0.1%"),
		),
		SlippageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "slippage -0.1%"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "reload balances"),
		),
		ClearErrors: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "clear errors"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Reverse, k.Max, k.Withdraw, k.Quit, k.Help}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.Reverse, k.Max, k.Refresh},
		{k.Withdraw, k.Surplus, k.SlippageUp, k.SlippageDown},
		{k.ClearErrors, k.Help, k.Quit},
	}
}
