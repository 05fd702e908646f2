package ui

import "github.com/charmbracelet/lipgloss"

// Palette. The components package mirrors these hex values.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSecondary = lipgloss.Color("#10B981")
	ColorDanger    = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorBorder    = lipgloss.Color("#374151")
	ColorText      = lipgloss.Color("#FFFFFF")
)

// Dashboard.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 2)

	// HeaderStyle renders the active pair next to the title.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	MutedValue = lipgloss.NewStyle().Foreground(ColorMuted)

	ErrorHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
	ErrorLineStyle   = lipgloss.NewStyle().Foreground(ColorDanger)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)

// Welcome and startup screens.
var (
	LogoStyle        = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	StartupHeadStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorText)

	StepDoneStyle    = lipgloss.NewStyle().Foreground(ColorSecondary)
	StepActiveStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	StepFailedStyle  = lipgloss.NewStyle().Foreground(ColorDanger)
	StepPendingStyle = MutedValue
)
