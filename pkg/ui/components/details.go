package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DetailRow is a label/value line under the form.
type DetailRow struct {
	Label string
	Value string
	Warn  bool
}

// DetailsComponent renders quote details and the swap gate.
type DetailsComponent struct {
	rows    []DetailRow
	allowed bool
	reason  string
}

// NewDetailsComponent creates a new details component.
func NewDetailsComponent() *DetailsComponent {
	return &DetailsComponent{}
}

// Update replaces the rows and the gate outcome.
func (d *DetailsComponent) Update(rows []DetailRow, allowed bool, reason string) {
	d.rows = rows
	d.allowed = allowed
	d.reason = reason
}

// View renders the details block.
func (d *DetailsComponent) View() string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(22)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	for _, r := range d.rows {
		v := value.Render(r.Value)
		if r.Warn {
			v = warn.Render(r.Value)
		}
		sb.WriteString(fmt.Sprintf("%s%s\n", label.Render(r.Label), v))
	}
	sb.WriteString("\n")
	sb.WriteString(gateButton(d.allowed, d.reason))
	return sb.String()
}

func gateButton(allowed bool, reason string) string {
	btn := lipgloss.NewStyle().Bold(true).Padding(0, 3)
	if allowed {
		return btn.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#10B981")).Render("SWAP")
	}
	if reason == "" {
		reason = "unavailable"
	}
	return btn.Foreground(lipgloss.Color("#D1D5DB")).Background(lipgloss.Color("#374151")).Render(strings.ToUpper(reason))
}
