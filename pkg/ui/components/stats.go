package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds session counters for display.
type Stats struct {
	Blocks       int64
	Quotes       int64
	NoLiquidity  int64
	Reverses     int64
	Errors       int64
	SessionShort string
}

// StatsComponent renders session counters on one line.
type StatsComponent struct {
	stats Stats
}

func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

func (s *StatsComponent) Stats() Stats { return s.stats }

var (
	statsLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	statsValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	statsAlert = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

func (s *StatsComponent) View() string {
	counters := []struct {
		label string
		n     int64
		alert bool
	}{
		{"blocks", s.stats.Blocks, false},
		{"quotes", s.stats.Quotes, false},
		{"no liquidity", s.stats.NoLiquidity, false},
		{"reverses", s.stats.Reverses, false},
		{"errors", s.stats.Errors, s.stats.Errors > 0},
	}

	cells := make([]string, 0, len(counters))
	for _, c := range counters {
		style := statsValue
		if c.alert {
			style = statsAlert
		}
		cells = append(cells, c.label+" "+style.Render(strconv.FormatInt(c.n, 10)))
	}
	return statsLabel.Render("session "+s.stats.SessionShort) + "  " + strings.Join(cells, " │ ")
}
