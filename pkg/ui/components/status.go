// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus represents a connection's status.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	Latency    time.Duration
	LastUpdate time.Time
}

// StatusComponent renders the block number and connection states on one line.
type StatusComponent struct {
	connections map[string]ConnectionStatus
	block       uint64
	blockAt     time.Time
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{connections: make(map[string]ConnectionStatus)}
}

// Update records a connection's status.
func (s *StatusComponent) Update(status ConnectionStatus) {
	if status.LastUpdate.IsZero() {
		status.LastUpdate = time.Now()
	}
	s.connections[status.Name] = status
}

// SetBlock records the latest block.
func (s *StatusComponent) SetBlock(number uint64) {
	if number > s.block {
		s.block = number
		s.blockAt = time.Now()
	}
}

// Block returns the latest block number.
func (s *StatusComponent) Block() uint64 { return s.block }

// View renders the status line.
func (s *StatusComponent) View() string {
	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	parts := make([]string, 0, len(s.connections)+1)
	if s.block > 0 {
		parts = append(parts, fmt.Sprintf("Block: #%d %s", s.block,
			muted.Render(fmt.Sprintf("(%s ago)", time.Since(s.blockAt).Round(time.Second)))))
	} else {
		parts = append(parts, muted.Render("Block: waiting"))
	}

	names := make([]string, 0, len(s.connections))
	for name := range s.connections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		conn := s.connections[name]
		if !conn.Connected {
			parts = append(parts, bad.Render("○ "+name+" (down)"))
			continue
		}
		line := "● " + name
		if conn.Latency > 0 {
			line += fmt.Sprintf(" (%s)", conn.Latency.Round(time.Millisecond))
		}
		parts = append(parts, ok.Render(line))
	}
	return strings.Join(parts, "  │  ")
}
