package reporter

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/swapdesk/business/swap/app"
	"github.com/fd1az/swapdesk/pkg/ui"
)

// Sender delivers messages to a running Bubble Tea program.
type Sender interface {
	Send(msg tea.Msg)
}

type sendFunc func(tea.Msg)

func (f sendFunc) Send(msg tea.Msg) { f(msg) }

// TUI implements app.Reporter by forwarding to the Bubble Tea program.
type TUI struct {
	sender Sender
}

// NewTUI creates a TUI reporter. A nil sender uses the global program.
func NewTUI(sender Sender) *TUI {
	if sender == nil {
		sender = sendFunc(ui.Send)
	}
	return &TUI{sender: sender}
}

// Start is a no-op; the program is owned by main.
func (r *TUI) Start(ctx context.Context) error {
	return nil
}

// Report forwards a snapshot.
func (r *TUI) Report(snap app.Snapshot) {
	r.sender.Send(ui.SnapshotMsg{Snapshot: snap})
}

// UpdateNetworkFee forwards the fee estimate.
func (r *TUI) UpdateNetworkFee(fee app.NetworkFee) {
	r.sender.Send(ui.NetworkFeeMsg{Fee: fee})
}

// UpdateConnectionStatus forwards a connection status.
func (r *TUI) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.sender.Send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
}

// Stop is a no-op.
func (r *TUI) Stop() error {
	return nil
}
