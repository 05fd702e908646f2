// Package ui provides the Bubble Tea TUI for the swap desk.
package ui

import (
	"time"

	"github.com/fd1az/swapdesk/business/swap/app"
)

// SnapshotMsg carries a converter snapshot. Older Seq values are dropped.
type SnapshotMsg struct {
	Snapshot app.Snapshot
}

// NetworkFeeMsg carries the fee estimate for the latest block.
type NetworkFeeMsg struct {
	Fee app.NetworkFee
}

// ReadyMsg attaches the converter once modules are up.
type ReadyMsg struct {
	Controller Controller
}

type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

type ErrorMsg struct {
	Error error
}

// TickMsg drives the welcome countdown and the "ago" labels.
type TickMsg struct{}

// LogMsg shows a line in the log panel. Level is a logger level name.
type LogMsg struct {
	Level   string
	Message string
}

// StepStatus is the progress of one startup step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepConnecting StepStatus = "connecting"
	StepConnected  StepStatus = "connected"
	StepFailed     StepStatus = "failed"
	StepDone       StepStatus = "done"
)

// StartupMsg reports progress of a startup step; Message is shown on failure.
type StartupMsg struct {
	Step    string
	Status  StepStatus
	Message string
}
