// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Block is the slice of a block header the desk cares about.
type Block struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  time.Time
	BaseFee    *big.Int
	// Source is "ws" or "http".
	Source string
}

// ConnectionState represents the state of the block feed.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
	// StatePolling means the WebSocket is down and blocks come from HTTP polling.
	StatePolling ConnectionState = "polling"
)

// ConnectionStatus contains detailed feed information.
type ConnectionStatus struct {
	State      ConnectionState
	LastBlock  uint64
	LastUpdate time.Time
	Reconnects int
	UsingHTTP  bool
}

// Healthy reports whether blocks are still arriving from either source.
func (s ConnectionStatus) Healthy() bool {
	return s.State == StateConnected || s.State == StatePolling
}
