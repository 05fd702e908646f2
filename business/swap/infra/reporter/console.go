// Package reporter presents converter snapshots on a console or the TUI.
package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pricingDomain "github.com/fd1az/swapdesk/business/pricing/domain"
	"github.com/fd1az/swapdesk/business/swap/app"
)

// Console implements app.Reporter for line-oriented output. A snapshot is
// printed only when its rendered line differs from the previous one.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	last     string
	lastFee  uint64
	statuses map[string]bool
	now      func() time.Time
}

// NewConsole creates a Console writing to out, or stdout when out is nil.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:      out,
		statuses: make(map[string]bool),
		now:      time.Now,
	}
}

// Start prints the banner.
func (r *Console) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "swapdesk started")
	fmt.Fprintln(r.out, "================")
	return nil
}

// Report prints the snapshot when its visible state changed.
func (r *Console) Report(snap app.Snapshot) {
	line := FormatSnapshot(snap)

	r.mu.Lock()
	defer r.mu.Unlock()
	if line == r.last {
		return
	}
	r.last = line
	fmt.Fprintf(r.out, "[%s] %s\n", r.now().Format("15:04:05"), line)
}

// UpdateNetworkFee prints the fee once per block.
func (r *Console) UpdateNetworkFee(fee app.NetworkFee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fee.Block <= r.lastFee {
		return
	}
	r.lastFee = fee.Block
	fmt.Fprintf(r.out, "[%s] block #%d  gas %s gwei  network fee %s\n",
		r.now().Format("15:04:05"), fee.Block, fee.GasGwei.StringFixed(1), pricingDomain.FormatUSD(fee.USD))
}

// UpdateConnectionStatus prints connection transitions.
func (r *Console) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, seen := r.statuses[name]; seen && prev == connected {
		return
	}
	r.statuses[name] = connected

	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency.Round(time.Millisecond))
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", r.now().Format("15:04:05"), name, status)
}

// Stop prints the closing line.
func (r *Console) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "swapdesk stopped")
	return nil
}

// FormatSnapshot renders the user-visible part of a snapshot on one line.
func FormatSnapshot(snap app.Snapshot) string {
	st := snap.State
	if st.Pair.IsZero() {
		return "no pair selected"
	}
	sellSym, buySym := st.Pair.TokenA.Symbol(), st.Pair.TokenB.Symbol()

	field := func(text string, loading bool) string {
		switch {
		case loading:
			return "…"
		case text == "":
			return "-"
		}
		return text
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  sell %s %s -> buy %s %s",
		st.Pair, field(st.SellQtyText, st.IsSellFieldLoading), sellSym,
		field(st.BuyQtyText, st.IsBuyFieldLoading), buySym)

	if st.IsSwapAllowed {
		sb.WriteString("  [swap]")
	} else if st.SwapBlockReason != "" {
		fmt.Fprintf(&sb, "  [%s]", st.SwapBlockReason)
	}
	if snap.Impact != nil && !st.Loading() {
		fmt.Fprintf(&sb, "  impact %s%%", snap.Impact.PercentChange.StringFixed(2))
	}
	fmt.Fprintf(&sb, "  slippage %s%%", st.SlippagePct)
	if st.Preference.WithdrawFromExchange {
		sb.WriteString("  withdraw")
	}
	if st.Preference.SaveAsExchangeSurplus {
		sb.WriteString("  surplus")
	}
	return sb.String()
}
