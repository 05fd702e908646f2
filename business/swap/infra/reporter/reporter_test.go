package reporter

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/swapdesk/business/pricing/domain"
	"github.com/fd1az/swapdesk/business/swap/app"
	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/internal/asset"
	"github.com/fd1az/swapdesk/pkg/ui"
)

func testSnapshot(sell, buy string) app.Snapshot {
	st := domain.NewState(domain.InitialState{
		Pair:        domain.NewPair(asset.ETH, asset.USDC),
		SlippagePct: decimal.RequireFromString("0.3"),
	})
	st.SellQtyText = sell
	st.BuyQtyText = buy
	st.IsSellFieldLoading = false
	st.IsBuyFieldLoading = false
	st.IsSwapAllowed = true
	st.SwapBlockReason = ""
	return app.Snapshot{Seq: 1, State: st}
}

func newTestConsole(buf *bytes.Buffer) *Console {
	c := NewConsole(buf)
	c.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestFormatSnapshot(t *testing.T) {
	snap := testSnapshot("0.5", "1500.00")
	snap.Impact = &pricingDomain.Impact{PercentChange: decimal.RequireFromString("-0.123")}

	got := FormatSnapshot(snap)
	for _, want := range []string{"ETH/USDC", "sell 0.5 ETH", "buy 1500.00 USDC", "[swap]", "impact -0.12%", "slippage 0.3%"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatSnapshot() = %q, missing %q", got, want)
		}
	}
}

func TestFormatSnapshot_BlockedAndLoading(t *testing.T) {
	snap := testSnapshot("0.5", "")
	snap.State.IsBuyFieldLoading = true
	snap.State.IsSwapAllowed = false
	snap.State.SwapBlockReason = "pending"

	got := FormatSnapshot(snap)
	if !strings.Contains(got, "buy … USDC") {
		t.Errorf("FormatSnapshot() = %q, want loading marker", got)
	}
	if !strings.Contains(got, "[pending]") {
		t.Errorf("FormatSnapshot() = %q, want block reason", got)
	}
}

func TestConsole_DedupesSnapshots(t *testing.T) {
	var buf bytes.Buffer
	c := newTestConsole(&buf)

	c.Report(testSnapshot("1", "3000.00"))
	again := testSnapshot("1", "3000.00")
	again.Seq = 2
	c.Report(again)
	c.Report(testSnapshot("2", "6000.00"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "[12:00:00] ") {
		t.Errorf("line = %q, want timestamp prefix", lines[0])
	}
}

func TestConsole_FeeOncePerBlock(t *testing.T) {
	var buf bytes.Buffer
	c := newTestConsole(&buf)

	fee := app.NetworkFee{Block: 10, GasGwei: decimal.RequireFromString("20"), USD: decimal.RequireFromString("4.74")}
	c.UpdateNetworkFee(fee)
	c.UpdateNetworkFee(fee)
	fee.Block = 9
	c.UpdateNetworkFee(fee)

	out := buf.String()
	if n := strings.Count(out, "block #"); n != 1 {
		t.Fatalf("fee lines = %d, want 1:\n%s", n, out)
	}
	if !strings.Contains(out, "gas 20.0 gwei") || !strings.Contains(out, "$4.74") {
		t.Errorf("fee line = %q", out)
	}
}

func TestConsole_StatusTransitionsOnly(t *testing.T) {
	var buf bytes.Buffer
	c := newTestConsole(&buf)

	c.UpdateConnectionStatus("block feed (ws)", true, time.Second)
	c.UpdateConnectionStatus("block feed (ws)", true, 2*time.Second)
	c.UpdateConnectionStatus("block feed (ws)", false, 0)

	out := buf.String()
	if strings.Count(out, "block feed (ws)") != 2 {
		t.Fatalf("output:\n%s", out)
	}
	if !strings.Contains(out, "disconnected") {
		t.Errorf("missing disconnect line:\n%s", out)
	}
}

func TestConsole_StartStop(t *testing.T) {
	var buf bytes.Buffer
	c := newTestConsole(&buf)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !strings.Contains(buf.String(), "swapdesk started") || !strings.Contains(buf.String(), "swapdesk stopped") {
		t.Errorf("output = %q", buf.String())
	}
}

type captureSender struct {
	msgs []tea.Msg
}

func (c *captureSender) Send(msg tea.Msg) { c.msgs = append(c.msgs, msg) }

func TestTUI_ForwardsMessages(t *testing.T) {
	s := &captureSender{}
	r := NewTUI(s)

	r.Report(testSnapshot("1", "3000.00"))
	r.UpdateNetworkFee(app.NetworkFee{Block: 5})
	r.UpdateConnectionStatus("block feed (ws)", true, time.Millisecond)

	if len(s.msgs) != 3 {
		t.Fatalf("sent %d messages, want 3", len(s.msgs))
	}
	if m, ok := s.msgs[0].(ui.SnapshotMsg); !ok || m.Snapshot.State.SellQtyText != "1" {
		t.Errorf("msg[0] = %#v", s.msgs[0])
	}
	if m, ok := s.msgs[1].(ui.NetworkFeeMsg); !ok || m.Fee.Block != 5 {
		t.Errorf("msg[1] = %#v", s.msgs[1])
	}
	if m, ok := s.msgs[2].(ui.ConnectionStatusMsg); !ok || !m.Connected {
		t.Errorf("msg[2] = %#v", s.msgs[2])
	}
}
