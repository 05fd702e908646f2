package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
)

type rpcRequest struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// fakeNode answers eth_subscribe and pushes a few newHeads notifications.
type fakeNode struct {
	srv *httptest.Server

	heads       int
	dropAfter   int32 // drop this many connections right after subscribing
	subscribes  atomic.Int32
	connections atomic.Int32
}

func newFakeNode(t *testing.T, heads int) *fakeNode {
	t.Helper()
	n := &fakeNode{heads: heads}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.srv.Close)
	return n
}

func (n *fakeNode) url() string {
	return "ws" + strings.TrimPrefix(n.srv.URL, "http")
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()
	seq := n.connections.Add(1)

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req rpcRequest
		if json.Unmarshal(data, &req) != nil || req.Method != "eth_subscribe" {
			continue
		}
		n.subscribes.Add(1)
		reply := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"0xsub%d"}`, req.ID, seq)
		if conn.Write(ctx, websocket.MessageText, []byte(reply)) != nil {
			return
		}
		if seq <= n.dropAfter {
			return
		}
		for i := 1; i <= n.heads; i++ {
			note := fmt.Sprintf(`{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":"0xsub%d","result":{"number":"0x%x"}}}`, seq, i)
			if conn.Write(ctx, websocket.MessageText, []byte(note)) != nil {
				return
			}
		}
	}
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url, "eth-newheads")
	cfg.PingInterval = 0
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 50 * time.Millisecond
	cfg.DialTimeout = 2 * time.Second
	return cfg
}

func subscribeNewHeads(c *Client) {
	var id atomic.Int32
	c.OnConnect(func(ctx context.Context) error {
		return c.SendJSON(ctx, map[string]any{
			"jsonrpc": "2.0",
			"id":      id.Add(1),
			"method":  "eth_subscribe",
			"params":  []any{"newHeads"},
		})
	})
}

// headCollector records block numbers from subscription notifications.
type headCollector struct {
	mu     sync.Mutex
	blocks []string
	ch     chan struct{}
}

func newHeadCollector() *headCollector {
	return &headCollector{ch: make(chan struct{}, 64)}
}

func (h *headCollector) handle(_ context.Context, msg []byte) {
	var note struct {
		Method string `json:"method"`
		Params struct {
			Result struct {
				Number string `json:"number"`
			} `json:"result"`
		} `json:"params"`
	}
	if json.Unmarshal(msg, &note) != nil || note.Method != "eth_subscription" {
		return
	}
	h.mu.Lock()
	h.blocks = append(h.blocks, note.Params.Result.Number)
	h.mu.Unlock()
	h.ch <- struct{}{}
}

func (h *headCollector) wait(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-h.ch:
		case <-deadline:
			t.Fatalf("received %d of %d heads", i, n)
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.blocks...)
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{Name: "x"}); err == nil {
		t.Fatal("expected error for empty url")
	}

	c, err := New(Config{URL: "ws://node"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if c.Config().Name != "ws://node" {
		t.Errorf("name = %q, want url fallback", c.Config().Name)
	}
}

func TestClient_SubscribeOnConnect(t *testing.T) {
	node := newFakeNode(t, 3)

	c, err := New(testConfig(node.url()))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	heads := newHeadCollector()
	c.OnMessage(heads.handle)
	subscribeNewHeads(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !c.IsConnected() {
		t.Errorf("state = %s, want connected", c.State())
	}

	got := heads.wait(t, 3)
	want := []string{"0x1", "0x2", "0x3"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("heads = %v, want %v", got, want)
	}
	if node.subscribes.Load() != 1 {
		t.Errorf("subscribes = %d, want 1", node.subscribes.Load())
	}
}

func TestClient_ResubscribesAfterDrop(t *testing.T) {
	node := newFakeNode(t, 2)
	node.dropAfter = 1

	c, err := New(testConfig(node.url()))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var mu sync.Mutex
	var states []State
	c.OnStateChange(func(s State, _ error) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})
	heads := newHeadCollector()
	c.OnMessage(heads.handle)
	subscribeNewHeads(c)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	// Heads only arrive on the second connection.
	heads.wait(t, 2)

	if got := node.subscribes.Load(); got != 2 {
		t.Errorf("subscribes = %d, want 2", got)
	}
	if got := node.connections.Load(); got < 2 {
		t.Errorf("connections = %d, want at least 2", got)
	}

	mu.Lock()
	defer mu.Unlock()
	sawReconnecting := false
	for _, s := range states {
		if s == StateReconnecting {
			sawReconnecting = true
		}
	}
	if !sawReconnecting {
		t.Errorf("states = %v, want a reconnecting transition", states)
	}
	if last := states[len(states)-1]; last != StateConnected {
		t.Errorf("last state = %s, want connected", last)
	}
}

func TestClient_ConnectFailure(t *testing.T) {
	cfg := testConfig("ws://127.0.0.1:1")
	cfg.DialTimeout = 500 * time.Millisecond

	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var lastErr error
	c.OnStateChange(func(s State, err error) {
		if s == StateDisconnected {
			lastErr = err
		}
	})

	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
	if c.State() != StateDisconnected {
		t.Errorf("state = %s, want disconnected", c.State())
	}
	if lastErr == nil {
		t.Error("state handler did not receive the dial error")
	}
}

func TestClient_ConnectHookError(t *testing.T) {
	node := newFakeNode(t, 0)

	c, err := New(testConfig(node.url()))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	hookErr := errors.New("subscribe rejected")
	c.OnConnect(func(context.Context) error { return hookErr })

	err = c.Connect(context.Background())
	if !errors.Is(err, hookErr) {
		t.Fatalf("Connect() error = %v, want %v", err, hookErr)
	}
	if err := c.Send(context.Background(), []byte("{}")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() after hook failure = %v, want ErrNotConnected", err)
	}
}

func TestClient_SendStates(t *testing.T) {
	c, err := New(testConfig("ws://127.0.0.1:1"))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Send(context.Background(), []byte("{}")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() before connect = %v, want ErrNotConnected", err)
	}

	c.Close()
	c.Close()

	if err := c.Send(context.Background(), []byte("{}")); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after close = %v, want ErrClosed", err)
	}
	if err := c.Connect(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Connect() after close = %v, want ErrClosed", err)
	}
	if c.State() != StateClosed {
		t.Errorf("state = %s, want closed", c.State())
	}
}

func TestClient_CloseStopsReconnecting(t *testing.T) {
	node := newFakeNode(t, 0)
	node.dropAfter = 100

	c, err := New(testConfig(node.url()))
	if err != nil {
		t.Fatal(err)
	}
	subscribeNewHeads(c)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	c.Close()

	settled := node.connections.Load()
	time.Sleep(150 * time.Millisecond)
	if got := node.connections.Load(); got > settled+1 {
		t.Errorf("connections grew from %d to %d after Close", settled, got)
	}
	if c.State() != StateClosed {
		t.Errorf("state = %s, want closed", c.State())
	}
}

func TestClient_ConcurrentSubscribes(t *testing.T) {
	node := newFakeNode(t, 0)

	c, err := New(testConfig(node.url()))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			req := rpcRequest{ID: id, Method: "eth_subscribe", Params: []any{"newHeads"}}
			if err := c.SendJSON(context.Background(), req); err != nil {
				t.Errorf("SendJSON(%d) error = %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for node.subscribes.Load() < 8 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := node.subscribes.Load(); got != 8 {
		t.Errorf("subscribes = %d, want 8", got)
	}
}

func TestClient_OversizedFrameTriggersReconnect(t *testing.T) {
	node := newFakeNode(t, 1)

	cfg := testConfig(node.url())
	cfg.MaxMessageSize = 64

	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	reconnecting := make(chan struct{}, 1)
	c.OnStateChange(func(s State, _ error) {
		if s == StateReconnecting {
			select {
			case reconnecting <- struct{}{}:
			default:
			}
		}
	})
	subscribeNewHeads(c)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reconnecting:
	case <-time.After(3 * time.Second):
		t.Fatal("notification above the read limit did not drop the connection")
	}
}
