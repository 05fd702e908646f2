// Package wsconn provides a WebSocket client with automatic reconnection.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

var (
	// ErrNotConnected is returned by Send while no connection is up.
	ErrNotConnected = errors.New("wsconn: not connected")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("wsconn: client closed")
)

// Config holds WebSocket client configuration.
type Config struct {
	URL  string
	Name string

	Header http.Header

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite

	// PingInterval of 0 disables keepalive pings.
	PingInterval time.Duration
	PongTimeout  time.Duration

	DialTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		DialTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// MessageHandler receives every inbound message.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions; err is the cause when there is one.
type StateHandler func(state State, err error)

// ConnectHandler runs after every successful dial, including reconnects.
// Returning an error drops the connection and triggers another attempt.
type ConnectHandler func(ctx context.Context) error

// Client is a WebSocket client that redials with exponential backoff.
type Client struct {
	config Config

	mu    sync.RWMutex
	conn  *websocket.Conn
	state State

	writeMu sync.Mutex

	handlersMu sync.RWMutex
	onMessage  []MessageHandler
	onState    []StateHandler
	onConnect  []ConnectHandler

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once

	reconnects metric.Int64Counter
	messages   metric.Int64Counter
}

// New creates a client. It does not dial.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("wsconn: url is required")
	}
	if config.Name == "" {
		config.Name = config.URL
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		config: config,
		state:  StateDisconnected,
		ctx:    ctx,
		cancel: cancel,
	}

	meter := otel.Meter("github.com/fd1az/swapdesk/internal/wsconn")
	c.reconnects, _ = meter.Int64Counter("wsconn_reconnects_total",
		metric.WithDescription("WebSocket reconnect attempts"))
	c.messages, _ = meter.Int64Counter("wsconn_messages_received_total",
		metric.WithDescription("WebSocket messages received"))

	return c, nil
}

// OnMessage registers a message handler. Register before Connect.
func (c *Client) OnMessage(h MessageHandler) {
	c.handlersMu.Lock()
	c.onMessage = append(c.onMessage, h)
	c.handlersMu.Unlock()
}

// OnStateChange registers a state handler.
func (c *Client) OnStateChange(h StateHandler) {
	c.handlersMu.Lock()
	c.onState = append(c.onState, h)
	c.handlersMu.Unlock()
}

// OnConnect registers a handler run after each successful dial.
func (c *Client) OnConnect(h ConnectHandler) {
	c.handlersMu.Lock()
	c.onConnect = append(c.onConnect, h)
	c.handlersMu.Unlock()
}

// Connect dials once. Failures are returned; reconnection only kicks in
// after a connection has been established and later drops.
func (c *Client) Connect(ctx context.Context) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}

	c.setState(StateConnecting, nil)
	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected, err)
		return err
	}
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	dialCtx := ctx
	if c.config.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.config.DialTimeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(dialCtx, c.config.URL, &websocket.DialOptions{
		HTTPHeader: c.config.Header,
	})
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.config.Name, err)
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		conn.CloseNow()
		return ErrClosed
	}
	c.conn = conn
	c.mu.Unlock()

	c.setState(StateConnected, nil)

	go c.readLoop(conn)
	if c.config.PingInterval > 0 {
		go c.pingLoop(conn)
	}

	c.handlersMu.RLock()
	hooks := append([]ConnectHandler(nil), c.onConnect...)
	c.handlersMu.RUnlock()

	for _, h := range hooks {
		if err := h(c.ctx); err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close(websocket.StatusInternalError, "connect hook failed")
			return fmt.Errorf("connect hook %s: %w", c.config.Name, err)
		}
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}

		c.messages.Add(c.ctx, 1, metric.WithAttributes(attribute.String("conn", c.config.Name)))

		c.handlersMu.RLock()
		handlers := c.onMessage
		c.handlersMu.RUnlock()
		for _, h := range handlers {
			h(c.ctx, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			current := c.conn
			c.mu.RUnlock()
			if current != conn {
				return
			}

			ctx, cancel := context.WithTimeout(c.ctx, c.config.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				conn.Close(websocket.StatusGoingAway, "ping timeout")
				return
			}
		}
	}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()

	conn.CloseNow()

	if c.ctx.Err() != nil {
		return
	}

	c.setState(StateReconnecting, cause)
	go c.reconnect()
}

func (c *Client) reconnect() {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.InitialBackoff
	b.MaxInterval = c.config.MaxBackoff

	// Wait before the first redial as well.
	select {
	case <-c.ctx.Done():
		return
	case <-time.After(b.NextBackOff()):
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
	}
	if c.config.MaxReconnects > 0 {
		opts = append(opts, backoff.WithMaxTries(uint(c.config.MaxReconnects)))
	}

	_, err := backoff.Retry(c.ctx, func() (struct{}, error) {
		c.reconnects.Add(c.ctx, 1, metric.WithAttributes(attribute.String("conn", c.config.Name)))
		return struct{}{}, c.dial(c.ctx)
	}, opts...)

	if err != nil && c.ctx.Err() == nil {
		c.setState(StateDisconnected, err)
	}
}

// Send writes a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		if c.ctx.Err() != nil {
			return ErrClosed
		}
		return ErrNotConnected
	}

	if c.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.WriteTimeout)
		defer cancel()
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.Write(ctx, websocket.MessageText, msg)
}

// SendJSON marshals v and sends it.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// IsConnected reports whether a connection is up.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close shuts the client down for good. It is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		if conn != nil {
			conn.Close(websocket.StatusNormalClosure, "")
		}
		c.setState(StateClosed, nil)
	})
	return nil
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	if c.state == StateClosed || c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()

	c.handlersMu.RLock()
	handlers := c.onState
	c.handlersMu.RUnlock()
	for _, h := range handlers {
		h(state, err)
	}
}
