// Package ethereum provides Ethereum node adapters for the block feed and gas price.
package ethereum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swapdesk/business/blockchain/app"
	"github.com/fd1az/swapdesk/business/blockchain/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/circuitbreaker"
	"github.com/fd1az/swapdesk/internal/logger"
	"github.com/fd1az/swapdesk/internal/wsconn"
)

const (
	tracerName = "github.com/fd1az/swapdesk/business/blockchain/infra/ethereum"
	meterName  = "github.com/fd1az/swapdesk/business/blockchain/infra/ethereum"

	newHeadsRequestID = 5
)

var _ app.BlockSubscriber = (*Subscriber)(nil)

// HeaderSource reads headers over HTTP; *ethclient.Client satisfies it.
type HeaderSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// SubscriberConfig holds configuration for the block feed.
type SubscriberConfig struct {
	WSURL string
	// PollInterval paces HTTP polling while the WebSocket is down.
	PollInterval   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int
	BufferSize     int
	// BreakerTimeout is how long a tripped HTTP breaker waits before probing.
	BreakerTimeout time.Duration
}

// DefaultSubscriberConfig returns sensible defaults.
func DefaultSubscriberConfig(wsURL string) SubscriberConfig {
	return SubscriberConfig{
		WSURL:          wsURL,
		PollInterval:   2 * time.Second,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		BufferSize:     16,
		BreakerTimeout: 30 * time.Second,
	}
}

type subscriberMetrics struct {
	blocksReceived   metric.Int64Counter
	subscribeErrors  metric.Int64Counter
	blockLatency     metric.Float64Histogram
	httpFallbackUsed metric.Int64Counter
}

// Subscriber streams blocks from an eth_subscribe newHeads WebSocket and
// polls the HTTP node while the socket is down.
type Subscriber struct {
	config  SubscriberConfig
	logger  logger.LoggerInterface
	headers HeaderSource
	ws      *wsconn.Client

	blocks     chan *domain.Block
	done       chan struct{}
	emitMu     sync.Mutex
	closed     bool
	closeOnce  sync.Once
	subscribed atomic.Bool

	lastBlock  atomic.Uint64
	lastUpdate atomic.Int64
	reconnects atomic.Int32
	polling    atomic.Bool

	httpCB *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *subscriberMetrics
}

// NewSubscriber creates a block subscriber. An empty WSURL means HTTP polling only.
func NewSubscriber(cfg SubscriberConfig, headers HeaderSource, log logger.LoggerInterface) (*Subscriber, error) {
	if headers == nil {
		return nil, errors.New("subscriber: header source is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}

	s := &Subscriber{
		config:  cfg,
		logger:  log,
		headers: headers,
		blocks:  make(chan *domain.Block, cfg.BufferSize),
		done:    make(chan struct{}),
		tracer:  otel.Tracer(tracerName),
	}

	if cfg.WSURL != "" {
		wsCfg := wsconn.DefaultConfig(cfg.WSURL, "eth-newheads")
		if cfg.InitialBackoff > 0 {
			wsCfg.InitialBackoff = cfg.InitialBackoff
		}
		if cfg.MaxBackoff > 0 {
			wsCfg.MaxBackoff = cfg.MaxBackoff
		}
		wsCfg.MaxReconnects = cfg.MaxReconnects
		ws, err := wsconn.New(wsCfg)
		if err != nil {
			return nil, fmt.Errorf("create ws client: %w", err)
		}
		s.ws = ws
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	httpCfg := circuitbreaker.DefaultConfig("eth-http")
	if cfg.BreakerTimeout > 0 {
		httpCfg.Timeout = cfg.BreakerTimeout
	}
	httpCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		s.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	s.httpCB = circuitbreaker.New[*types.Header](httpCfg)

	return s, nil
}

func (s *Subscriber) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	s.metrics = &subscriberMetrics{}

	s.metrics.blocksReceived, err = meter.Int64Counter("eth_blocks_received_total",
		metric.WithDescription("Total Ethereum blocks received"),
		metric.WithUnit("{block}"))
	if err != nil {
		return err
	}
	s.metrics.subscribeErrors, err = meter.Int64Counter("eth_subscribe_errors_total",
		metric.WithDescription("Total Ethereum subscription errors"),
		metric.WithUnit("{error}"))
	if err != nil {
		return err
	}
	s.metrics.blockLatency, err = meter.Float64Histogram("eth_block_latency_ms",
		metric.WithDescription("Latency from block timestamp to receipt"),
		metric.WithUnit("ms"))
	if err != nil {
		return err
	}
	s.metrics.httpFallbackUsed, err = meter.Int64Counter("eth_http_fallback_total",
		metric.WithDescription("Blocks taken from HTTP polling"),
		metric.WithUnit("{block}"))
	return err
}

// Subscribe starts the feed. It may be called once; the returned channel is
// closed by Close.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan *domain.Block, error) {
	ctx, span := s.tracer.Start(ctx, "eth.subscribe",
		trace.WithAttributes(attribute.String("ws_url", s.config.WSURL)))
	defer span.End()

	if s.isClosed() {
		return nil, apperror.New(apperror.CodeBlockFeedUnavailable, apperror.WithContext("subscriber closed"))
	}
	if !s.subscribed.CompareAndSwap(false, true) {
		return nil, apperror.New(apperror.CodeInvalidState, apperror.WithContext("already subscribed"))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		cancel()
	}()

	if s.ws != nil {
		s.ws.OnMessage(s.handleMessage)
		s.ws.OnConnect(s.sendSubscribe)
		s.ws.OnStateChange(func(state wsconn.State, err error) {
			if state == wsconn.StateReconnecting {
				s.reconnects.Add(1)
				s.logger.Warn(runCtx, "newHeads socket dropped, polling over http", "error", err)
			}
		})

		if err := s.ws.Connect(ctx); err != nil {
			span.AddEvent("ws_failed_polling_http")
			s.logger.Warn(ctx, "newHeads socket unavailable, polling over http", "error", err)
			go s.connectLoop(runCtx)
		}
	}

	go s.poll(runCtx)

	span.SetStatus(codes.Ok, "subscribed")
	return s.blocks, nil
}

func (s *Subscriber) sendSubscribe(ctx context.Context) error {
	return s.ws.SendJSON(ctx, map[string]any{
		"jsonrpc": "2.0",
		"method":  "eth_subscribe",
		"params":  []string{"newHeads"},
		"id":      newHeadsRequestID,
	})
}

// connectLoop keeps dialing after a failed first connect; wsconn only
// redials connections that were once up.
func (s *Subscriber) connectLoop(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.ws.Config().InitialBackoff
	b.MaxInterval = s.ws.Config().MaxBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		s.reconnects.Add(1)
		return struct{}{}, s.ws.Connect(ctx)
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(0))
	if err != nil && ctx.Err() == nil {
		s.logger.Error(ctx, "newHeads socket gave up", "error", err)
	}
}

func (s *Subscriber) poll(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.ws != nil && s.ws.IsConnected() {
				s.polling.Store(false)
				continue
			}
			s.polling.Store(true)
			s.pollLatest(ctx)
		}
	}
}

func (s *Subscriber) pollLatest(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "eth.poll.block")
	defer span.End()

	header, err := s.httpCB.Execute(func() (*types.Header, error) {
		return s.headers.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		s.metrics.subscribeErrors.Add(ctx, 1)
		s.logger.Warn(ctx, "http poll failed", "error", err)
		return
	}
	if header == nil || header.Number == nil {
		return
	}

	block := headerToBlock(header)
	block.Source = "http"
	if s.emit(ctx, block) {
		s.metrics.httpFallbackUsed.Add(ctx, 1)
	}
}

func (s *Subscriber) handleMessage(ctx context.Context, msg []byte) {
	block, err := ParseNewHead(msg)
	if err != nil {
		s.metrics.subscribeErrors.Add(ctx, 1)
		s.logger.Warn(ctx, "bad newHeads message", "error", err)
		return
	}
	if block == nil {
		return
	}
	s.emit(ctx, block)
}

// emit forwards block if it is newer than the last one, from either source.
func (s *Subscriber) emit(ctx context.Context, block *domain.Block) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	if s.closed || block.Number <= s.lastBlock.Load() {
		return false
	}
	s.lastBlock.Store(block.Number)
	s.lastUpdate.Store(time.Now().UnixNano())

	if !block.Timestamp.IsZero() {
		s.metrics.blockLatency.Record(ctx, float64(time.Since(block.Timestamp).Milliseconds()))
	}

	select {
	case s.blocks <- block:
		s.metrics.blocksReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("source", block.Source)))
		s.logger.Debug(ctx, "block received", "number", block.Number, "source", block.Source)
		return true
	default:
		s.logger.Warn(ctx, "block dropped, buffer full", "number", block.Number)
		return false
	}
}

// LatestBlock retrieves the head block over HTTP.
func (s *Subscriber) LatestBlock(ctx context.Context) (*domain.Block, error) {
	ctx, span := s.tracer.Start(ctx, "eth.latest_block")
	defer span.End()

	header, err := s.httpCB.Execute(func() (*types.Header, error) {
		return s.headers.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.External(apperror.CodeEthereumRPCError, "latest block", err)
	}
	if header == nil || header.Number == nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError, apperror.WithContext("empty header"))
	}

	block := headerToBlock(header)
	block.Source = "http"
	return block, nil
}

// Status reports where blocks currently come from.
func (s *Subscriber) Status() domain.ConnectionStatus {
	status := domain.ConnectionStatus{
		LastBlock:  s.lastBlock.Load(),
		Reconnects: int(s.reconnects.Load()),
		UsingHTTP:  s.ws == nil || s.polling.Load(),
	}
	if ns := s.lastUpdate.Load(); ns > 0 {
		status.LastUpdate = time.Unix(0, ns)
	}

	switch {
	case s.isClosed():
		status.State = domain.StateDisconnected
	case !s.subscribed.Load():
		status.State = domain.StateConnecting
	case s.ws != nil && s.ws.IsConnected():
		status.State = domain.StateConnected
		status.UsingHTTP = false
	default:
		status.State = domain.StatePolling
	}
	return status
}

// Close stops the feed and closes the block channel.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.ws != nil {
			s.ws.Close()
		}

		s.emitMu.Lock()
		s.closed = true
		close(s.blocks)
		s.emitMu.Unlock()
	})
	return nil
}

func (s *Subscriber) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func headerToBlock(h *types.Header) *domain.Block {
	return &domain.Block{
		Number:     h.Number.Uint64(),
		Hash:       h.Hash(),
		ParentHash: h.ParentHash,
		Timestamp:  time.Unix(int64(h.Time), 0),
		BaseFee:    h.BaseFee,
	}
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type headJSON struct {
	Number     *hexutil.Big   `json:"number"`
	Hash       common.Hash    `json:"hash"`
	ParentHash common.Hash    `json:"parentHash"`
	Timestamp  hexutil.Uint64 `json:"timestamp"`
	BaseFee    *hexutil.Big   `json:"baseFeePerGas"`
}

type subscriptionMessage struct {
	ID     *int      `json:"id"`
	Method string    `json:"method"`
	Error  *rpcError `json:"error"`
	Params struct {
		Subscription string   `json:"subscription"`
		Result       headJSON `json:"result"`
	} `json:"params"`
}

// ParseNewHead decodes one message of an eth_subscribe newHeads stream. It
// returns nil, nil for messages that carry no head, such as the
// subscription acknowledgement.
func ParseNewHead(data []byte) (*domain.Block, error) {
	var msg subscriptionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode newHeads: %w", err)
	}
	if msg.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", msg.Error.Code, msg.Error.Message)
	}
	if msg.Method != "eth_subscription" || msg.Params.Result.Number == nil {
		return nil, nil
	}

	head := msg.Params.Result
	block := &domain.Block{
		Number:     head.Number.ToInt().Uint64(),
		Hash:       head.Hash,
		ParentHash: head.ParentHash,
		Source:     "ws",
	}
	if head.Timestamp > 0 {
		block.Timestamp = time.Unix(int64(head.Timestamp), 0)
	}
	if head.BaseFee != nil {
		block.BaseFee = head.BaseFee.ToInt()
	}
	return block, nil
}
