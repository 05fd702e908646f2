package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	accountDomain "github.com/fd1az/swapdesk/business/account/domain"
	pricingDomain "github.com/fd1az/swapdesk/business/pricing/domain"
	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/internal/apm"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/logger"
)

const (
	meterName = "github.com/fd1az/swapdesk/business/swap/app"

	DefaultReverseCooldown = 3 * time.Second
	DefaultQuoteTimeout    = 10 * time.Second

	persistQueue = 64
)

// Config tunes a Converter.
type Config struct {
	Account             common.Address
	Pair                domain.Pair
	RouteKind           domain.RouteKind
	ReverseCooldown     time.Duration
	QuoteTimeout        time.Duration
	StableSlippagePct   decimal.Decimal
	VolatileSlippagePct decimal.Decimal
	// SaveAsSurplus is used until a stored preference exists.
	SaveAsSurplus bool
}

// Deps are the converter's collaborators. Oracle and Pools are required.
type Deps struct {
	Oracle    ImpactOracle
	Pools     PoolChecker
	Balances  BalanceSource
	Navigator Navigator
	Store     Store
}

// Snapshot is an immutable view of a Converter. Seq increases with every
// change, so a consumer can drop snapshots that arrive out of order.
type Snapshot struct {
	Seq        uint64
	Session    string
	Account    common.Address
	State      domain.State
	Allocation domain.AllocationResult
	// Impact is the quote behind the counter field, nil when there is none.
	Impact *pricingDomain.Impact
	Block  uint64
}

// Converter owns the swap engine state and performs the commands the
// reducer emits. All methods are safe for concurrent use.
type Converter struct {
	cfg     Config
	deps    Deps
	log     logger.LoggerInterface
	tracer  apm.Tracer
	session string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       domain.State
	account     common.Address
	impact      *pricingDomain.Impact
	block       uint64
	seq         uint64
	closed      bool
	quoteCancel context.CancelFunc
	cooldown    *time.Timer
	subs        map[int]func(Snapshot)
	nextSub     int

	persist chan func(context.Context) error

	metrics struct {
		quotes  metric.Int64Counter
		stale   metric.Int64Counter
		latency metric.Float64Histogram
	}
}

// NewConverter restores persisted state and builds a converter. Nothing is
// fetched until Start.
func NewConverter(ctx context.Context, cfg Config, deps Deps, log logger.LoggerInterface) (*Converter, error) {
	if deps.Oracle == nil || deps.Pools == nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "converter needs an oracle and a pool checker")
	}
	if cfg.Pair.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "converter needs a pair")
	}
	if cfg.ReverseCooldown <= 0 {
		cfg.ReverseCooldown = DefaultReverseCooldown
	}
	if cfg.QuoteTimeout <= 0 {
		cfg.QuoteTimeout = DefaultQuoteTimeout
	}
	if cfg.StableSlippagePct.IsZero() {
		cfg.StableSlippagePct = domain.StableSlippagePct
	}
	if cfg.VolatileSlippagePct.IsZero() {
		cfg.VolatileSlippagePct = domain.VolatileSlippagePct
	}

	c := &Converter{
		cfg:     cfg,
		deps:    deps,
		log:     log,
		tracer:  apm.NewTracer("swap"),
		session: uuid.NewString(),
		account: cfg.Account,
		subs:    make(map[int]func(Snapshot)),
		persist: make(chan func(context.Context) error, persistQueue),
	}
	if err := c.initMetrics(); err != nil {
		return nil, apperror.Internal(apperror.CodeInternalError, "swap metrics", err)
	}

	c.state = domain.NewState(c.restore(ctx))
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.wg.Add(1)
	go c.persistLoop()

	return c, nil
}

func (c *Converter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	c.metrics.quotes, err = meter.Int64Counter("swap_quotes_requested_total",
		metric.WithDescription("Quotes sent to the oracle"))
	if err != nil {
		return err
	}
	c.metrics.stale, err = meter.Int64Counter("swap_quotes_stale_total",
		metric.WithDescription("Quotes dropped because a newer one superseded them"))
	if err != nil {
		return err
	}
	c.metrics.latency, err = meter.Float64Histogram("swap_quote_latency_seconds",
		metric.WithDescription("Oracle round trip"),
		metric.WithUnit("s"))
	return err
}

func (c *Converter) restore(ctx context.Context) domain.InitialState {
	in := domain.InitialState{
		Pair:        c.cfg.Pair,
		RouteKind:   c.cfg.RouteKind,
		PrimarySide: domain.SideA,
		Preference:  domain.Preference{SaveAsExchangeSurplus: c.cfg.SaveAsSurplus},
		SlippagePct: domain.DefaultSlippagePct(c.cfg.Pair, c.cfg.StableSlippagePct, c.cfg.VolatileSlippagePct),
	}
	store := c.deps.Store
	if store == nil {
		return in
	}

	if rec, ok, err := store.Primary(ctx); err != nil {
		c.log.Warn(ctx, "restore primary field", "error", err)
	} else if ok {
		in.PrimarySide = rec.Side
		in.PrimaryQty = rec.Quantity
	}

	// Withdraw always starts off; only the surplus toggle carries over.
	if pref, ok, err := store.Preference(ctx); err != nil {
		c.log.Warn(ctx, "restore preference", "error", err)
	} else if ok {
		in.Preference.SaveAsExchangeSurplus = pref.SaveAsExchangeSurplus
	}

	if pct, ok, err := store.Slippage(ctx, c.cfg.Pair); err != nil {
		c.log.Warn(ctx, "restore slippage", "error", err)
	} else if ok {
		in.SlippagePct = pct
	}
	return in
}

// Session identifies this converter instance in logs and snapshots.
func (c *Converter) Session() string { return c.session }

// Start checks the pool, loads balances and quotes the restored quantity.
func (c *Converter) Start(ctx context.Context) {
	c.log.Info(ctx, "converter starting",
		"session", c.session, "pair", c.cfg.Pair.String(), "account", c.cfg.Account.Hex())

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.execLocked([]domain.Command{
		domain.CheckPool{Pair: c.state.Pair},
		domain.RefreshBalances{},
	})
	c.mu.Unlock()

	c.dispatch(domain.RefreshTick{Reason: "startup"})
}

// EditField is a keystroke in one of the quantity fields.
func (c *Converter) EditField(side domain.Side, raw string) {
	c.dispatch(domain.FieldEdited{Side: side, Raw: raw})
}

// ClickMax fills the sell field with the spendable balance.
func (c *Converter) ClickMax() {
	c.dispatch(domain.MaxClicked{})
}

// Refresh re-quotes from the primary field.
func (c *Converter) Refresh(reason string) {
	c.dispatch(domain.RefreshTick{Reason: reason})
}

// Reverse swaps the pair. It is ignored during the cooldown.
func (c *Converter) Reverse() {
	c.dispatch(domain.ReverseRequested{})
}

// SetWithdraw sets the withdraw-from-exchange toggle.
func (c *Converter) SetWithdraw(on bool) {
	c.dispatch(domain.WithdrawToggled{On: on})
}

// ToggleWithdraw flips the withdraw-from-exchange toggle.
func (c *Converter) ToggleWithdraw() {
	c.apply(func(s domain.State) domain.Event {
		return domain.WithdrawToggled{On: !s.Preference.WithdrawFromExchange}
	})
}

// ToggleSurplus flips save-as-exchange-surplus.
func (c *Converter) ToggleSurplus() {
	c.apply(func(s domain.State) domain.Event {
		return domain.SurplusToggled{On: !s.Preference.SaveAsExchangeSurplus}
	})
}

// SetSlippage changes the tolerance, in percent, and stores it for the pair.
func (c *Converter) SetSlippage(pct decimal.Decimal) {
	c.apply(func(s domain.State) domain.Event {
		if pct.IsNegative() {
			return nil
		}
		pair := s.Pair
		c.enqueueLocked("save slippage", func(ctx context.Context) error {
			return c.deps.Store.SaveSlippage(ctx, pair, pct)
		})
		return domain.SlippageChanged{Pct: pct}
	})
}

// SelectPair switches to another pair.
func (c *Converter) SelectPair(pair domain.Pair) {
	c.dispatch(domain.PairSelected{Pair: pair})
}

// SetAccount switches the connected wallet and reloads balances.
func (c *Converter) SetAccount(account common.Address) {
	c.apply(func(domain.State) domain.Event {
		if account == c.account {
			return nil
		}
		c.account = account
		return domain.AccountChanged{Account: account}
	})
}

// UpdateBalances feeds fresh balances keyed by token address.
func (c *Converter) UpdateBalances(balances map[common.Address]domain.BalancePair) {
	c.dispatch(domain.BalancesUpdated{Balances: balances})
}

// RefreshBalances reloads balances, bypassing the refresh bucket.
func (c *Converter) RefreshBalances() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.goDo("refresh balances", func(ctx context.Context) error {
		return c.loadBalances(ctx, true)
	})
}

// OnBlock records a new chain head and re-quotes unless the cooldown is on.
func (c *Converter) OnBlock(number uint64) {
	c.apply(func(domain.State) domain.Event {
		if number <= c.block {
			return nil
		}
		c.block = number
		return domain.BlockTick{Number: number}
	})
}

// Snapshot returns the current view.
func (c *Converter) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for every change. fn runs on the goroutine that
// made the change and must not call back into the converter synchronously.
// The returned func unsubscribes.
func (c *Converter) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Close stops the cooldown timer, abandons in-flight work and flushes
// pending writes. It is idempotent.
func (c *Converter) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.cooldown != nil {
		c.cooldown.Stop()
	}
	c.cancelQuoteLocked()
	close(c.persist)
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

func (c *Converter) dispatch(ev domain.Event) {
	c.apply(func(domain.State) domain.Event { return ev })
}

// apply builds an event from the current state under the lock, reduces it,
// performs the commands and notifies subscribers. A nil event is a no-op.
func (c *Converter) apply(build func(domain.State) domain.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ev := build(c.state)
	if ev == nil {
		c.mu.Unlock()
		return
	}

	next, cmds := domain.Reduce(c.state, ev)
	c.state = next
	c.execLocked(cmds)

	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (c *Converter) snapshotLocked() Snapshot {
	c.seq++
	return Snapshot{
		Seq:        c.seq,
		Session:    c.session,
		Account:    c.account,
		State:      c.state,
		Allocation: c.state.Allocation(),
		Impact:     c.impact,
		Block:      c.block,
	}
}

func (c *Converter) execLocked(cmds []domain.Command) {
	for _, cmd := range cmds {
		switch cmd := cmd.(type) {
		case domain.RequestQuote:
			c.impact = nil
			c.startQuoteLocked(cmd)

		case domain.CancelQuote:
			c.impact = nil
			c.cancelQuoteLocked()

		case domain.StartCooldown:
			if c.cooldown != nil {
				c.cooldown.Stop()
			}
			c.cooldown = time.AfterFunc(c.cfg.ReverseCooldown, func() {
				c.dispatch(domain.CooldownElapsed{})
			})

		case domain.Navigate:
			if c.deps.Navigator == nil {
				continue
			}
			c.goDo("navigate", func(ctx context.Context) error {
				if err := c.deps.Navigator.Navigate(ctx, cmd.Route); err != nil {
					return apperror.Wrap(err, apperror.CodeNavigationFailed, cmd.Route.Slug())
				}
				return nil
			})

		case domain.PersistPrimary:
			c.enqueueLocked("save primary field", func(ctx context.Context) error {
				return c.deps.Store.SavePrimary(ctx, PrimaryRecord{Side: cmd.Side, Quantity: cmd.Quantity})
			})

		case domain.PersistPreference:
			c.enqueueLocked("save preference", func(ctx context.Context) error {
				return c.deps.Store.SavePreference(ctx, cmd.Preference)
			})

		case domain.CheckPool:
			c.goDo("check pool", func(ctx context.Context) error {
				return c.checkPool(ctx, cmd.Pair)
			})

		case domain.RefreshBalances:
			c.goDo("load balances", func(ctx context.Context) error {
				return c.loadBalances(ctx, false)
			})
		}
	}
}

func (c *Converter) startQuoteLocked(cmd domain.RequestQuote) {
	c.cancelQuoteLocked()

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.QuoteTimeout)
	c.quoteCancel = cancel
	c.metrics.quotes.Add(ctx, 1)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		impact := c.quote(ctx, cmd)
		if errors.Is(ctx.Err(), context.Canceled) {
			c.metrics.stale.Add(context.Background(), 1)
			return
		}
		c.resolve(cmd.Generation, impact)
	}()
}

func (c *Converter) cancelQuoteLocked() {
	if c.quoteCancel != nil {
		c.quoteCancel()
		c.quoteCancel = nil
	}
}

// quote asks the oracle. Any failure is reported as no quote.
func (c *Converter) quote(ctx context.Context, cmd domain.RequestQuote) *pricingDomain.Impact {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "swap.quote",
		attribute.String("session", c.session),
		attribute.String("request_id", requestID),
		attribute.String("pair", cmd.Pair.String()),
		attribute.Int64("generation", int64(cmd.Generation)),
		attribute.Bool("is_sell_amount", cmd.IsSellAmount),
	)
	defer span.End()

	start := time.Now()
	impact, err := c.deps.Oracle.CalcImpact(ctx, pricingDomain.ImpactRequest{
		SellToken:        cmd.Pair.TokenA,
		BuyToken:         cmd.Pair.TokenB,
		Amount:           cmd.Amount,
		IsSellAmount:     cmd.IsSellAmount,
		SlippageFraction: cmd.SlippageFraction,
	})
	c.metrics.latency.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.Bool("ok", err == nil && impact != nil)))

	if err != nil {
		span.NoticeError(err)
		if !errors.Is(ctx.Err(), context.Canceled) {
			c.log.Warn(ctx, "quote failed", "request_id", requestID, "trace_id", apm.TraceID(ctx), "pair", cmd.Pair.String(), "amount", cmd.Amount.String(), "error", err)
		}
		return nil
	}
	return impact
}

func (c *Converter) resolve(generation uint64, impact *pricingDomain.Impact) {
	c.apply(func(s domain.State) domain.Event {
		if generation != s.Generation {
			c.metrics.stale.Add(context.Background(), 1)
			return nil
		}
		c.impact = impact
		c.quoteCancel = nil
		return domain.QuoteResolved{Generation: generation, Quote: toQuote(impact)}
	})
}

func toQuote(impact *pricingDomain.Impact) *domain.Quote {
	if impact == nil {
		return nil
	}
	return &domain.Quote{
		SellQty:       impact.SellQty,
		BuyQty:        impact.BuyQty,
		PercentChange: impact.PercentChange,
	}
}

func (c *Converter) checkPool(ctx context.Context, pair domain.Pair) error {
	exists, err := c.deps.Pools.PoolExists(ctx, pair.TokenA, pair.TokenB)
	if err != nil {
		return err
	}
	c.apply(func(s domain.State) domain.Event {
		// A reversed pair shares the pool.
		if !s.Pair.Equals(pair) && !s.Pair.Equals(pair.Reverse()) {
			return nil
		}
		return domain.PoolStatusChanged{Exists: exists}
	})
	return nil
}

func (c *Converter) loadBalances(ctx context.Context, force bool) error {
	if c.deps.Balances == nil {
		return nil
	}

	c.mu.Lock()
	account := c.account
	chainID := c.state.Pair.ChainID()
	c.mu.Unlock()
	if account == (common.Address{}) {
		return nil
	}

	fetch := c.deps.Balances.Balances
	if force {
		fetch = c.deps.Balances.Refresh
	}
	holdings, err := fetch(ctx, account, chainID)
	if err != nil {
		return err
	}

	c.apply(func(domain.State) domain.Event {
		if c.account != account {
			return nil
		}
		return domain.BalancesUpdated{Balances: toBalancePairs(holdings)}
	})
	return nil
}

func toBalancePairs(holdings map[common.Address]accountDomain.Holding) map[common.Address]domain.BalancePair {
	out := make(map[common.Address]domain.BalancePair, len(holdings))
	for addr, h := range holdings {
		out[addr] = domain.BalancePair{Wallet: h.Wallet, Exchange: h.Exchange}
	}
	return out
}

// goDo runs fn in the background, bound to the converter's lifetime.
func (c *Converter) goDo(what string, fn func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fn(c.ctx); err != nil && c.ctx.Err() == nil {
			c.log.Warn(c.ctx, what+" failed", "session", c.session, "error", err)
		}
	}()
}

// enqueueLocked hands a write to the persist loop, keeping emit order. The
// write is dropped when the queue is full.
func (c *Converter) enqueueLocked(what string, fn func(context.Context) error) {
	if c.deps.Store == nil {
		return
	}
	wrapped := func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return apperror.Wrap(err, apperror.CodePreferenceStoreError, what)
		}
		return nil
	}
	select {
	case c.persist <- wrapped:
	default:
		c.log.Warn(c.ctx, "persist queue full, dropping write", "what", what)
	}
}

// persistLoop drains writes until Close, including those queued before it.
func (c *Converter) persistLoop() {
	defer c.wg.Done()
	for fn := range c.persist {
		if err := fn(context.Background()); err != nil {
			c.log.Warn(context.Background(), "persist failed", "session", c.session, "error", err)
		}
	}
}
