// Package swap implements the swap form: quoting, gating and the balance
// split between wallet and exchange.
package swap

import (
	"context"

	accountDI "github.com/fd1az/swapdesk/business/account/di"
	blockchainDI "github.com/fd1az/swapdesk/business/blockchain/di"
	pricingDI "github.com/fd1az/swapdesk/business/pricing/di"
	"github.com/fd1az/swapdesk/business/swap/app"
	swapDI "github.com/fd1az/swapdesk/business/swap/di"
	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/business/swap/infra/kvstore"
	"github.com/fd1az/swapdesk/business/swap/infra/reporter"
	"github.com/fd1az/swapdesk/business/swap/infra/route"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/config"
	"github.com/fd1az/swapdesk/internal/di"
	"github.com/fd1az/swapdesk/internal/logger"
	"github.com/fd1az/swapdesk/internal/monolith"
)

// Module implements the swap bounded context.
type Module struct {
	// Reporter replaces the console/TUI reporter picked from config.
	Reporter app.Reporter

	pair domain.Pair
	kind domain.RouteKind
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// RegisterServices registers the store, navigator, converter and refresher.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, swapDI.Store, func(sr di.ServiceRegistry) *kvstore.Store {
		cfg := sr.Get("config").(*config.Config)
		store, err := kvstore.Open(cfg.Swap.StorePath)
		if err != nil {
			panic("failed to open swap store: " + err.Error())
		}
		return store
	})

	di.RegisterToken(c, swapDI.Navigator, func(sr di.ServiceRegistry) *route.Navigator {
		return route.NewNavigator(swapDI.GetStore(sr), sr.Get("logger").(logger.LoggerInterface))
	})

	di.RegisterToken(c, swapDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		if m.Reporter != nil {
			return m.Reporter
		}
		if sr.Get("config").(*config.Config).App.TUIMode {
			return reporter.NewTUI(nil)
		}
		return reporter.NewConsole(nil)
	})

	di.RegisterToken(c, swapDI.Converter, func(sr di.ServiceRegistry) *app.Converter {
		cfg := sr.Get("config").(*config.Config)
		pricing := pricingDI.GetPricingService(sr)

		conv, err := app.NewConverter(context.Background(), app.Config{
			Account:             cfg.Swap.AccountAddress(),
			Pair:                m.pair,
			RouteKind:           m.kind,
			ReverseCooldown:     cfg.Swap.ReverseCooldown,
			QuoteTimeout:        cfg.Swap.QuoteTimeout,
			StableSlippagePct:   cfg.Swap.StableSlippageDecimal(),
			VolatileSlippagePct: cfg.Swap.VolatileSlippageDecimal(),
			SaveAsSurplus:       cfg.Swap.SaveAsSurplusDefault,
		}, app.Deps{
			Oracle:    pricing,
			Pools:     pricing,
			Balances:  accountDI.GetBalanceService(sr),
			Navigator: swapDI.GetNavigator(sr),
			Store:     swapDI.GetStore(sr),
		}, sr.Get("logger").(logger.LoggerInterface))
		if err != nil {
			panic("failed to create converter: " + err.Error())
		}
		return conv
	})

	di.RegisterToken(c, swapDI.Refresher, func(sr di.ServiceRegistry) *app.Refresher {
		cfg := sr.Get("config").(*config.Config)
		return app.NewRefresher(
			blockchainDI.GetBlockchainService(sr),
			pricingDI.GetPricingService(sr),
			swapDI.GetConverter(sr),
			di.GetToken(sr, swapDI.Reporter),
			app.RefresherConfig{BalanceInterval: cfg.Swap.BalanceRefresh},
			sr.Get("logger").(logger.LoggerInterface),
		)
	})

	return nil
}

// Startup picks the starting pair, builds the converter and starts the
// refresher. Resources close newest first: refresher, converter, store.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	sr := mono.Services()
	cfg := mono.Config()

	store := swapDI.GetStore(sr)
	mono.OnClose(store)

	pair, kind, err := app.ResolvePair(ctx, mono.AssetRegistry(), app.PairRequest{
		ChainID: cfg.Ethereum.ChainID,
		TokenA:  cfg.Swap.TokenA,
		TokenB:  cfg.Swap.TokenB,
	}, store)
	if err != nil {
		return err
	}
	if k := domain.RouteKind(cfg.Swap.RouteKind); k.Valid() {
		kind = k
	}
	m.pair, m.kind = pair, kind

	conv := swapDI.GetConverter(sr)
	mono.OnClose(conv)

	refresher := swapDI.GetRefresher(sr)
	if err := refresher.Start(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeBlockFeedUnavailable, "start refresher")
	}
	mono.OnClose(closerFunc(refresher.Stop))

	mono.Logger().Info(ctx, "swap module started",
		"pair", pair.String(),
		"route", kind,
		"session", conv.Session(),
	)
	return nil
}
