// Package pricing implements the price impact oracle and the ETH/USD feed.
package pricing

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/swapdesk/business/pricing/app"
	pricingDI "github.com/fd1az/swapdesk/business/pricing/di"
	"github.com/fd1az/swapdesk/business/pricing/infra/binance"
	"github.com/fd1az/swapdesk/business/pricing/infra/uniswap"
	"github.com/fd1az/swapdesk/internal/asset"
	"github.com/fd1az/swapdesk/internal/config"
	"github.com/fd1az/swapdesk/internal/di"
	"github.com/fd1az/swapdesk/internal/logger"
	"github.com/fd1az/swapdesk/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.PriceFeed, func(sr di.ServiceRegistry) app.PriceFeed {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		ticker, err := binance.NewTicker(binance.TickerConfig{
			BaseURL:           cfg.Binance.RESTURL,
			Symbol:            cfg.Binance.TickerSymbol,
			RequestsPerMinute: cfg.Binance.RequestsPerMinute,
			CacheTTL:          cfg.Binance.CacheTTL,
		}, log)
		if err != nil {
			panic("failed to create binance ticker: " + err.Error())
		}
		return ticker
	})

	di.RegisterToken(c, pricingDI.DEXProvider, func(sr di.ServiceRegistry) app.DEXProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		provider, err := uniswap.NewProvider(ethClient, cfg.Uniswap, log)
		if err != nil {
			panic("failed to create uniswap provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, pricingDI.PricingService, func(sr di.ServiceRegistry) *app.PricingService {
		return app.NewPricingService(
			pricingDI.GetDEXProvider(sr),
			pricingDI.GetPriceFeed(sr),
			sr.Get("assetRegistry").(*asset.Registry),
			sr.Get("logger").(logger.LoggerInterface),
		)
	})

	return nil
}

// Startup resolves the pricing services and registers them for shutdown.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	sr := mono.Services()
	pricingDI.GetPricingService(sr)

	for _, svc := range []any{pricingDI.GetPriceFeed(sr), pricingDI.GetDEXProvider(sr)} {
		if c, ok := svc.(io.Closer); ok {
			mono.OnClose(c)
		}
	}

	mono.Logger().Info(ctx, "pricing module started")
	return nil
}
