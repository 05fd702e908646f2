// Package account implements wallet and exchange balance lookups.
package account

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/swapdesk/business/account/app"
	accountDI "github.com/fd1az/swapdesk/business/account/di"
	"github.com/fd1az/swapdesk/business/account/infra/ethereum"
	"github.com/fd1az/swapdesk/business/account/infra/graphcache"
	"github.com/fd1az/swapdesk/internal/asset"
	"github.com/fd1az/swapdesk/internal/config"
	"github.com/fd1az/swapdesk/internal/di"
	"github.com/fd1az/swapdesk/internal/logger"
	"github.com/fd1az/swapdesk/internal/monolith"
)

// Module implements the account bounded context.
type Module struct{}

// RegisterServices registers the balance service and its readers.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, accountDI.WalletReader, func(sr di.ServiceRegistry) app.WalletReader {
		reader, err := ethereum.NewWalletReader(sr.Get("ethClient").(*ethclient.Client))
		if err != nil {
			panic("failed to create wallet reader: " + err.Error())
		}
		return reader
	})

	di.RegisterToken(c, accountDI.ExchangeReader, func(sr di.ServiceRegistry) app.ExchangeReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := graphcache.NewClient(graphcache.Config{
			URL:               cfg.Graphcache.URL,
			RequestsPerMinute: cfg.Graphcache.RequestsPerMinute,
			Timeout:           cfg.Graphcache.Timeout,
		}, log)
		if err != nil {
			panic("failed to create graphcache client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, accountDI.BalanceService, func(sr di.ServiceRegistry) *app.BalanceService {
		cfg := sr.Get("config").(*config.Config)
		return app.NewBalanceService(
			di.GetToken(sr, accountDI.WalletReader),
			di.GetToken(sr, accountDI.ExchangeReader),
			sr.Get("assetRegistry").(*asset.Registry),
			cfg.Swap.BalanceRefresh,
			sr.Get("logger").(logger.LoggerInterface),
		)
	})

	return nil
}

// Startup resolves the balance service.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := accountDI.GetBalanceService(mono.Services())
	mono.OnClose(svc)
	mono.Logger().Info(ctx, "account module started")
	return nil
}
