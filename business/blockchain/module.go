// Package blockchain implements the block feed and gas price context.
package blockchain

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/fd1az/swapdesk/business/blockchain/app"
	blockchainDI "github.com/fd1az/swapdesk/business/blockchain/di"
	"github.com/fd1az/swapdesk/business/blockchain/infra/ethereum"
	"github.com/fd1az/swapdesk/internal/config"
	"github.com/fd1az/swapdesk/internal/di"
	"github.com/fd1az/swapdesk/internal/logger"
	"github.com/fd1az/swapdesk/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.BlockSubscriber, func(sr di.ServiceRegistry) app.BlockSubscriber {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		subCfg := ethereum.DefaultSubscriberConfig(cfg.Ethereum.WebSocketURL)
		if cfg.Ethereum.PollInterval > 0 {
			subCfg.PollInterval = cfg.Ethereum.PollInterval
		}
		subCfg.InitialBackoff = cfg.Ethereum.InitialBackoff
		subCfg.MaxBackoff = cfg.Ethereum.MaxBackoff
		subCfg.MaxReconnects = cfg.Ethereum.MaxReconnects

		sub, err := ethereum.NewSubscriber(subCfg, client, log)
		if err != nil {
			panic("failed to create subscriber: " + err.Error())
		}
		return sub
	})

	di.RegisterToken(c, blockchainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		oracleCfg := ethereum.DefaultGasOracleConfig()
		if cfg.Ethereum.MaxGasGwei > 0 {
			oracleCfg.MaxGasGwei = decimal.NewFromFloat(cfg.Ethereum.MaxGasGwei)
		}
		oracle, err := ethereum.NewGasOracle(oracleCfg, client, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		return app.NewBlockchainService(
			blockchainDI.GetBlockSubscriber(sr),
			blockchainDI.GetGasOracle(sr),
		)
	})

	return nil
}

// Startup resolves the services and registers them for shutdown. The feed
// itself starts when a consumer subscribes.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	sr := mono.Services()
	blockchainDI.GetBlockchainService(sr)

	for _, svc := range []any{blockchainDI.GetBlockSubscriber(sr), blockchainDI.GetGasOracle(sr)} {
		if c, ok := svc.(io.Closer); ok {
			mono.OnClose(c)
		}
	}

	mono.Logger().Info(ctx, "blockchain module started")
	return nil
}
