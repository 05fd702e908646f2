// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/swapdesk/internal/asset"
	"github.com/fd1az/swapdesk/internal/config"
	"github.com/fd1az/swapdesk/internal/di"
	"github.com/fd1az/swapdesk/internal/logger"
)

// Monolith is the shared infrastructure handed to every module.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
	// OnClose registers a resource released by Close, in reverse order.
	OnClose(io.Closer)
}

// Module is a bounded context that registers services and starts up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container

	closeMu sync.Mutex
	closers []io.Closer
}

// New dials the node and builds the container.
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	ethClient, err := ethclient.Dial(cfg.Ethereum.HTTPURL)
	if err != nil {
		return nil, fmt.Errorf("dial ethereum node: %w", err)
	}

	registry, err := BuildRegistry(cfg)
	if err != nil {
		ethClient.Close()
		return nil, err
	}

	container := di.NewContainer()
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("ethClient", ethClient)
	container.Register("assetRegistry", registry)

	return &app{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: registry,
		container:     container,
	}, nil
}

// BuildRegistry starts from the well-known tokens and adds configured ones.
func BuildRegistry(cfg *config.Config) (*asset.Registry, error) {
	registry := asset.DefaultRegistry()
	for _, t := range cfg.Swap.Tokens {
		id := asset.NewAssetID(cfg.Ethereum.ChainID, common.HexToAddress(t.Address))
		a := asset.NewAsset(id, t.Symbol, t.Decimals)
		if t.Stable {
			a.AsStable()
		}
		if err := registry.Register(a); err != nil && !errors.Is(err, asset.ErrAlreadyRegistered) {
			return nil, fmt.Errorf("register token %s: %w", t.Symbol, err)
		}
	}
	return registry, nil
}

func (a *app) Config() *config.Config { return a.config }

func (a *app) Logger() logger.LoggerInterface { return a.logger }

func (a *app) EthClient() *ethclient.Client { return a.ethClient }

func (a *app) AssetRegistry() *asset.Registry { return a.assetRegistry }

func (a *app) Services() di.ServiceRegistry { return a.container }

// Container returns the DI container for module registration.
func (a *app) Container() di.Container { return a.container }

func (a *app) OnClose(c io.Closer) {
	a.closeMu.Lock()
	a.closers = append(a.closers, c)
	a.closeMu.Unlock()
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases registered resources, newest first, then the node client.
func (a *app) Close() error {
	a.closeMu.Lock()
	closers := a.closers
	a.closers = nil
	a.closeMu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return errors.Join(errs...)
}
