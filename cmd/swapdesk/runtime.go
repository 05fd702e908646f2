package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fd1az/swapdesk/business/account"
	accountDI "github.com/fd1az/swapdesk/business/account/di"
	accountDomain "github.com/fd1az/swapdesk/business/account/domain"
	"github.com/fd1az/swapdesk/business/blockchain"
	blockchainDI "github.com/fd1az/swapdesk/business/blockchain/di"
	"github.com/fd1az/swapdesk/business/pricing"
	"github.com/fd1az/swapdesk/business/swap"
	"github.com/fd1az/swapdesk/internal/apm"
	"github.com/fd1az/swapdesk/internal/config"
	"github.com/fd1az/swapdesk/internal/health"
	"github.com/fd1az/swapdesk/internal/logger"
	"github.com/fd1az/swapdesk/internal/metrics"
	"github.com/fd1az/swapdesk/internal/monolith"
)

// container is what monolith.New hands back.
type container interface {
	monolith.Monolith
	RegisterModules(modules ...monolith.Module) error
	StartModules(ctx context.Context, modules ...monolith.Module) error
	Close() error
}

// runtime is the process-wide wiring shared by every command.
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	mono    container
	modules []monolith.Module
	cleanup []func()
}

type runtimeOptions struct {
	tuiMode bool
	// hook receives log entries, used by the TUI to surface warnings.
	hook func(logger.Record)
	// quoteOnly skips the account and swap modules.
	quoteOnly bool
	// swap customizes the swap module, e.g. to inject a reporter.
	swap *swap.Module
}

func bootstrap(ctx context.Context, configPath string, opts runtimeOptions) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = opts.tuiMode

	var out io.Writer = os.Stderr
	logOpts := &logger.Options{Hook: opts.hook}
	if cfg.Log.File != "" {
		logOpts.File = &logger.FileConfig{
			Filename:   cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
	}
	if opts.tuiMode {
		// The terminal belongs to the TUI.
		out = nil
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, logOpts)

	rt := &runtime{cfg: cfg, log: log}
	rt.cleanup = append(rt.cleanup, func() { _ = log.Sync() })

	log.Info(ctx, "starting swapdesk",
		"version", version,
		"environment", cfg.App.Environment,
		"chain_id", cfg.Ethereum.ChainID,
	)

	if err := rt.startTelemetry(ctx); err != nil {
		rt.close()
		return nil, err
	}

	mono, err := monolith.New(cfg, log)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("failed to create monolith: %w", err)
	}
	rt.mono = mono
	rt.cleanup = append(rt.cleanup, func() {
		if err := mono.Close(); err != nil {
			log.Error(context.Background(), "error closing modules", "error", err)
		}
	})

	rt.modules = []monolith.Module{
		&blockchain.Module{},
		&pricing.Module{},
	}
	if !opts.quoteOnly {
		swapModule := opts.swap
		if swapModule == nil {
			swapModule = &swap.Module{}
		}
		rt.modules = append(rt.modules, &account.Module{}, swapModule)
	}

	if err := mono.RegisterModules(rt.modules...); err != nil {
		rt.close()
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}
	return rt, nil
}

func (rt *runtime) startTelemetry(ctx context.Context) error {
	tel := rt.cfg.Telemetry
	if !tel.Enabled {
		return nil
	}

	tp, err := apm.NewTraceProvider(ctx, apm.Config{
		Provider:    apm.Provider(tel.TraceProvider),
		ServiceName: tel.ServiceName,
		ZipkinURL:   tel.ZipkinURL,
		Endpoint:    tel.OTLPEndpoint,
		Headers:     tel.OTLPHeaders,
	}, rt.log)
	if err != nil {
		return fmt.Errorf("failed to start tracing: %w", err)
	}
	rt.cleanup = append(rt.cleanup, func() { _ = tp.Stop() })

	mcfg := metrics.Config{
		ServiceName: tel.ServiceName,
		Prometheus:  tel.PrometheusPort > 0,
	}
	if apm.Provider(tel.TraceProvider) == apm.OTLPGRPCProvider {
		mcfg.OTLPEndpoint = tel.OTLPEndpoint
		mcfg.OTLPHeaders = apm.ParseHeaders(tel.OTLPHeaders)
	}
	mp, err := metrics.NewMetricProvider(ctx, mcfg)
	if err != nil {
		return fmt.Errorf("failed to start metrics: %w", err)
	}
	rt.cleanup = append(rt.cleanup, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mp.Shutdown(ctx)
	})

	if tel.PrometheusPort > 0 {
		srv := metrics.Serve(tel.PrometheusPort, func(err error) {
			rt.log.Error(context.Background(), "metrics server failed", "error", err)
		})
		rt.cleanup = append(rt.cleanup, func() { _ = srv.Close() })
		rt.log.Info(ctx, "prometheus metrics server started", "port", tel.PrometheusPort)
	}
	return nil
}

// start runs module startup and brings up the health endpoint.
func (rt *runtime) start(ctx context.Context) error {
	if err := rt.mono.StartModules(ctx, rt.modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	rt.startHealth(ctx)
	return nil
}

func (rt *runtime) startHealth(ctx context.Context) {
	port := rt.cfg.Telemetry.HealthPort
	if port <= 0 {
		return
	}
	sr := rt.mono.Services()

	srv := health.NewServer(port, version)
	srv.RegisterCheck("block_feed", health.Freshness("block", 2*time.Minute, func() time.Time {
		return blockchainDI.GetBlockchainService(sr).Status().LastUpdate
	}))
	if sr.Has(accountDI.BalanceService.String()) {
		srv.RegisterCheck("balances", health.Freshness("balances", 2*accountDomain.RefreshPeriod, func() time.Time {
			t, err := accountDI.GetBalanceService(sr).LastFetch()
			if err != nil {
				return time.Time{}
			}
			return t
		}))
	}

	if err := srv.Start(); err != nil {
		rt.log.Warn(ctx, "failed to start health server", "error", err)
		return
	}
	rt.log.Info(ctx, "health server started", "port", port)

	go func() {
		select {
		case err := <-srv.Err():
			rt.log.Error(context.Background(), "health server failed", "error", err)
		case <-ctx.Done():
		}
	}()
	rt.cleanup = append(rt.cleanup, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
}

// close releases everything in reverse order of acquisition.
func (rt *runtime) close() {
	for i := len(rt.cleanup) - 1; i >= 0; i-- {
		rt.cleanup[i]()
	}
	rt.cleanup = nil
}
