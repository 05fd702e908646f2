package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swapdesk/business/blockchain/app"
	"github.com/fd1az/swapdesk/business/blockchain/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/cache"
	"github.com/fd1az/swapdesk/internal/circuitbreaker"
	"github.com/fd1az/swapdesk/internal/logger"
)

var _ app.GasOracle = (*GasOracle)(nil)

// GasPricer suggests a legacy gas price; *ethclient.Client satisfies it.
type GasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	CacheTTL time.Duration
	// MaxGasGwei caps the reported price; zero disables the cap.
	MaxGasGwei decimal.Decimal
}

// DefaultGasOracleConfig returns sensible defaults.
func DefaultGasOracleConfig() GasOracleConfig {
	return GasOracleConfig{
		CacheTTL:   12 * time.Second,
		MaxGasGwei: decimal.NewFromInt(500),
	}
}

type gasOracleMetrics struct {
	gasPriceFetches metric.Int64Counter
	gasPriceGwei    metric.Float64Gauge
	cacheHits       metric.Int64Counter
}

// GasOracle caches the node's suggested gas price for about a block.
type GasOracle struct {
	config GasOracleConfig
	logger logger.LoggerInterface
	client GasPricer
	maxWei *big.Int

	priceCache *cache.Cache[string, *domain.GasPrice]
	cb         *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a gas oracle over client.
func NewGasOracle(cfg GasOracleConfig, client GasPricer, log logger.LoggerInterface) (*GasOracle, error) {
	g := &GasOracle{
		config:     cfg,
		logger:     log,
		client:     client,
		priceCache: cache.New[string, *domain.GasPrice](5 * time.Minute),
		cb:         circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		tracer:     otel.Tracer(tracerName),
	}
	if cfg.MaxGasGwei.IsPositive() {
		g.maxWei = domain.GweiToWei(cfg.MaxGasGwei)
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return g, nil
}

func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	g.metrics = &gasOracleMetrics{}

	g.metrics.gasPriceFetches, err = meter.Int64Counter("gas_price_fetches_total",
		metric.WithDescription("Total gas price fetch attempts"),
		metric.WithUnit("{fetch}"))
	if err != nil {
		return err
	}
	g.metrics.gasPriceGwei, err = meter.Float64Gauge("gas_price_gwei",
		metric.WithDescription("Current gas price in gwei"),
		metric.WithUnit("gwei"))
	if err != nil {
		return err
	}
	g.metrics.cacheHits, err = meter.Int64Counter("gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"))
	return err
}

// GasPrice returns the suggested gas price, capped at MaxGasGwei.
func (g *GasOracle) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	ctx, span := g.tracer.Start(ctx, "gas.get_price")
	defer span.End()

	if price, found := g.priceCache.Get(ctx, "current"); found {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return price, nil
	}

	g.metrics.gasPriceFetches.Add(ctx, 1)

	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.client.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.External(apperror.CodeEthereumRPCError, "suggest gas price", err)
	}

	if g.maxWei != nil && wei.Cmp(g.maxWei) > 0 {
		span.AddEvent("gas_price_exceeded_max", trace.WithAttributes(attribute.String("wei", wei.String())))
		g.logger.Warn(ctx, "gas price exceeds max", "wei", wei.String(), "max_gwei", g.config.MaxGasGwei.String())
		wei = g.maxWei
	}

	price := domain.NewGasPrice(wei)
	g.priceCache.Set(ctx, "current", price, g.config.CacheTTL)

	gwei, _ := price.Gwei().Float64()
	g.metrics.gasPriceGwei.Record(ctx, gwei)
	span.SetAttributes(attribute.String("gwei", price.Gwei().String()))
	span.SetStatus(codes.Ok, "fetched")

	return price, nil
}

// Forget drops the cached price so the next call hits the node.
func (g *GasOracle) Forget(ctx context.Context) {
	g.priceCache.Delete(ctx, "current")
}

// Close stops the cache janitor.
func (g *GasOracle) Close() error {
	g.priceCache.Close()
	return nil
}
