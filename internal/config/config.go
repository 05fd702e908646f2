// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Log        LogConfig        `mapstructure:"log"`
	Ethereum   EthereumConfig   `mapstructure:"ethereum"`
	Uniswap    UniswapConfig    `mapstructure:"uniswap"`
	Binance    BinanceConfig    `mapstructure:"binance"`
	Graphcache GraphcacheConfig `mapstructure:"graphcache"`
	Swap       SwapConfig       `mapstructure:"swap"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"`
}

// LogConfig controls rotated file logging. TUI mode always logs to file.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// EthereumConfig holds node endpoints.
type EthereumConfig struct {
	WebSocketURL   string        `mapstructure:"websocket_url"`
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	MaxGasGwei     float64       `mapstructure:"max_gas_gwei"`
}

// UniswapConfig holds Uniswap V3 contract addresses.
type UniswapConfig struct {
	QuoterAddress  string `mapstructure:"quoter_address"`
	FactoryAddress string `mapstructure:"factory_address"`
	DefaultFeeTier int    `mapstructure:"default_fee_tier"`
	FeeTiers       []int  `mapstructure:"fee_tiers"`
}

func (c *UniswapConfig) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

func (c *UniswapConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// BinanceConfig holds the REST ticker used for the ETH/USD fee conversion.
type BinanceConfig struct {
	RESTURL           string        `mapstructure:"rest_url"`
	TickerSymbol      string        `mapstructure:"ticker_symbol"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// GraphcacheConfig points at the indexer that serves exchange balances.
type GraphcacheConfig struct {
	URL               string        `mapstructure:"url"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// TokenConfig registers an extra token on the configured chain.
type TokenConfig struct {
	Address  string `mapstructure:"address"`
	Symbol   string `mapstructure:"symbol"`
	Decimals uint8  `mapstructure:"decimals"`
	Stable   bool   `mapstructure:"stable"`
}

// SwapConfig holds the swap desk settings.
type SwapConfig struct {
	Account              string        `mapstructure:"account"`
	TokenA               string        `mapstructure:"token_a"`
	TokenB               string        `mapstructure:"token_b"`
	RouteKind            string        `mapstructure:"route_kind"`
	StorePath            string        `mapstructure:"store_path"`
	ReverseCooldown      time.Duration `mapstructure:"reverse_cooldown"`
	BalanceRefresh       time.Duration `mapstructure:"balance_refresh"`
	QuoteTimeout         time.Duration `mapstructure:"quote_timeout"`
	StableSlippagePct    float64       `mapstructure:"stable_slippage_pct"`
	VolatileSlippagePct  float64       `mapstructure:"volatile_slippage_pct"`
	SaveAsSurplusDefault bool          `mapstructure:"save_as_surplus_default"`
	Tokens               []TokenConfig `mapstructure:"tokens"`
}

// AccountAddress returns the account as common.Address.
func (c *SwapConfig) AccountAddress() common.Address {
	return common.HexToAddress(c.Account)
}

func (c *SwapConfig) StableSlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.StableSlippagePct)
}

func (c *SwapConfig) VolatileSlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.VolatileSlippagePct)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	ZipkinURL      string `mapstructure:"zipkin_url"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SWAPDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("app.name", "SWAPDESK_APP_NAME", "SERVICE_NAME")
	_ = v.BindEnv("app.environment", "SWAPDESK_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("app.log_level", "SWAPDESK_LOG_LEVEL", "LOG_LEVEL")

	_ = v.BindEnv("ethereum.websocket_url", "SWAPDESK_ETH_WS_URL", "ETH_WS_URL")
	_ = v.BindEnv("ethereum.http_url", "SWAPDESK_ETH_HTTP_URL", "ETH_HTTP_URL")
	_ = v.BindEnv("ethereum.chain_id", "SWAPDESK_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	_ = v.BindEnv("uniswap.quoter_address", "SWAPDESK_UNISWAP_QUOTER", "UNISWAP_QUOTER")
	_ = v.BindEnv("uniswap.factory_address", "SWAPDESK_UNISWAP_FACTORY", "UNISWAP_FACTORY")

	_ = v.BindEnv("graphcache.url", "SWAPDESK_GRAPHCACHE_URL", "GRAPHCACHE_URL")

	_ = v.BindEnv("swap.account", "SWAPDESK_ACCOUNT", "ACCOUNT")
	_ = v.BindEnv("swap.token_a", "SWAPDESK_TOKEN_A")
	_ = v.BindEnv("swap.token_b", "SWAPDESK_TOKEN_B")
	_ = v.BindEnv("swap.store_path", "SWAPDESK_STORE_PATH")

	_ = v.BindEnv("telemetry.enabled", "SWAPDESK_OTEL_ENABLED", "OTEL_ENABLED")
	_ = v.BindEnv("telemetry.service_name", "SWAPDESK_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	_ = v.BindEnv("telemetry.otlp_endpoint", "SWAPDESK_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "swapdesk")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("log.file", "swapdesk.log")
	v.SetDefault("log.max_size_mb", 20)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.poll_interval", "2s")
	v.SetDefault("ethereum.max_reconnects", 0)
	v.SetDefault("ethereum.initial_backoff", "1s")
	v.SetDefault("ethereum.max_backoff", "30s")
	v.SetDefault("ethereum.max_gas_gwei", 500)

	// Uniswap V3 mainnet
	v.SetDefault("uniswap.quoter_address", "0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	v.SetDefault("uniswap.factory_address", "0x1F98431c8aD98523631AE4a59f267346ea31F984")
	v.SetDefault("uniswap.default_fee_tier", 3000)
	v.SetDefault("uniswap.fee_tiers", []int{100, 500, 3000, 10000})

	v.SetDefault("binance.rest_url", "https://api.binance.com")
	v.SetDefault("binance.ticker_symbol", "ETHUSDC")
	v.SetDefault("binance.requests_per_minute", 60)
	v.SetDefault("binance.cache_ttl", "30s")

	v.SetDefault("graphcache.requests_per_minute", 120)
	v.SetDefault("graphcache.timeout", "10s")

	v.SetDefault("swap.store_path", "./data/swapdesk")
	v.SetDefault("swap.reverse_cooldown", "3s")
	v.SetDefault("swap.balance_refresh", "5m")
	v.SetDefault("swap.quote_timeout", "10s")
	v.SetDefault("swap.stable_slippage_pct", 0.1)
	v.SetDefault("swap.volatile_slippage_pct", 0.3)
	v.SetDefault("swap.save_as_surplus_default", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "swapdesk")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.zipkin_url", "http://localhost:9411/api/v2/spans")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return errors.New("ethereum.http_url is required")
	}
	if c.Ethereum.ChainID == 0 {
		return errors.New("ethereum.chain_id is required")
	}
	if !common.IsHexAddress(c.Uniswap.QuoterAddress) {
		return fmt.Errorf("invalid uniswap.quoter_address: %s", c.Uniswap.QuoterAddress)
	}
	if !common.IsHexAddress(c.Uniswap.FactoryAddress) {
		return fmt.Errorf("invalid uniswap.factory_address: %s", c.Uniswap.FactoryAddress)
	}
	if c.Swap.Account != "" && !common.IsHexAddress(c.Swap.Account) {
		return fmt.Errorf("invalid swap.account: %s", c.Swap.Account)
	}
	// Both empty means the last visited pair, or ETH/USDC.
	if (c.Swap.TokenA == "") != (c.Swap.TokenB == "") {
		return errors.New("swap.token_a and swap.token_b must be set together")
	}
	if c.Swap.TokenA != "" && strings.EqualFold(c.Swap.TokenA, c.Swap.TokenB) {
		return errors.New("swap.token_a and swap.token_b must differ")
	}
	switch c.Swap.RouteKind {
	case "", "swap", "market", "limit", "range":
	default:
		return fmt.Errorf("invalid swap.route_kind: %s", c.Swap.RouteKind)
	}
	if c.Swap.StableSlippagePct < 0 || c.Swap.VolatileSlippagePct < 0 {
		return errors.New("slippage cannot be negative")
	}
	for i, t := range c.Swap.Tokens {
		if !common.IsHexAddress(t.Address) {
			return fmt.Errorf("invalid swap.tokens[%d].address: %s", i, t.Address)
		}
		if t.Symbol == "" {
			return fmt.Errorf("swap.tokens[%d].symbol is required", i)
		}
	}
	return nil
}
