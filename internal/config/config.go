// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	API       APIConfig       `mapstructure:"api"`
	Health    HealthConfig    `mapstructure:"health"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// VenuesConfig holds the per-venue fee, latency and request budget tables.
type VenuesConfig struct {
	Enabled          []string           `mapstructure:"enabled"`
	Fees             map[string]float64 `mapstructure:"fees"`
	LatencyMs        map[string]int     `mapstructure:"latency_ms"`
	RateLimits       map[string]int     `mapstructure:"rate_limits"` // requests per minute
	DefaultFee       float64            `mapstructure:"default_fee"`
	DefaultLatencyMs int                `mapstructure:"default_latency_ms"`
	QuoteTimeout     time.Duration      `mapstructure:"quote_timeout"`
	Endpoints        map[string]string  `mapstructure:"endpoints"` // REST base URL overrides
	Binance          BinanceConfig      `mapstructure:"binance"`
}

// BinanceConfig holds the Binance ticker stream settings.
type BinanceConfig struct {
	WebSocketURL    string        `mapstructure:"websocket_url"`
	StaleTimeout    time.Duration `mapstructure:"stale_timeout"`
	EnableStreaming bool          `mapstructure:"enable_streaming"`
}

// AssetsConfig holds per-asset network (withdrawal) fees.
type AssetsConfig struct {
	NetworkFees       map[string]float64 `mapstructure:"network_fees"`
	DefaultNetworkFee float64            `mapstructure:"default_network_fee"`
	Aliases           map[string]string  `mapstructure:"aliases"` // alias -> symbol
}

// ArbitrageConfig holds scanning and break-even search settings.
type ArbitrageConfig struct {
	Asset        string          `mapstructure:"asset"`
	ProbeAmount  float64         `mapstructure:"probe_amount"`
	ScanInterval time.Duration   `mapstructure:"scan_interval"`
	BreakEven    BreakEvenConfig `mapstructure:"break_even"`
	AutoExecute  bool            `mapstructure:"auto_execute"`
	TUIMode      bool            `mapstructure:"-"` // Set at runtime, not from config file
}

// BreakEvenConfig is the trade-size grid searched by the break-even solver.
type BreakEvenConfig struct {
	Min  float64 `mapstructure:"min"`
	Max  float64 `mapstructure:"max"`
	Step float64 `mapstructure:"step"`
}

// LedgerConfig seeds the simulated balance ledger.
type LedgerConfig struct {
	StartingBalance float64            `mapstructure:"starting_balance"`
	Holdings        map[string]float64 `mapstructure:"holdings"`
	Seed            uint64             `mapstructure:"seed"` // 0 = time-based
}

// APIConfig holds the JSON API server settings.
type APIConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ServiceName    string  `mapstructure:"service_name"`
	TraceProvider  string  `mapstructure:"trace_provider"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string  `mapstructure:"otlp_headers"`
	OTLPProtocol   string  `mapstructure:"otlp_protocol"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
	PrometheusPort int     `mapstructure:"prometheus_port"`
}

// ProbeAmountDecimal returns the scanner probe amount.
func (c *ArbitrageConfig) ProbeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.ProbeAmount)
}

// Grid returns the break-even grid as decimals.
func (c *BreakEvenConfig) Grid() (min, max, step decimal.Decimal) {
	return decimal.NewFromFloat(c.Min), decimal.NewFromFloat(c.Max), decimal.NewFromFloat(c.Step)
}

// FeesDecimal returns venue fee fractions keyed by lower-case venue.
func (c *VenuesConfig) FeesDecimal() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.Fees))
	for k, v := range c.Fees {
		out[strings.ToLower(k)] = decimal.NewFromFloat(v)
	}
	return out
}

// Latencies returns venue latencies keyed by lower-case venue.
func (c *VenuesConfig) Latencies() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.LatencyMs))
	for k, v := range c.LatencyMs {
		out[strings.ToLower(k)] = time.Duration(v) * time.Millisecond
	}
	return out
}

// RateLimit returns the venue request budget per minute, 60 when unset.
func (c *VenuesConfig) RateLimit(venue string) int {
	if n, ok := c.RateLimits[strings.ToLower(venue)]; ok && n > 0 {
		return n
	}
	return 60
}

// NetworkFeesDecimal returns network fees keyed by upper-case symbol.
func (c *AssetsConfig) NetworkFeesDecimal() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.NetworkFees))
	for k, v := range c.NetworkFees {
		out[strings.ToUpper(k)] = decimal.NewFromFloat(v)
	}
	return out
}

// HoldingsDecimal returns the starting holdings keyed by upper-case symbol.
func (c *LedgerConfig) HoldingsDecimal() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.Holdings))
	for k, v := range c.Holdings {
		out[strings.ToUpper(k)] = decimal.NewFromFloat(v)
	}
	return out
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Venues
	v.BindEnv("venues.quote_timeout", "ARB_QUOTE_TIMEOUT")
	v.BindEnv("venues.binance.websocket_url", "ARB_BINANCE_WS_URL", "BINANCE_WS_URL")
	v.BindEnv("venues.binance.enable_streaming", "ARB_BINANCE_STREAMING")

	// Arbitrage
	v.BindEnv("arbitrage.asset", "ARB_ASSET")
	v.BindEnv("arbitrage.probe_amount", "ARB_PROBE_AMOUNT")
	v.BindEnv("arbitrage.scan_interval", "ARB_SCAN_INTERVAL")
	v.BindEnv("arbitrage.auto_execute", "ARB_AUTO_EXECUTE")

	// Ledger
	v.BindEnv("ledger.starting_balance", "ARB_STARTING_BALANCE")
	v.BindEnv("ledger.seed", "ARB_SEED")

	// API
	v.BindEnv("api.enabled", "ARB_API_ENABLED")
	v.BindEnv("api.port", "ARB_API_PORT", "HTTP_PORT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.trace_provider", "ARB_TRACE_PROVIDER")
	v.BindEnv("telemetry.otlp_headers", "ARB_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
	v.BindEnv("telemetry.otlp_protocol", "ARB_OTEL_PROTOCOL", "OTEL_EXPORTER_OTLP_PROTOCOL")
	v.BindEnv("telemetry.sample_ratio", "ARB_TRACE_SAMPLE_RATIO")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "venue-arbitrage")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Venue defaults
	v.SetDefault("venues.enabled", []string{"coinbase", "cryptocom", "binance", "kraken"})
	v.SetDefault("venues.fees", map[string]float64{
		"coinbase":  0.005,
		"cryptocom": 0.004,
		"binance":   0.001,
		"kraken":    0.0026,
	})
	v.SetDefault("venues.latency_ms", map[string]int{
		"coinbase":  300,
		"cryptocom": 400,
		"binance":   200,
		"kraken":    350,
	})
	v.SetDefault("venues.rate_limits", map[string]int{
		"coinbase":  100,
		"cryptocom": 120,
		"binance":   150,
		"kraken":    80,
	})
	v.SetDefault("venues.default_fee", 0.005)
	v.SetDefault("venues.default_latency_ms", 300)
	v.SetDefault("venues.quote_timeout", "5s")
	v.SetDefault("venues.binance.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("venues.binance.stale_timeout", "5s")
	v.SetDefault("venues.binance.enable_streaming", true)

	// Asset defaults
	v.SetDefault("assets.network_fees", map[string]float64{
		"BTC":  5.0,
		"ETH":  3.0,
		"DOGE": 1.0,
		"SOL":  0.1,
		"ADA":  0.2,
	})
	v.SetDefault("assets.default_network_fee", 5.0)

	// Arbitrage defaults
	v.SetDefault("arbitrage.asset", "BTC")
	v.SetDefault("arbitrage.probe_amount", 1000)
	v.SetDefault("arbitrage.scan_interval", "10s")
	v.SetDefault("arbitrage.break_even.min", 10)
	v.SetDefault("arbitrage.break_even.max", 10000)
	v.SetDefault("arbitrage.break_even.step", 10)
	v.SetDefault("arbitrage.auto_execute", false)

	// Ledger defaults
	v.SetDefault("ledger.starting_balance", 1000)
	v.SetDefault("ledger.holdings", map[string]float64{"BTC": 0, "ETH": 0})
	v.SetDefault("ledger.seed", 0)

	// API defaults
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.request_timeout", "15s")

	// Health defaults
	v.SetDefault("health.port", 8081)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "venue-arbitrage")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Venues.Enabled) < 2 {
		return fmt.Errorf("venues.enabled needs at least two venues, got %d", len(c.Venues.Enabled))
	}
	if err := validFee("venues.default_fee", c.Venues.DefaultFee); err != nil {
		return err
	}
	for venue, fee := range c.Venues.Fees {
		if err := validFee("venues.fees."+venue, fee); err != nil {
			return err
		}
	}
	for venue, ms := range c.Venues.LatencyMs {
		if ms < 0 {
			return fmt.Errorf("venues.latency_ms.%s must be >= 0, got %d", venue, ms)
		}
	}
	for symbol, fee := range c.Assets.NetworkFees {
		if fee < 0 {
			return fmt.Errorf("assets.network_fees.%s must be >= 0, got %v", symbol, fee)
		}
	}
	if c.Arbitrage.Asset == "" {
		return fmt.Errorf("arbitrage.asset is required")
	}
	if c.Arbitrage.ProbeAmount <= 0 {
		return fmt.Errorf("arbitrage.probe_amount must be > 0, got %v", c.Arbitrage.ProbeAmount)
	}
	be := c.Arbitrage.BreakEven
	if be.Min <= 0 || be.Step <= 0 || be.Max < be.Min {
		return fmt.Errorf("invalid arbitrage.break_even grid: min=%v max=%v step=%v", be.Min, be.Max, be.Step)
	}
	if c.API.Enabled && (c.API.Port < 0 || c.API.Port > 65535) {
		return fmt.Errorf("api.port must be in [0,65535], got %d", c.API.Port)
	}
	if r := c.Telemetry.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be in [0,1], got %v", r)
	}
	if c.Ledger.StartingBalance < 0 {
		return fmt.Errorf("ledger.starting_balance must be >= 0, got %v", c.Ledger.StartingBalance)
	}
	for symbol, qty := range c.Ledger.Holdings {
		if qty < 0 {
			return fmt.Errorf("ledger.holdings.%s must be >= 0, got %v", symbol, qty)
		}
	}
	return nil
}

func validFee(key string, fee float64) error {
	if fee < 0 || fee >= 1 {
		return fmt.Errorf("%s must be in [0,1), got %v", key, fee)
	}
	return nil
}
