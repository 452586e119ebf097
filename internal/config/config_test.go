package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}

	if got := cfg.Venues.FeesDecimal()["binance"].String(); got != "0.001" {
		t.Errorf("binance fee = %s, want 0.001", got)
	}
	if got := cfg.Venues.Latencies()["cryptocom"]; got != 400*time.Millisecond {
		t.Errorf("cryptocom latency = %v, want 400ms", got)
	}
	if got := cfg.Venues.RateLimit("kraken"); got != 80 {
		t.Errorf("kraken rate limit = %d, want 80", got)
	}
	if got := cfg.Venues.RateLimit("unknown"); got != 60 {
		t.Errorf("unknown venue rate limit = %d, want 60", got)
	}
	if got := cfg.Assets.NetworkFeesDecimal()["SOL"].String(); got != "0.1" {
		t.Errorf("SOL network fee = %s, want 0.1", got)
	}
	if got := cfg.Arbitrage.ProbeAmountDecimal().String(); got != "1000" {
		t.Errorf("probe amount = %s, want 1000", got)
	}
	min, max, step := cfg.Arbitrage.BreakEven.Grid()
	if min.String() != "10" || max.String() != "10000" || step.String() != "10" {
		t.Errorf("grid = %s..%s step %s, want 10..10000 step 10", min, max, step)
	}
	if cfg.Ledger.StartingBalance != 1000 {
		t.Errorf("starting balance = %v, want 1000", cfg.Ledger.StartingBalance)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
arbitrage:
  asset: ETH
  probe_amount: 2500
venues:
  enabled: [coinbase, kraken]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ARB_STARTING_BALANCE", "5000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Arbitrage.Asset != "ETH" {
		t.Errorf("asset = %s, want ETH", cfg.Arbitrage.Asset)
	}
	if cfg.Arbitrage.ProbeAmount != 2500 {
		t.Errorf("probe = %v, want 2500", cfg.Arbitrage.ProbeAmount)
	}
	if len(cfg.Venues.Enabled) != 2 {
		t.Errorf("enabled = %v, want 2 venues", cfg.Venues.Enabled)
	}
	if cfg.Ledger.StartingBalance != 5000 {
		t.Errorf("starting balance = %v, want 5000 from env", cfg.Ledger.StartingBalance)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Venues: VenuesConfig{
				Enabled:    []string{"a", "b"},
				DefaultFee: 0.005,
				Fees:       map[string]float64{"a": 0.001},
			},
			Arbitrage: ArbitrageConfig{
				Asset:       "BTC",
				ProbeAmount: 1000,
				BreakEven:   BreakEvenConfig{Min: 10, Max: 10000, Step: 10},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"one_venue", func(c *Config) { c.Venues.Enabled = []string{"a"} }, true},
		{"fee_one", func(c *Config) { c.Venues.Fees["a"] = 1 }, true},
		{"fee_negative", func(c *Config) { c.Venues.DefaultFee = -0.1 }, true},
		{"zero_probe", func(c *Config) { c.Arbitrage.ProbeAmount = 0 }, true},
		{"empty_asset", func(c *Config) { c.Arbitrage.Asset = "" }, true},
		{"grid_inverted", func(c *Config) { c.Arbitrage.BreakEven.Max = 5 }, true},
		{"grid_zero_step", func(c *Config) { c.Arbitrage.BreakEven.Step = 0 }, true},
		{"negative_balance", func(c *Config) { c.Ledger.StartingBalance = -1 }, true},
		{"sample_ratio_above_one", func(c *Config) { c.Telemetry.SampleRatio = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
