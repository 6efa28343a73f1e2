package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"PairTrader/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := cfg.Strategy
	if s.Preset != DefaultPreset || s.Symbol != "VICUSDT" || s.BuyThreshold != 31 || s.SellThreshold != 55 {
		t.Errorf("strategy = %+v", s)
	}
	if s.BaseAsset != "VIC" || s.QuoteAsset != "USDT" {
		t.Errorf("assets = %s/%s", s.BaseAsset, s.QuoteAsset)
	}
	if cfg.Trading.PollInterval != time.Second || cfg.Trading.SafetyMargin != 0.997 || cfg.Trading.MinQuoteBalance != 5 {
		t.Errorf("trading = %+v", cfg.Trading)
	}
	if cfg.Position.File != "data/position_vicusdt.txt" || cfg.Strategy.History != model.HistoryCycle {
		t.Errorf("position file = %s, history = %s", cfg.Position.File, cfg.Strategy.History)
	}
}

func TestLoad_PresetWithOverrides(t *testing.T) {
	path := writeConfig(t, `
strategy:
  preset: ema-crossover
  buy_threshold: 32
  fast_rise:
    delta: 45
trading:
  poll_interval: 5s
paper:
  enabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := cfg.Strategy
	if s.EntryRule != model.RuleCrossover || s.EMAShort != 9 || s.EMALong != 20 {
		t.Errorf("preset not applied: %+v", s)
	}
	if s.BuyThreshold != 32 || s.SellThreshold != 70 {
		t.Errorf("thresholds = %v/%v", s.BuyThreshold, s.SellThreshold)
	}
	if !s.FastRise.Enabled || s.FastRise.Delta != 45 || s.FastRise.Floor != 60 {
		t.Errorf("fast rise = %+v", s.FastRise)
	}
	if cfg.Trading.PollInterval != 5*time.Second {
		t.Errorf("poll interval = %v", cfg.Trading.PollInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAIR_SYMBOL", "ethbtc")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("BINANCE_API_KEY", "k")
	t.Setenv("BINANCE_API_SECRET", "s")
	t.Setenv("STRATEGY_PRESET", "ema-trend")

	cfg, err := Load(writeConfig(t, "strategy:\n  base_asset: XXX\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Strategy.Symbol != "ETHBTC" || cfg.Strategy.BaseAsset != "ETH" || cfg.Strategy.QuoteAsset != "BTC" {
		t.Errorf("symbol = %s (%s/%s)", cfg.Strategy.Symbol, cfg.Strategy.BaseAsset, cfg.Strategy.QuoteAsset)
	}
	if cfg.Strategy.EntryRule != model.RuleTrend {
		t.Errorf("preset env ignored: %s", cfg.Strategy.EntryRule)
	}
	if cfg.Trading.PollInterval != 250*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.Trading.PollInterval)
	}
	if cfg.Position.Backend != "redis" || cfg.Position.Redis.Addr != "localhost:6379" {
		t.Errorf("position = %+v", cfg.Position)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("PAPER_MODE", "maybe")
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected PAPER_MODE parse error")
	}
}

func TestLoad_UnknownPreset(t *testing.T) {
	if _, err := Load(writeConfig(t, "strategy:\n  preset: moonshot\n")); err == nil {
		t.Error("expected unknown preset error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		cfg.Exchange.APIKey, cfg.Exchange.APISecret = "k", "s"
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"credentials", func(c *Config) { c.Exchange.APISecret = "" }, "api_secret"},
		{"paper needs no credentials", func(c *Config) { c.Exchange.APIKey = ""; c.Paper.Enabled = true }, ""},
		{"thresholds", func(c *Config) { c.Strategy.BuyThreshold = 60 }, "thresholds"},
		{"indicators", func(c *Config) { c.Strategy.Indicators = "macd" }, "indicators"},
		{"history", func(c *Config) { c.Strategy.History = "weekly" }, "history"},
		{"backend", func(c *Config) { c.Position.Backend = "s3" }, "backend"},
		{"redis addr", func(c *Config) { c.Position.Backend = "redis" }, "redis.addr"},
		{"telegram pair", func(c *Config) { c.Telegram.BotToken = "t" }, "telegram"},
		{"unsplittable symbol", func(c *Config) { c.Strategy.BaseAsset = "" }, "base_asset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range PresetNames() {
		s, err := Preset(name)
		if err != nil {
			t.Fatalf("Preset(%s): %v", name, err)
		}
		if s.CandleLimit < s.MinCandles() {
			t.Errorf("%s: candle limit %d below required %d", name, s.CandleLimit, s.MinCandles())
		}
	}
}

func TestSplitSymbol(t *testing.T) {
	for sym, want := range map[string][2]string{
		"IOTXUSDT": {"IOTX", "USDT"},
		"ETHBTC":   {"ETH", "BTC"},
		"BTCFDUSD": {"BTC", "FDUSD"},
	} {
		base, quote, ok := SplitSymbol(sym)
		if !ok || base != want[0] || quote != want[1] {
			t.Errorf("SplitSymbol(%s) = %s, %s, %v", sym, base, quote, ok)
		}
	}
	if _, _, ok := SplitSymbol("USDT"); ok {
		t.Error("bare quote asset should not split")
	}
}
