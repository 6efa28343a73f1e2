package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"PairTrader/internal/model"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Exchange struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"exchange"`
	Paper struct {
		Enabled    bool    `yaml:"enabled"`
		StartQuote float64 `yaml:"start_quote"`
	} `yaml:"paper"`
	Strategy model.StrategyConfig `yaml:"strategy"`
	Trading  struct {
		PollInterval    time.Duration `yaml:"poll_interval"`
		SafetyMargin    float64       `yaml:"safety_margin"`
		MinQuoteBalance float64       `yaml:"min_quote_balance"`
	} `yaml:"trading"`
	Position struct {
		Backend string `yaml:"backend"` // "file" or "redis"
		File    string `yaml:"file"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"position"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	TradeLog struct {
		CSVPath string `yaml:"csv_path"`
	} `yaml:"trade_log"`
	Metrics struct {
		PushgatewayURL string `yaml:"pushgateway_url"`
		Job            string `yaml:"job"`
	} `yaml:"metrics"`
	Schedule struct {
		LotRefreshCron  string `yaml:"lot_refresh_cron"`
		DailyReportCron string `yaml:"daily_report_cron"`
		MetricsPushCron string `yaml:"metrics_push_cron"`
	} `yaml:"schedule"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. The strategy starts from its preset; fields set
// in the file override the preset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var probe struct {
		Strategy struct {
			Preset string `yaml:"preset"`
		} `yaml:"strategy"`
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if v := os.Getenv("STRATEGY_PRESET"); v != "" {
		probe.Strategy.Preset = v
	}
	if probe.Strategy.Preset == "" {
		probe.Strategy.Preset = DefaultPreset
	}

	cfg := &Config{}
	if cfg.Strategy, err = Preset(probe.Strategy.Preset); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.Strategy.Preset = probe.Strategy.Preset

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		c.Exchange.APISecret = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := os.Getenv("PAIR_SYMBOL"); v != "" {
		c.Strategy.Symbol = strings.ToUpper(v)
		c.Strategy.BaseAsset, c.Strategy.QuoteAsset = "", ""
	}
	if v := os.Getenv("PAPER_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PAPER_MODE: %w", err)
		}
		c.Paper.Enabled = b
	}
	if v := os.Getenv("POSITION_FILE"); v != "" {
		c.Position.File = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Position.Backend = "redis"
		c.Position.Redis.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("TRADE_LOG_CSV"); v != "" {
		c.TradeLog.CSVPath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("PUSHGATEWAY_URL"); v != "" {
		c.Metrics.PushgatewayURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		c.Trading.PollInterval = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Strategy.BaseAsset == "" || c.Strategy.QuoteAsset == "" {
		if base, quote, ok := SplitSymbol(c.Strategy.Symbol); ok {
			if c.Strategy.BaseAsset == "" {
				c.Strategy.BaseAsset = base
			}
			if c.Strategy.QuoteAsset == "" {
				c.Strategy.QuoteAsset = quote
			}
		}
	}
	if c.Strategy.History == "" {
		c.Strategy.History = model.HistoryCycle
	}
	if c.Strategy.Interval == "" {
		c.Strategy.Interval = "1m"
	}
	if c.Trading.PollInterval <= 0 {
		c.Trading.PollInterval = time.Second
	}
	if c.Trading.SafetyMargin == 0 {
		c.Trading.SafetyMargin = 0.997
	}
	if c.Trading.MinQuoteBalance == 0 {
		c.Trading.MinQuoteBalance = 5
	}
	if c.Paper.StartQuote == 0 {
		c.Paper.StartQuote = 1000
	}
	if c.Position.Backend == "" {
		c.Position.Backend = "file"
	}
	if c.Position.File == "" {
		c.Position.File = "data/position_" + strings.ToLower(c.Strategy.Symbol) + ".txt"
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "pairtrader"
	}
	if c.Schedule.LotRefreshCron == "" {
		c.Schedule.LotRefreshCron = "0 0 * * * *"
	}
	if c.Schedule.DailyReportCron == "" {
		c.Schedule.DailyReportCron = "0 0 9 * * *"
	}
	if c.Schedule.MetricsPushCron == "" {
		c.Schedule.MetricsPushCron = "*/15 * * * * *"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

var quoteAssets = []string{"FDUSD", "USDT", "USDC", "BUSD", "TUSD", "BTC", "ETH", "BNB", "EUR", "TRY"}

// SplitSymbol splits a pair like IOTXUSDT into IOTX and USDT using the
// common quote assets.
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	for _, q := range quoteAssets {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			return strings.TrimSuffix(symbol, q), q, true
		}
	}
	return "", "", false
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	s := c.Strategy
	if s.Symbol == "" {
		return fmt.Errorf("strategy.symbol is required")
	}
	if s.BaseAsset == "" || s.QuoteAsset == "" {
		return fmt.Errorf("strategy.base_asset and strategy.quote_asset are required for %s", s.Symbol)
	}
	if s.RSIPeriod < 2 {
		return fmt.Errorf("strategy.rsi_period must be at least 2")
	}
	switch s.Indicators {
	case model.IndicatorsRSI:
	case model.IndicatorsRSIEMA:
		if s.EMAShort < 1 || s.EMALong < 1 {
			return fmt.Errorf("strategy.ema_short and strategy.ema_long must be positive")
		}
	default:
		return fmt.Errorf("strategy.indicators must be %q or %q", model.IndicatorsRSI, model.IndicatorsRSIEMA)
	}
	if s.History != model.HistoryCycle && s.History != model.HistoryCandle {
		return fmt.Errorf("strategy.history must be %q or %q", model.HistoryCycle, model.HistoryCandle)
	}
	if s.BuyThreshold <= 0 || s.SellThreshold >= 100 || s.BuyThreshold >= s.SellThreshold {
		return fmt.Errorf("strategy thresholds must satisfy 0 < buy (%g) < sell (%g) < 100", s.BuyThreshold, s.SellThreshold)
	}
	if s.CandleLimit > 1000 {
		return fmt.Errorf("strategy.candle_limit %d exceeds the exchange maximum of 1000", s.CandleLimit)
	}
	if c.Trading.SafetyMargin <= 0 || c.Trading.SafetyMargin > 1 {
		return fmt.Errorf("trading.safety_margin must be in (0, 1]")
	}
	if !c.Paper.Enabled && (c.Exchange.APIKey == "" || c.Exchange.APISecret == "") {
		return fmt.Errorf("exchange.api_key and exchange.api_secret are required unless paper mode is enabled")
	}
	switch c.Position.Backend {
	case "file":
		if c.Position.File == "" {
			return fmt.Errorf("position.file is required")
		}
	case "redis":
		if c.Position.Redis.Addr == "" {
			return fmt.Errorf("position.redis.addr is required")
		}
	default:
		return fmt.Errorf("position.backend must be \"file\" or \"redis\"")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
