package model

// History modes for "previous" indicator values.
const (
	HistoryCycle  = "cycle"
	HistoryCandle = "candle"
)

// Indicator sets.
const (
	IndicatorsRSI    = "rsi"
	IndicatorsRSIEMA = "rsi_ema"
)

// Rule names accepted for entry_rule / exit_rule.
const (
	RuleThreshold = "threshold"
	RuleCrossover = "crossover"
	RuleTrend     = "trend"
	RuleSupport   = "support"
)

// StrategyConfig describes one trading pair and the rules that govern it.
type StrategyConfig struct {
	Preset     string `yaml:"preset"`
	Symbol     string `yaml:"symbol"`
	BaseAsset  string `yaml:"base_asset"`
	QuoteAsset string `yaml:"quote_asset"`

	Interval    string `yaml:"interval"`
	CandleLimit int    `yaml:"candle_limit"`
	History     string `yaml:"history"`

	Indicators string `yaml:"indicators"`
	RSIPeriod  int    `yaml:"rsi_period"`
	EMAShort   int    `yaml:"ema_short"`
	EMALong    int    `yaml:"ema_long"`

	EntryRule     string  `yaml:"entry_rule"`
	ExitRule      string  `yaml:"exit_rule"`
	BuyThreshold  float64 `yaml:"buy_threshold"`
	SellThreshold float64 `yaml:"sell_threshold"`

	FastRise struct {
		Enabled bool    `yaml:"enabled"`
		Delta   float64 `yaml:"delta"`
		Floor   float64 `yaml:"floor"`
	} `yaml:"fast_rise"`

	Trend struct {
		MinStrength float64 `yaml:"min_strength"`
	} `yaml:"trend"`

	Support struct {
		Level  float64 `yaml:"level"`
		Margin float64 `yaml:"margin"`
	} `yaml:"support"`
}

// UsesEMA reports whether the configured indicator set includes the EMA pair.
func (c StrategyConfig) UsesEMA() bool { return c.Indicators == IndicatorsRSIEMA }

// MinCandles is the shortest candle series the indicator engine accepts.
func (c StrategyConfig) MinCandles() int {
	longest := c.RSIPeriod
	if c.UsesEMA() && c.EMALong > longest {
		longest = c.EMALong
	}
	return longest + 3
}
