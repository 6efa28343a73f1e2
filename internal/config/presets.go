package config

import (
	"fmt"
	"sort"

	"PairTrader/internal/model"
)

// DefaultPreset is used when the config names none.
const DefaultPreset = "rsi-threshold"

var presets = map[string]func() model.StrategyConfig{
	"rsi-threshold": func() model.StrategyConfig {
		return model.StrategyConfig{
			Symbol: "VICUSDT", Interval: "1m", CandleLimit: 500,
			Indicators: model.IndicatorsRSI, RSIPeriod: 14,
			EntryRule: model.RuleThreshold, ExitRule: model.RuleThreshold,
			BuyThreshold: 31, SellThreshold: 55,
		}
	},
	"ema-crossover": func() model.StrategyConfig {
		c := model.StrategyConfig{
			Symbol: "IOTXUSDT", Interval: "1m", CandleLimit: 50,
			Indicators: model.IndicatorsRSIEMA, RSIPeriod: 14, EMAShort: 9, EMALong: 20,
			EntryRule: model.RuleCrossover, ExitRule: model.RuleCrossover,
			BuyThreshold: 35, SellThreshold: 70,
		}
		c.FastRise.Enabled = true
		c.FastRise.Delta = 40
		c.FastRise.Floor = 60
		return c
	},
	"ema-trend": func() model.StrategyConfig {
		c := model.StrategyConfig{
			Symbol: "KNCUSDT", Interval: "1m", CandleLimit: 100,
			Indicators: model.IndicatorsRSIEMA, RSIPeriod: 14, EMAShort: 10, EMALong: 50,
			EntryRule: model.RuleTrend, ExitRule: model.RuleTrend,
			BuyThreshold: 35, SellThreshold: 55,
		}
		c.Support.Level = 0.025
		c.Support.Margin = 0.001
		c.Trend.MinStrength = 0.00005
		return c
	},
	"support-bounce": func() model.StrategyConfig {
		c := model.StrategyConfig{
			Symbol: "IOTXUSDT", Interval: "1m", CandleLimit: 100,
			Indicators: model.IndicatorsRSIEMA, RSIPeriod: 14, EMAShort: 50, EMALong: 50,
			EntryRule: model.RuleSupport, ExitRule: model.RuleSupport,
			BuyThreshold: 30, SellThreshold: 70,
		}
		c.Support.Level = 0.025
		c.Support.Margin = 0.001
		return c
	},
}

// Preset returns the named strategy preset.
func Preset(name string) (model.StrategyConfig, error) {
	build, ok := presets[name]
	if !ok {
		return model.StrategyConfig{}, fmt.Errorf("unknown preset %q (have %v)", name, PresetNames())
	}
	c := build()
	c.Preset = name
	c.History = model.HistoryCycle
	return c, nil
}

// PresetNames lists the available presets, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
