package strategy

import (
	"fmt"
	"strings"

	"PairTrader/internal/calculator"
	"PairTrader/internal/model"
)

// Input is what a rule sees: the cycle's snapshot and the latest trade price.
type Input struct {
	Snapshot model.IndicatorSnapshot
	Price    float64
}

// Rule is a named predicate over one cycle's Input.
type Rule struct {
	Name string
	Test func(Input) bool
}

// All is satisfied when every rule is.
func All(rules ...Rule) Rule {
	return Rule{
		Name: join(rules, " & "),
		Test: func(in Input) bool {
			for _, r := range rules {
				if !r.Test(in) {
					return false
				}
			}
			return true
		},
	}
}

// Any is satisfied when at least one rule is.
func Any(rules ...Rule) Rule {
	return Rule{
		Name: "(" + join(rules, " | ") + ")",
		Test: func(in Input) bool {
			for _, r := range rules {
				if r.Test(in) {
					return true
				}
			}
			return false
		},
	}
}

func join(rules []Rule, sep string) string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return strings.Join(names, sep)
}

// RSIAtOrBelow requires RSI <= level.
func RSIAtOrBelow(level float64) Rule {
	return Rule{fmt.Sprintf("rsi<=%g", level), func(in Input) bool { return in.Snapshot.RSI <= level }}
}

// RSIBelow requires RSI < level.
func RSIBelow(level float64) Rule {
	return Rule{fmt.Sprintf("rsi<%g", level), func(in Input) bool { return in.Snapshot.RSI < level }}
}

// RSIAtOrAbove requires RSI >= level.
func RSIAtOrAbove(level float64) Rule {
	return Rule{fmt.Sprintf("rsi>=%g", level), func(in Input) bool { return in.Snapshot.RSI >= level }}
}

// RSIAbove requires RSI > level.
func RSIAbove(level float64) Rule {
	return Rule{fmt.Sprintf("rsi>%g", level), func(in Input) bool { return in.Snapshot.RSI > level }}
}

// GoldenCross requires the short EMA to have crossed above the long EMA.
func GoldenCross() Rule {
	return Rule{"golden_cross", func(in Input) bool { return in.Snapshot.GoldenCross() }}
}

// DeathCross requires the short EMA to have crossed below the long EMA.
func DeathCross() Rule {
	return Rule{"death_cross", func(in Input) bool { return in.Snapshot.DeathCross() }}
}

// RSICrossUp requires RSI to have risen through level.
func RSICrossUp(level float64) Rule {
	return Rule{fmt.Sprintf("rsi_cross_up(%g)", level), func(in Input) bool { return in.Snapshot.RSICrossUp(level) }}
}

// RSICrossDown requires RSI to have fallen through level.
func RSICrossDown(level float64) Rule {
	return Rule{fmt.Sprintf("rsi_cross_down(%g)", level), func(in Input) bool { return in.Snapshot.RSICrossDown(level) }}
}

// FastRise requires RSI to have climbed delta over the window and sit at or above floor.
func FastRise(delta, floor float64) Rule {
	return Rule{fmt.Sprintf("fast_rise(%g,%g)", delta, floor), func(in Input) bool { return in.Snapshot.FastRise(delta, floor) }}
}

// TrendAbove requires the averaged EMA spread to exceed min.
func TrendAbove(min float64) Rule {
	return Rule{fmt.Sprintf("trend>%g", min), func(in Input) bool { return in.Snapshot.TrendAvg > min }}
}

// TrendBelow requires the averaged EMA spread to be under max.
func TrendBelow(max float64) Rule {
	return Rule{fmt.Sprintf("trend<%g", max), func(in Input) bool { return in.Snapshot.TrendAvg < max }}
}

// ShortAboveLong requires the short EMA above the long EMA.
func ShortAboveLong() Rule {
	return Rule{"ema_short>ema_long", func(in Input) bool {
		return in.Snapshot.HasEMA && in.Snapshot.EMAShort > in.Snapshot.EMALong
	}}
}

// ShortBelowLong requires the short EMA below the long EMA.
func ShortBelowLong() Rule {
	return Rule{"ema_short<ema_long", func(in Input) bool {
		return in.Snapshot.HasEMA && in.Snapshot.EMAShort < in.Snapshot.EMALong
	}}
}

// WithinSupport requires the trade price inside level±margin.
func WithinSupport(level, margin float64) Rule {
	return Rule{fmt.Sprintf("support(%g±%g)", level, margin), func(in Input) bool {
		return calculator.WithinBand(in.Price, level, margin)
	}}
}

// PriceAtOrAboveLongEMA requires the trade price at or above the long EMA.
func PriceAtOrAboveLongEMA() Rule {
	return Rule{"price>=ema_long", func(in Input) bool {
		return in.Snapshot.HasEMA && in.Price >= in.Snapshot.EMALong
	}}
}
