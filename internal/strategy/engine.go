package strategy

import (
	"fmt"

	"PairTrader/internal/model"
)

// Strategy maps a cycle's indicators and the current position to an action.
// It holds no mutable state; the same inputs always give the same Decision.
type Strategy struct {
	cfg      model.StrategyConfig
	entry    Rule
	exit     Rule
	fastRise *Rule
}

// New builds the entry and exit rules named by cfg.
func New(cfg model.StrategyConfig) (*Strategy, error) {
	entry, err := entryRule(cfg)
	if err != nil {
		return nil, err
	}
	exit, err := exitRule(cfg)
	if err != nil {
		return nil, err
	}
	s := &Strategy{cfg: cfg, entry: entry, exit: exit}
	if cfg.FastRise.Enabled {
		fr := FastRise(cfg.FastRise.Delta, cfg.FastRise.Floor)
		s.fastRise = &fr
	}
	return s, nil
}

func needsEMA(cfg model.StrategyConfig, rule string) error {
	if !cfg.UsesEMA() {
		return fmt.Errorf("rule %q requires indicators %q", rule, model.IndicatorsRSIEMA)
	}
	return nil
}

func entryRule(cfg model.StrategyConfig) (Rule, error) {
	switch cfg.EntryRule {
	case model.RuleThreshold:
		return RSIAtOrBelow(cfg.BuyThreshold), nil
	case model.RuleCrossover:
		if err := needsEMA(cfg, cfg.EntryRule); err != nil {
			return Rule{}, err
		}
		return All(GoldenCross(), RSICrossUp(cfg.BuyThreshold)), nil
	case model.RuleTrend:
		if err := needsEMA(cfg, cfg.EntryRule); err != nil {
			return Rule{}, err
		}
		return All(
			RSIAtOrBelow(cfg.BuyThreshold),
			WithinSupport(cfg.Support.Level, cfg.Support.Margin),
			TrendAbove(cfg.Trend.MinStrength),
			ShortAboveLong(),
		), nil
	case model.RuleSupport:
		if err := needsEMA(cfg, cfg.EntryRule); err != nil {
			return Rule{}, err
		}
		return All(
			RSIBelow(cfg.BuyThreshold),
			PriceAtOrAboveLongEMA(),
			WithinSupport(cfg.Support.Level, cfg.Support.Margin),
		), nil
	}
	return Rule{}, fmt.Errorf("unknown entry rule %q", cfg.EntryRule)
}

func exitRule(cfg model.StrategyConfig) (Rule, error) {
	switch cfg.ExitRule {
	case model.RuleThreshold:
		return RSIAtOrAbove(cfg.SellThreshold), nil
	case model.RuleCrossover:
		if err := needsEMA(cfg, cfg.ExitRule); err != nil {
			return Rule{}, err
		}
		return All(DeathCross(), RSICrossDown(cfg.SellThreshold)), nil
	case model.RuleTrend:
		if err := needsEMA(cfg, cfg.ExitRule); err != nil {
			return Rule{}, err
		}
		return All(
			RSIAtOrAbove(cfg.SellThreshold),
			TrendBelow(-cfg.Trend.MinStrength),
			ShortBelowLong(),
		), nil
	case model.RuleSupport:
		return RSIAbove(cfg.SellThreshold), nil
	}
	return Rule{}, fmt.Errorf("unknown exit rule %q", cfg.ExitRule)
}

// Decide evaluates exactly one action for the cycle. When LONG the fast-rise
// override is checked before the exit rule; when FLAT only the entry rule
// is consulted, so a buy while LONG or a sell while FLAT cannot happen.
func (s *Strategy) Decide(in Input, pos model.PositionState) model.Decision {
	if pos.IsLong() {
		if s.fastRise != nil && s.fastRise.Test(in) {
			return model.Decision{Action: model.ActionSell, Reason: "early_exit:" + s.fastRise.Name, EarlyExit: true}
		}
		if s.exit.Test(in) {
			return model.Decision{Action: model.ActionSell, Reason: "exit:" + s.exit.Name}
		}
		return model.Decision{Action: model.ActionHold, Reason: "holding"}
	}
	if s.entry.Test(in) {
		return model.Decision{Action: model.ActionBuy, Reason: "entry:" + s.entry.Name}
	}
	return model.Decision{Action: model.ActionHold, Reason: "waiting"}
}

// Signals are the individual indicator events of a cycle, reported in logs.
type Signals struct {
	Golden   bool
	Death    bool
	RSIUp    bool
	RSIDown  bool
	FastRise bool
}

// Signals evaluates the cycle's indicator events against the configured levels.
func (s *Strategy) Signals(in Input) Signals {
	snap := in.Snapshot
	sig := Signals{
		Golden:  snap.GoldenCross(),
		Death:   snap.DeathCross(),
		RSIUp:   snap.RSICrossUp(s.cfg.BuyThreshold),
		RSIDown: snap.RSICrossDown(s.cfg.SellThreshold),
	}
	if s.fastRise != nil {
		sig.FastRise = s.fastRise.Test(in)
	}
	return sig
}

// Config returns the configuration the strategy was built from.
func (s *Strategy) Config() model.StrategyConfig { return s.cfg }
