package calculator

import "PairTrader/internal/model"

// History carries indicator values from one poll cycle to the next, so that
// "previous" in a snapshot means the previous cycle rather than the previous
// candle. Until enough cycles have been seen the candle-derived values are
// kept: with one prior cycle the previous RSI and EMAs come from that cycle,
// while the fast-rise window start and the trend average stay candle-derived
// until two prior cycles exist. The fast-rise check therefore compares the
// current RSI with the RSI two candles back on the first two cycles after a
// start. History is not safe for concurrent use.
type History struct {
	mode string

	rsi    []float64
	short  []float64
	long   []float64
	spread []float64
}

// NewHistory creates a History. Any mode other than model.HistoryCycle makes
// Apply a pass-through.
func NewHistory(mode string) *History {
	return &History{mode: mode}
}

// Apply returns s with its previous-cycle fields replaced from history and
// records s as the latest cycle.
func (h *History) Apply(s model.IndicatorSnapshot) model.IndicatorSnapshot {
	if h == nil || h.mode != model.HistoryCycle {
		return s
	}

	out := s
	n := len(h.rsi)
	if n >= 1 {
		out.PrevRSI = h.rsi[n-1]
		if s.HasEMA {
			out.PrevEMAShort = h.short[n-1]
			out.PrevEMALong = h.long[n-1]
		}
	}
	if n >= 2 {
		out.RSIWindowStart = h.rsi[n-2]
		if s.HasEMA {
			spreads := []float64{h.spread[n-2], h.spread[n-1], s.EMAShort - s.EMALong}
			if avg, err := CalculateSMA(spreads, trendSamples); err == nil {
				out.TrendAvg = avg
			}
		}
	}

	h.push(s)
	return out
}

// Len returns the number of cycles currently remembered.
func (h *History) Len() int { return len(h.rsi) }

func (h *History) push(s model.IndicatorSnapshot) {
	keep := trendSamples - 1
	h.rsi = tail(append(h.rsi, s.RSI), keep)
	h.short = tail(append(h.short, s.EMAShort), keep)
	h.long = tail(append(h.long, s.EMALong), keep)
	h.spread = tail(append(h.spread, s.EMAShort-s.EMALong), keep)
}

func tail(xs []float64, n int) []float64 {
	if len(xs) > n {
		return xs[len(xs)-n:]
	}
	return xs
}
