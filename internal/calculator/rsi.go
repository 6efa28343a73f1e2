package calculator

import "errors"

// CalculateRSISeries computes Wilder's RSI over closes. Gains and losses are
// smoothed with an exponential average (alpha = 1/period) seeded at zero on the
// first close, and the first value is emitted once period samples have been
// seen. The returned slice is aligned to the tail of closes, so its last
// element belongs to the last close.
func CalculateRSISeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(closes) < period {
		return nil, &DataInsufficientError{Indicator: "RSI", Need: period, Have: len(closes)}
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	out := make([]float64, 0, len(closes)-period+1)

	for i := range closes {
		gain, loss := 0.0, 0.0
		if i > 0 {
			change := closes[i] - closes[i-1]
			if change > 0 {
				gain = change
			} else {
				loss = -change
			}
		}
		avgGain = alpha*gain + (1-alpha)*avgGain
		avgLoss = alpha*loss + (1-alpha)*avgLoss

		if i >= period-1 {
			out = append(out, rsiFrom(avgGain, avgLoss))
		}
	}
	return out, nil
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
