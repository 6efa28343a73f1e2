package calculator

import "errors"

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, &DataInsufficientError{Indicator: "SMA", Need: period, Have: len(prices)}
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateEMASeries computes the exponential moving average of prices with
// smoothing factor 2/(span+1), seeded from the first price. The result has the
// same length as prices.
func CalculateEMASeries(prices []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	if len(prices) == 0 {
		return nil, &DataInsufficientError{Indicator: "EMA", Need: 1, Have: 0}
	}
	k := 2.0 / (float64(span) + 1)
	ema := make([]float64, len(prices))
	ema[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		ema[i] = k*prices[i] + (1-k)*ema[i-1]
	}
	return ema, nil
}
