package calculator

import "math"

// WithinBand reports whether price sits no further than margin from level.
func WithinBand(price, level, margin float64) bool {
	return math.Abs(price-level) <= margin
}
