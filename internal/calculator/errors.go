package calculator

import "fmt"

// DataInsufficientError is returned when a series is too short for an indicator.
type DataInsufficientError struct {
	Indicator string
	Need      int
	Have      int
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("not enough data for %s: need %d, have %d", e.Indicator, e.Need, e.Have)
}
