package calculator

import "errors"

// ErrInsufficientHistory is returned when an indicator has fewer samples than it needs.
var ErrInsufficientHistory = errors.New("not enough data for indicator calculation")

// SMA computes the simple moving average of the last period closes.
func SMA(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < period {
		return 0, ErrInsufficientHistory
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(period), nil
}

// SMAOrZero is SMA with insufficient history mapped to zero.
func SMAOrZero(closes []float64, period int) float64 {
	v, err := SMA(closes, period)
	if err != nil {
		return 0
	}
	return v
}
