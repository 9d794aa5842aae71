package calculator

import (
	"errors"
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name    string
		closes  []float64
		period  int
		want    float64
		wantErr error
	}{
		{"exact window", []float64{1, 2, 3, 4}, 4, 2.5, nil},
		{"uses last values", []float64{100, 1, 2, 3}, 3, 2, nil},
		{"short history", []float64{1, 2}, 3, 0, ErrInsufficientHistory},
	}
	for _, tt := range tests {
		got, err := SMA(tt.closes, tt.period)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected err %v, got %v", tt.name, tt.wantErr, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: expected %.4f, got %.4f", tt.name, tt.want, got)
		}
	}

	if _, err := SMA([]float64{1}, 0); err == nil {
		t.Error("expected error for zero period")
	}
	if v := SMAOrZero([]float64{1}, 20); v != 0 {
		t.Errorf("expected zero on short history, got %.2f", v)
	}
}
