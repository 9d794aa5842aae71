package calculator

import (
	"time"

	"WeekendTrader/internal/model"
)

// IsWeekendUTC reports whether t falls on Saturday or Sunday in UTC. Both
// strategies only evaluate inside this window.
func IsWeekendUTC(t time.Time) bool {
	switch t.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// IsRangeSessionUTC reports whether t falls in the range-building part of the
// weekend (Saturday UTC). The range freezes on the first candle after it.
func IsRangeSessionUTC(t time.Time) bool {
	return t.UTC().Weekday() == time.Saturday
}

// UpdateWeekendRange tracks the weekend high/low while the building session
// is active and, once frozen, flags closes beyond either bound.
func UpdateWeekendRange(r model.RangeState, c model.Candle) model.RangeState {
	if IsRangeSessionUTC(c.Time) {
		if r.Frozen {
			r = model.RangeState{}
		}
		if r.High == nil || c.High > *r.High {
			h := c.High
			r.High = &h
		}
		if r.Low == nil || c.Low < *r.Low {
			l := c.Low
			r.Low = &l
		}
		return r
	}

	if !r.Valid() {
		return r
	}
	r.Frozen = true
	if c.Close > *r.High {
		r.BrokeAbove = true
	}
	if c.Close < *r.Low {
		r.BrokeBelow = true
	}
	return r
}
