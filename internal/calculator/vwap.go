package calculator

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"WeekendTrader/internal/model"
)

// ParseSessionSchedule parses a standard five-field cron spec describing when
// the VWAP session restarts. Specs run in UTC unless they carry their own
// CRON_TZ= or TZ= prefix. An empty spec yields a nil schedule (never reset).
func ParseSessionSchedule(spec string) (cron.Schedule, error) {
	if spec == "" {
		return nil, nil
	}
	full := spec
	if !strings.HasPrefix(spec, "CRON_TZ=") && !strings.HasPrefix(spec, "TZ=") {
		full = "CRON_TZ=UTC " + spec
	}
	sched, err := cron.ParseStandard(full)
	if err != nil {
		return nil, fmt.Errorf("parse vwap reset %q: %w", spec, err)
	}
	return sched, nil
}

// UpdateVWAP accumulates price*volume and volume for the current session and
// recomputes the VWAP. When t reaches the scheduled reset the sums restart
// from this candle. Schedules are evaluated in UTC.
func UpdateVWAP(st model.VWAPState, price, volume float64, t time.Time, sched cron.Schedule) model.VWAPState {
	t = t.UTC()
	if st.SessionStart.IsZero() {
		st.SessionStart = t
		if sched != nil {
			st.NextReset = sched.Next(t)
		}
	} else if sched != nil && !st.NextReset.IsZero() && !t.Before(st.NextReset) {
		st = model.VWAPState{SessionStart: t, NextReset: sched.Next(t)}
	}

	if volume > 0 {
		st.CumulativePV += price * volume
		st.CumulativeVolume += volume
	}
	if st.CumulativeVolume > 0 {
		st.VWAP = st.CumulativePV / st.CumulativeVolume
	} else {
		st.VWAP = 0
	}
	return st
}
