package feed

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WeekendTrader/internal/model"
)

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func bar(offset time.Duration, close float64) model.Candle {
	return model.Candle{Time: base.Add(offset), Open: close, High: close, Low: close, Close: close, Volume: 1}
}

func TestReplayMergesByTime(t *testing.T) {
	f := NewReplayFeed()
	f.Add("BTCUSDT", model.TF1h, bar(time.Hour, 2))
	f.Add("BTCUSDT", model.TF15m, bar(0, 1), bar(45*time.Minute, 3), bar(time.Hour, 4))

	var got []string
	f.Subscribe("BTCUSDT", model.TF15m, func(c model.Candle) { got = append(got, "15m") })
	f.Subscribe("BTCUSDT", model.TF1h, func(c model.Candle) { got = append(got, "1h") })

	calls := f.Run()
	assert.Equal(t, 4, calls)
	assert.Equal(t, []string{"15m", "15m", "15m", "1h"}, got)
}

func TestReplayUnsubscribe(t *testing.T) {
	f := NewReplayFeed()
	f.Add("ETHUSDT", model.TF15m, bar(0, 1), bar(15*time.Minute, 2))

	n := 0
	unsub := f.Subscribe("ETHUSDT", model.TF15m, func(model.Candle) { n++ })
	unsub()
	assert.Zero(t, f.Run())
	assert.Zero(t, n)
}

func TestWalkerStepsOnBoundaries(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 7, 0, 0, time.UTC)
	w := NewWalker(FallbackWalk, model.TF15m, start, rand.New(rand.NewPCG(1, 2)))

	first := w.Next()
	second := w.Next()
	assert.Equal(t, time.Date(2024, 6, 1, 10, 15, 0, 0, time.UTC), first.Time)
	assert.Equal(t, 15*time.Minute, second.Time.Sub(first.Time))
	assert.Equal(t, FallbackWalk.Base, first.Open)
	assert.Equal(t, first.Close, second.Open)

	for i := 0; i < 200; i++ {
		c := w.Next()
		assert.GreaterOrEqual(t, c.High, c.Close)
		assert.GreaterOrEqual(t, c.High, c.Open)
		assert.LessOrEqual(t, c.Low, c.Close)
		assert.LessOrEqual(t, c.Low, c.Open)
		assert.GreaterOrEqual(t, c.Close, 1.0)
		assert.GreaterOrEqual(t, c.Volume, 1.0)
	}
}

func TestSyntheticUnsubscribeWaitsForHandler(t *testing.T) {
	f := &SyntheticFeed{Speedup: 90000, Walks: DefaultWalks, Seed: 7}
	require.Equal(t, 10*time.Millisecond, f.Interval(model.TF15m))
	require.Equal(t, 40*time.Millisecond, f.Interval(model.TF1h))

	var mu sync.Mutex
	var got []model.Candle
	unsub := f.Subscribe("BTCUSDT", model.TF15m, func(c model.Candle) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 3
	}, time.Second, time.Millisecond)
	unsub()
	unsub()

	mu.Lock()
	n := len(got)
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, n, len(got))
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Time.After(got[i-1].Time))
	}
}
