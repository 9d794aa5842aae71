package feed

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"WeekendTrader/internal/model"
)

// WalkParams shapes the random walk of one symbol.
type WalkParams struct {
	Base       float64
	VolumeBase float64
	Drift      float64
	Shock      float64
}

// DefaultWalks holds per-symbol walk parameters; unknown symbols use FallbackWalk.
var DefaultWalks = map[string]WalkParams{
	"BTCUSDT": {Base: 70000, VolumeBase: 1200, Drift: 0.0001, Shock: 0.008},
	"ETHUSDT": {Base: 3500, VolumeBase: 800, Drift: 0.00012, Shock: 0.012},
}

// FallbackWalk is used for symbols missing from DefaultWalks.
var FallbackWalk = WalkParams{Base: 150, VolumeBase: 500, Drift: 0.0002, Shock: 0.02}

// SyntheticFeed generates random-walk candles. Bars are stamped at timeframe
// boundaries but emitted every Interval(tf) of wall time.
type SyntheticFeed struct {
	// Speedup compresses a bar into tf/Speedup of wall time. Zero means 20.
	Speedup int
	Walks   map[string]WalkParams
	Now     func() time.Time
	Seed    uint64
}

// NewSyntheticFeed creates a feed with the default walks.
func NewSyntheticFeed(speedup int) *SyntheticFeed {
	return &SyntheticFeed{Speedup: speedup, Walks: DefaultWalks, Now: time.Now}
}

// Interval returns the wall time between two emitted bars of tf.
func (f *SyntheticFeed) Interval(tf model.Timeframe) time.Duration {
	n := f.Speedup
	if n <= 0 {
		n = 20
	}
	return tf.Duration() / time.Duration(n)
}

func (f *SyntheticFeed) walk(symbol string) WalkParams {
	if p, ok := f.Walks[symbol]; ok {
		return p
	}
	return FallbackWalk
}

func (f *SyntheticFeed) Subscribe(symbol string, tf model.Timeframe, h Handler) func() {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	seed := f.Seed
	if seed == 0 {
		seed = uint64(now().UnixNano())
	}

	w := NewWalker(f.walk(symbol), tf, now(), rand.New(rand.NewPCG(seed, uint64(len(symbol)))))
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(f.Interval(tf))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h(w.Next())
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

// Walker produces consecutive random-walk candles for one stream.
type Walker struct {
	p         WalkParams
	step      time.Duration
	next      time.Time
	lastClose float64
	rng       *rand.Rand
}

// NewWalker starts a walk at p.Base with the first bar on the tf boundary after start.
func NewWalker(p WalkParams, tf model.Timeframe, start time.Time, rng *rand.Rand) *Walker {
	step := tf.Duration()
	return &Walker{
		p:         p,
		step:      step,
		next:      start.UTC().Truncate(step).Add(step),
		lastClose: p.Base,
		rng:       rng,
	}
}

// Next returns the next bar.
func (w *Walker) Next() model.Candle {
	open := w.lastClose
	shock := w.rng.NormFloat64() * w.p.Shock
	closePx := math.Max(1, open*(1+w.p.Drift+shock))
	high := math.Max(closePx, open) * (1 + math.Abs(w.rng.NormFloat64())*0.002)
	low := math.Min(closePx, open) * (1 - math.Abs(w.rng.NormFloat64())*0.002)
	volume := math.Max(1, w.p.VolumeBase+w.rng.NormFloat64()*w.p.VolumeBase*0.2)

	c := model.Candle{Time: w.next, Open: open, High: high, Low: low, Close: closePx, Volume: volume}
	w.lastClose = closePx
	w.next = w.next.Add(w.step)
	return c
}
