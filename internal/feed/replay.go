package feed

import (
	"sort"
	"sync"

	"WeekendTrader/internal/model"
)

type streamKey struct {
	symbol string
	tf     model.Timeframe
}

type subscription struct {
	id  int
	key streamKey
	h   Handler
}

// ReplayFeed delivers a fixed candle set synchronously when Run is called.
// Used for deterministic tests and backfills.
type ReplayFeed struct {
	mu      sync.Mutex
	candles map[streamKey][]model.Candle
	subs    []subscription
	nextID  int
}

// NewReplayFeed creates an empty ReplayFeed.
func NewReplayFeed() *ReplayFeed {
	return &ReplayFeed{candles: make(map[streamKey][]model.Candle)}
}

// Add appends candles to the (symbol, tf) stream.
func (f *ReplayFeed) Add(symbol string, tf model.Timeframe, candles ...model.Candle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := streamKey{symbol, tf}
	f.candles[k] = append(f.candles[k], candles...)
}

func (f *ReplayFeed) Subscribe(symbol string, tf model.Timeframe, h Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, subscription{id: id, key: streamKey{symbol, tf}, h: h})
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

type replayItem struct {
	key streamKey
	c   model.Candle
}

// Run delivers every stored candle to the current subscribers, merged across
// streams by candle time. Ties go to the shorter timeframe, then symbol. It
// returns the number of handler calls made.
func (f *ReplayFeed) Run() int {
	f.mu.Lock()
	var items []replayItem
	for k, cs := range f.candles {
		for _, c := range cs {
			items = append(items, replayItem{key: k, c: c})
		}
	}
	f.mu.Unlock()

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.c.Time.Equal(b.c.Time) {
			return a.c.Time.Before(b.c.Time)
		}
		if a.key.tf != b.key.tf {
			return a.key.tf.Duration() < b.key.tf.Duration()
		}
		return a.key.symbol < b.key.symbol
	})

	calls := 0
	for _, it := range items {
		for _, h := range f.handlers(it.key) {
			h(it.c)
			calls++
		}
	}
	return calls
}

func (f *ReplayFeed) handlers(k streamKey) []Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	var hs []Handler
	for _, s := range f.subs {
		if s.key == k {
			hs = append(hs, s.h)
		}
	}
	return hs
}
