package recorder

import (
	"sync"

	"WeekendTrader/internal/logger"
)

// Async forwards records to an inner Recorder on a background goroutine.
// When the buffer is full, records are dropped and counted.
type Async struct {
	inner   Recorder
	ch      chan func(Recorder) error
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.Mutex
	closed  bool
	dropped int
	log     *logger.Logger
}

// NewAsync starts the forwarding goroutine.
func NewAsync(inner Recorder, buffer int, log *logger.Logger) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	if log == nil {
		log = logger.Nop()
	}
	a := &Async{inner: inner, ch: make(chan func(Recorder) error, buffer), log: log}
	a.wg.Add(1)
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer a.wg.Done()
	for fn := range a.ch {
		if err := fn(a.inner); err != nil {
			a.log.Error("record failed", "error", err)
		}
	}
}

func (a *Async) enqueue(fn func(Recorder) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	select {
	case a.ch <- fn:
	default:
		a.dropped++
		a.log.Warn("recorder buffer full, dropping record", "dropped", a.dropped)
	}
}

func (a *Async) RecordTradeEvent(evt *TradeEvent) error {
	a.enqueue(func(r Recorder) error { return r.RecordTradeEvent(evt) })
	return nil
}

func (a *Async) RecordAccount(snap *AccountSnapshot) error {
	a.enqueue(func(r Recorder) error { return r.RecordAccount(snap) })
	return nil
}

// Dropped returns how many records were discarded on a full buffer.
func (a *Async) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Close drains pending records and closes the inner recorder.
func (a *Async) Close() error {
	var err error
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()
		a.wg.Wait()
		err = a.inner.Close()
	})
	return err
}
