package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTradeEvent(_ *TradeEvent) error   { return nil }
func (n *NoopRecorder) RecordAccount(_ *AccountSnapshot) error { return nil }
func (n *NoopRecorder) Close() error                           { return nil }
