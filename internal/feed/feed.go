package feed

import "WeekendTrader/internal/model"

// Handler receives closed candles for one (symbol, timeframe) stream.
type Handler func(c model.Candle)

// CandleFeed delivers closed candles. Candles of one subscription arrive in
// time order and never concurrently. The returned function unsubscribes and
// returns only after any in-flight handler call has finished.
type CandleFeed interface {
	Subscribe(symbol string, tf model.Timeframe, h Handler) (unsubscribe func())
}
