package stream

import "streakwatch/internal/quotex/memorystore"

// CandleMessage represents a WebSocket frame carrying candle updates.
type CandleMessage struct {
	Topic string                     `json:"topic"` // e.g., "candles.60.EURUSD"
	Data  []memorystore.CandleRecord `json:"data"`  // candle entries, field names vary by feed
	Ts    int64                      `json:"ts"`    // server send time, when present
}
