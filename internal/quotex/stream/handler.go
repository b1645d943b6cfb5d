package stream

import (
	"bytes"
	"encoding/json"
	"strings"

	"streakwatch/internal/quotex/memorystore"

	"go.uber.org/zap"
)

const candleTopicPrefix = "candles."

// MakeMessageHandler returns a function that handles incoming WebSocket messages
// by parsing candle frames and storing them in memory.
func MakeMessageHandler(logger *zap.Logger, store *memorystore.MemoryCandleStore) func(msg []byte) {
	return func(msg []byte) {
		// Step 1: Extract topic string for early filtering
		var meta struct {
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal(msg, &meta); err != nil {
			logger.Warn("failed to extract topic", zap.Error(err))
			return
		}
		if !isCandleTopic(meta.Topic) {
			return // Ignore non-candle messages (e.g., subscription acks)
		}

		// Step 2: Fully parse the payload, keeping numbers exact
		var parsed CandleMessage
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		if err := dec.Decode(&parsed); err != nil {
			logger.Warn("failed to parse candle payload", zap.Error(err))
			return
		}
		asset := extractAssetFromTopic(parsed.Topic) // e.g., "candles.60.EURUSD" → "EURUSD"
		if asset == "" {
			logger.Warn("malformed candle topic", zap.String("topic", parsed.Topic))
			return
		}

		// Step 3: Store candles keyed by their open time
		for _, rec := range parsed.Data {
			ts, ok := CandleTimestamp(rec)
			if !ok {
				logger.Debug("candle without timestamp", zap.String("asset", asset))
				continue
			}
			store.Add(memorystore.CandleMemory{
				Asset:     asset,
				Timestamp: ts,
				Record:    rec,
			})
		}
	}
}

// isCandleTopic returns true if the topic string indicates a candle stream.
func isCandleTopic(topic string) bool {
	return strings.HasPrefix(topic, candleTopicPrefix)
}

// extractAssetFromTopic parses the asset from a topic like "candles.60.EURUSD".
func extractAssetFromTopic(topic string) string {
	parts := strings.SplitN(topic, ".", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return ""
}
