package memorystore

import (
	"sync"
)

// DefaultCandleCapacity bounds how many streamed candles are kept per asset.
const DefaultCandleCapacity = 120

// MemoryCandleStore keeps the most recent streamed candles per asset, keyed by timestamp.
// It is written by the websocket listener and read by the polling loop.
type MemoryCandleStore struct {
	globalMu sync.RWMutex
	data     map[string]*assetCandleStore
	capacity int
}

type assetCandleStore struct {
	mu      sync.Mutex
	candles map[int64]CandleRecord
}

func NewCandleStore(capacity int) *MemoryCandleStore {
	if capacity <= 0 {
		capacity = DefaultCandleCapacity
	}
	return &MemoryCandleStore{
		data:     make(map[string]*assetCandleStore),
		capacity: capacity,
	}
}

// Add stores a candle, replacing any earlier frame with the same timestamp.
// The oldest candle is evicted once the asset exceeds the store capacity.
func (s *MemoryCandleStore) Add(c CandleMemory) {
	// Fast path: lock per-asset store only
	s.globalMu.RLock()
	store, ok := s.data[c.Asset]
	s.globalMu.RUnlock()

	if !ok {
		// Need to initialize new asset store (exclusive lock)
		s.globalMu.Lock()
		if store, ok = s.data[c.Asset]; !ok {
			store = &assetCandleStore{candles: make(map[int64]CandleRecord)}
			s.data[c.Asset] = store
		}
		s.globalMu.Unlock()
	}

	// Per-asset locking
	store.mu.Lock()
	store.candles[c.Timestamp] = c.Record
	if len(store.candles) > s.capacity {
		oldest := c.Timestamp
		for ts := range store.candles {
			if ts < oldest {
				oldest = ts
			}
		}
		delete(store.candles, oldest)
	}
	store.mu.Unlock()
}

// GetByAsset returns a copy of the candles held for an asset, or nil when none.
func (s *MemoryCandleStore) GetByAsset(asset string) map[int64]CandleRecord {
	s.globalMu.RLock()
	store, ok := s.data[asset]
	s.globalMu.RUnlock()
	if !ok {
		return nil
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if len(store.candles) == 0 {
		return nil
	}
	cp := make(map[int64]CandleRecord, len(store.candles))
	for ts, rec := range store.candles {
		cp[ts] = rec
	}
	return cp
}

// CountAll returns the total number of candles stored across all assets.
func (s *MemoryCandleStore) CountAll() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	total := 0
	for _, store := range s.data {
		store.mu.Lock()
		total += len(store.candles)
		store.mu.Unlock()
	}
	return total
}
