package stream

import (
	"encoding/json"
	"math"
	"strings"

	"streakwatch/internal/quotex/memorystore"

	"github.com/shopspring/decimal"
)

var (
	openKeys  = []string{"open", "o", "O"}
	closeKeys = []string{"close", "c", "C"}
	timeKeys  = []string{"time", "t", "timestamp"}
)

// Classify maps a raw candle to its outcome. Missing or non-numeric prices yield
// OutcomeFlat; it never fails.
func Classify(rec memorystore.CandleRecord) memorystore.Outcome {
	open, ok := priceField(rec, openKeys)
	if !ok {
		return memorystore.OutcomeFlat
	}
	closePrice, ok := priceField(rec, closeKeys)
	if !ok {
		return memorystore.OutcomeFlat
	}

	switch closePrice.Cmp(open) {
	case 1:
		return memorystore.OutcomeUp
	case -1:
		return memorystore.OutcomeDown
	default:
		return memorystore.OutcomeFlat
	}
}

// CandleTimestamp reads the candle open time from a streamed frame.
func CandleTimestamp(rec memorystore.CandleRecord) (int64, bool) {
	raw, ok := lookup(rec, timeKeys)
	if !ok {
		return 0, false
	}
	d, ok := toDecimal(raw)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}

func priceField(rec memorystore.CandleRecord, keys []string) (decimal.Decimal, bool) {
	raw, ok := lookup(rec, keys)
	if !ok {
		return decimal.Decimal{}, false
	}
	return toDecimal(raw)
}

// lookup returns the first present, non-nil, non-empty value among keys.
func lookup(rec memorystore.CandleRecord, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(x), true
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt32(x), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint32:
		return decimal.NewFromInt(int64(x)), true
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}
