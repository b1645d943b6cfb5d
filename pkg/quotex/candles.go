package quotex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"streakwatch/internal/quotex/memorystore"

	"github.com/shopspring/decimal"
)

// ParseCandleMap converts the provider's string-keyed candle mapping into one keyed
// by timestamp. A single malformed key fails the whole mapping.
func ParseCandleMap(raw map[string]memorystore.CandleRecord) (map[int64]memorystore.CandleRecord, error) {
	out := make(map[int64]memorystore.CandleRecord, len(raw))
	for key, rec := range raw {
		ts, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("candle key %q: %w", key, err)
		}
		out[ts] = rec
	}
	return out, nil
}

// parsePayout reads a payout that may be a JSON number, a numeric string, null or absent.
// Missing and empty payouts count as zero; ok is false for anything non-numeric.
func parsePayout(raw json.RawMessage) (decimal.Decimal, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, true
	}

	var s string
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return decimal.Decimal{}, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, true
		}
	} else {
		s = string(trimmed)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
