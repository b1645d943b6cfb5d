package memorystore

import "time"

// CandleRecord is a single candle exactly as the provider delivered it.
// Field names vary between feeds (e.g., "open", "o", "O"), so the record is kept
// untyped and interpreted by the classifier.
type CandleRecord map[string]any

// CandleMemory represents a candle with an attached asset code.
// Typically constructed by combining topic metadata (e.g., "candles.60.EURUSD") with the candle payload.
type CandleMemory struct {
	Asset     string       `json:"asset"`     // Asset code (e.g., "EURUSD")
	Timestamp int64        `json:"timestamp"` // Candle open time (seconds since epoch), used as the dedup key
	Record    CandleRecord `json:"record"`    // Raw candle fields
}

// Outcome is the direction of a closed candle.
type Outcome int

const (
	OutcomeFlat Outcome = iota // close == open, or prices unreadable
	OutcomeUp                  // close > open
	OutcomeDown                // close < open
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUp:
		return "up"
	case OutcomeDown:
		return "down"
	default:
		return "flat"
	}
}

// Alert is a streak notification that passed the cooldown gate.
type Alert struct {
	Asset     string
	Direction Outcome
	CandleTS  int64     // timestamp of the candle that completed the streak
	Message   string    // text handed to the notifier
	SentAt    time.Time // wall-clock time of delivery
}
