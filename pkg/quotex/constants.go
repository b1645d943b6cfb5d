package quotex

import (
	"fmt"
	"time"
)

// PeriodMeta describes a candle duration accepted by the provider.
type PeriodMeta struct {
	Seconds int
	Label   string
}

// validPeriods maps candle duration in seconds to its metadata
var validPeriods = map[int]PeriodMeta{
	5:     {Seconds: 5, Label: "5s"},
	10:    {Seconds: 10, Label: "10s"},
	15:    {Seconds: 15, Label: "15s"},
	30:    {Seconds: 30, Label: "30s"},
	60:    {Seconds: 60, Label: "1m"},
	120:   {Seconds: 120, Label: "2m"},
	180:   {Seconds: 180, Label: "3m"},
	300:   {Seconds: 300, Label: "5m"},
	600:   {Seconds: 600, Label: "10m"},
	900:   {Seconds: 900, Label: "15m"},
	1800:  {Seconds: 1800, Label: "30m"},
	3600:  {Seconds: 3600, Label: "1h"},
	14400: {Seconds: 14400, Label: "4h"},
	86400: {Seconds: 86400, Label: "1d"},
}

// Duration returns the period as a time.Duration.
func (p PeriodMeta) Duration() time.Duration {
	return time.Duration(p.Seconds) * time.Second
}

// ParsePeriod validates a candle duration in seconds.
func ParsePeriod(seconds int) (PeriodMeta, error) {
	meta, ok := validPeriods[seconds]
	if !ok {
		return PeriodMeta{}, fmt.Errorf("invalid candle period: %ds", seconds)
	}
	return meta, nil
}

// CandleTopic builds the stream topic for an asset, e.g. "candles.60.EURUSD".
func CandleTopic(period int, asset string) string {
	return fmt.Sprintf("candles.%d.%s", period, asset)
}
