package memorystore

import "time"

// AlertGate suppresses repeat alerts for the same asset within a cooldown.
// Suppressed alerts are dropped, not deferred. Not safe for concurrent use.
type AlertGate struct {
	cooldown time.Duration
	last     map[string]time.Time
}

func NewAlertGate(cooldown time.Duration) *AlertGate {
	return &AlertGate{
		cooldown: cooldown,
		last:     make(map[string]time.Time),
	}
}

// ShouldFire reports whether at least the cooldown has elapsed since the last
// recorded alert for the asset. An asset that never fired always passes.
func (g *AlertGate) ShouldFire(asset string, now time.Time) bool {
	last, ok := g.last[asset]
	if !ok {
		return true
	}
	return now.Sub(last) >= g.cooldown
}

// RecordFire stores now as the asset's last alert time.
func (g *AlertGate) RecordFire(asset string, now time.Time) {
	g.last[asset] = now
}

// LastFired returns the last alert time, or the zero time if none.
func (g *AlertGate) LastFired(asset string) time.Time {
	return g.last[asset]
}
