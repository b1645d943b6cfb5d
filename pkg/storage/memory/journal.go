package memory

import (
	"context"
	"sync"

	"streakwatch/internal/quotex/memorystore"
)

// DefaultJournalCapacity bounds how many alerts MemoryJournal keeps.
const DefaultJournalCapacity = 256

// MemoryJournal keeps the most recent delivered alerts in process memory. It is
// the journal used when the database journal is disabled, and is dropped on exit.
type MemoryJournal struct {
	mu       sync.Mutex
	alerts   []memorystore.Alert
	capacity int
	total    int
}

func NewMemoryJournal(capacity int) *MemoryJournal {
	if capacity <= 0 {
		capacity = DefaultJournalCapacity
	}
	return &MemoryJournal{
		alerts:   make([]memorystore.Alert, 0),
		capacity: capacity,
	}
}

// Record appends an alert, evicting the oldest once the journal is full.
func (m *MemoryJournal) Record(ctx context.Context, a memorystore.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.alerts) == m.capacity {
		copy(m.alerts, m.alerts[1:])
		m.alerts = m.alerts[:len(m.alerts)-1]
	}
	m.alerts = append(m.alerts, a)
	m.total++
	return nil
}

// Alerts returns the retained alerts, oldest first.
func (m *MemoryJournal) Alerts() []memorystore.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to avoid race
	out := make([]memorystore.Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

func (m *MemoryJournal) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

// Total counts every alert recorded, including evicted ones.
func (m *MemoryJournal) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}
