package memorystore

// StreakLength is the number of identical non-flat outcomes that make a streak.
const StreakLength = 4

type outcomeWindow struct {
	outcomes [StreakLength]Outcome // oldest first
	n        int
}

// StreakTracker holds, per asset, a sliding window of the last StreakLength
// non-flat outcomes. It is owned by the polling loop and is not safe for
// concurrent use.
type StreakTracker struct {
	windows map[string]*outcomeWindow
}

func NewStreakTracker() *StreakTracker {
	return &StreakTracker{windows: make(map[string]*outcomeWindow)}
}

// Observe appends a non-flat outcome to the asset's window and reports whether
// the window now holds StreakLength identical outcomes. Flat outcomes are ignored:
// they neither extend nor reset a streak.
func (t *StreakTracker) Observe(asset string, o Outcome) bool {
	if o == OutcomeFlat {
		return false
	}

	w, ok := t.windows[asset]
	if !ok {
		w = &outcomeWindow{}
		t.windows[asset] = w
	}

	if w.n == StreakLength {
		// evict oldest
		copy(w.outcomes[:], w.outcomes[1:])
		w.outcomes[StreakLength-1] = o
	} else {
		w.outcomes[w.n] = o
		w.n++
	}

	if w.n < StreakLength {
		return false
	}
	for _, x := range w.outcomes[1:] {
		if x != w.outcomes[0] {
			return false
		}
	}
	return true
}

// Window returns a copy of the asset's outcomes, oldest first.
func (t *StreakTracker) Window(asset string) []Outcome {
	w, ok := t.windows[asset]
	if !ok {
		return nil
	}
	out := make([]Outcome, w.n)
	copy(out, w.outcomes[:w.n])
	return out
}

// Len returns how many outcomes the asset's window holds.
func (t *StreakTracker) Len(asset string) int {
	if w, ok := t.windows[asset]; ok {
		return w.n
	}
	return 0
}
