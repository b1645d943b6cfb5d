package memorystore

// WatchList is the fixed, ordered set of assets monitored for the process lifetime.
type WatchList struct {
	symbols []string
}

func NewWatchList(symbols []string) *WatchList {
	out := make([]string, len(symbols))
	copy(out, symbols)
	return &WatchList{symbols: out}
}

func (w *WatchList) All() []string {
	out := make([]string, len(w.symbols))
	copy(out, w.symbols)
	return out
}

func (w *WatchList) Len() int {
	return len(w.symbols)
}
