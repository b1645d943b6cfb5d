package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"streakwatch/internal/metrics"
	"streakwatch/internal/quotex/memorystore"
	"streakwatch/pkg/quotex"
	"streakwatch/pkg/storage/memory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeSession struct {
	connectErr  error
	instruments []quotex.Instrument
	codes       []string
	candles     map[string]map[int64]memorystore.CandleRecord
	fetchErr    map[string]error
	panicOn     string
	fetches     map[string]int
}

func newFakeSession(assets ...string) *fakeSession {
	f := &fakeSession{
		candles:  make(map[string]map[int64]memorystore.CandleRecord),
		fetchErr: make(map[string]error),
		fetches:  make(map[string]int),
	}
	for i, a := range assets {
		f.instruments = append(f.instruments, quotex.Instrument{Symbol: a, Payout: decimal.NewFromInt(int64(90 - i))})
	}
	return f
}

func (f *fakeSession) Connect(ctx context.Context) error { return f.connectErr }

func (f *fakeSession) Instruments(ctx context.Context) ([]quotex.Instrument, error) {
	return f.instruments, nil
}

func (f *fakeSession) AssetCodes(ctx context.Context) ([]string, error) { return f.codes, nil }

func (f *fakeSession) LatestCandles(ctx context.Context, asset string) (map[int64]memorystore.CandleRecord, error) {
	f.fetches[asset]++
	if asset == f.panicOn {
		panic("boom")
	}
	if err := f.fetchErr[asset]; err != nil {
		return nil, err
	}
	return f.candles[asset], nil
}

// push makes ts the newest candle served for asset.
func (f *fakeSession) push(asset string, ts int64, o memorystore.Outcome) {
	rec := memorystore.CandleRecord{"open": 1.0, "close": 1.0}
	switch o {
	case memorystore.OutcomeUp:
		rec["close"] = 1.5
	case memorystore.OutcomeDown:
		rec["close"] = 0.5
	}
	if f.candles[asset] == nil {
		f.candles[asset] = make(map[int64]memorystore.CandleRecord)
	}
	f.candles[asset][ts] = rec
}

type streamingSession struct {
	*fakeSession
	started []string
	failOn  string
}

func (s *streamingSession) StartStream(ctx context.Context, asset string, period int) error {
	if asset == s.failOn {
		return &quotex.FetchError{Op: "start stream", Kind: quotex.KindNetwork, Err: errors.New("refused")}
	}
	s.started = append(s.started, asset)
	return nil
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) Deliver(ctx context.Context, text string) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, text)
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func defaultOptions() Options {
	return Options{Timeframe: 60, Cooldown: 300 * time.Second, PollInterval: time.Millisecond}
}

func startedMonitor(t *testing.T, src MarketData, n Notifier, clock *fakeClock, opts ...Option) *Monitor {
	t.Helper()
	opts = append(opts, WithClock(clock.Now))
	m := New(src, n, zap.NewNop(), defaultOptions(), opts...)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	return m
}

// go test -v --run TestFourDownCandlesAlertOnce
func TestFourDownCandlesAlertOnce(t *testing.T) {
	src := newFakeSession("EURUSD")
	n := &recordingNotifier{}
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	journal := memory.NewMemoryJournal(0)
	m := startedMonitor(t, src, n, clock, WithJournal(journal))
	ctx := context.Background()

	for i, ts := range []int64{100, 200, 300, 400} {
		src.push("EURUSD", ts, memorystore.OutcomeDown)
		m.Tick(ctx)
		if i < 3 && len(n.messages) != 0 {
			t.Fatalf("alert sent after %d candles", i+1)
		}
		clock.Advance(time.Second)
	}
	if len(n.messages) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(n.messages))
	}
	want := "🔔 EURUSD: 4 closed candles in a row — DOWN\nLatest ts: 400"
	if n.messages[0] != want {
		t.Errorf("message = %q, want %q", n.messages[0], want)
	}

	// 5th down candle 10s later: window still all down, cooldown active
	clock.Advance(10 * time.Second)
	src.push("EURUSD", 500, memorystore.OutcomeDown)
	m.Tick(ctx)
	if len(n.messages) != 1 {
		t.Fatalf("cooldown should suppress the 5th candle, got %d alerts", len(n.messages))
	}

	// once the cooldown elapsed a persisting streak alerts again
	clock.Advance(300 * time.Second)
	src.push("EURUSD", 600, memorystore.OutcomeDown)
	m.Tick(ctx)
	if len(n.messages) != 2 {
		t.Fatalf("expected a second alert after cooldown, got %d", len(n.messages))
	}

	alerts := journal.Alerts()
	if len(alerts) != 2 || alerts[0].CandleTS != 400 || alerts[0].Direction != memorystore.OutcomeDown {
		t.Errorf("unexpected journal %+v", alerts)
	}
}

// go test -v --run TestDuplicateTimestampIgnored
func TestDuplicateTimestampIgnored(t *testing.T) {
	src := newFakeSession("EURUSD")
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := startedMonitor(t, src, &recordingNotifier{}, clock)
	ctx := context.Background()

	src.push("EURUSD", 100, memorystore.OutcomeUp)
	m.Tick(ctx)
	m.Tick(ctx)
	m.Tick(ctx)

	if got := m.tracker.Len("EURUSD"); got != 1 {
		t.Fatalf("same candle observed %d times", got)
	}
	if m.seen["EURUSD"] != 100 {
		t.Errorf("seen = %d, want 100", m.seen["EURUSD"])
	}
	if src.fetches["EURUSD"] != 3 {
		t.Errorf("expected a fetch per tick, got %d", src.fetches["EURUSD"])
	}
}

// go test -v --run TestFlatCandleMarkedSeen
func TestFlatCandleMarkedSeen(t *testing.T) {
	src := newFakeSession("EURUSD")
	n := &recordingNotifier{}
	m := startedMonitor(t, src, n, &fakeClock{t: time.Unix(0, 0)})
	ctx := context.Background()

	seq := []memorystore.Outcome{
		memorystore.OutcomeUp, memorystore.OutcomeUp, memorystore.OutcomeFlat,
		memorystore.OutcomeUp, memorystore.OutcomeUp,
	}
	for i, o := range seq {
		src.push("EURUSD", int64(i+1)*60, o)
		m.Tick(ctx)
	}

	if m.seen["EURUSD"] != 300 {
		t.Fatalf("seen = %d, want 300", m.seen["EURUSD"])
	}
	if len(n.messages) != 1 {
		t.Fatalf("flat must not break the up streak, got %d alerts", len(n.messages))
	}
	if m.tracker.Len("EURUSD") != 4 {
		t.Errorf("window length = %d, want 4", m.tracker.Len("EURUSD"))
	}
}

// go test -v --run TestFetchFailureSkipsAsset
func TestFetchFailureSkipsAsset(t *testing.T) {
	src := newFakeSession("EURUSD", "GBPUSD")
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	m := startedMonitor(t, src, &recordingNotifier{}, &fakeClock{t: time.Unix(0, 0)}, WithMetrics(rec))
	ctx := context.Background()

	src.fetchErr["EURUSD"] = &quotex.FetchError{Op: "get candles", Kind: quotex.KindNetwork, Err: errors.New("timeout")}
	src.push("EURUSD", 100, memorystore.OutcomeUp)
	src.push("GBPUSD", 100, memorystore.OutcomeUp)
	m.Tick(ctx)

	if _, ok := m.seen["EURUSD"]; ok {
		t.Error("failed fetch must leave state untouched")
	}
	if m.tracker.Len("GBPUSD") != 1 {
		t.Error("other assets keep being processed")
	}

	// recovers on the next tick
	delete(src.fetchErr, "EURUSD")
	m.Tick(ctx)
	if m.tracker.Len("EURUSD") != 1 {
		t.Error("asset should be processed once the fetch succeeds")
	}
	if got := m.WatchList(); len(got) != 2 {
		t.Errorf("watch-list changed: %v", got)
	}
}

// go test -v --run TestDeliveryFailureLeavesGateUnarmed
func TestDeliveryFailureLeavesGateUnarmed(t *testing.T) {
	src := newFakeSession("EURUSD")
	n := &recordingNotifier{err: errors.New("telegram down")}
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	journal := memory.NewMemoryJournal(0)
	m := startedMonitor(t, src, n, clock, WithJournal(journal))
	ctx := context.Background()

	for i := int64(1); i <= 4; i++ {
		src.push("EURUSD", i*60, memorystore.OutcomeUp)
		m.Tick(ctx)
	}
	if !m.gate.LastFired("EURUSD").IsZero() {
		t.Fatal("failed delivery must not arm the cooldown")
	}
	if journal.Len() != 0 {
		t.Error("failed delivery must not be journaled")
	}

	// next streak candle goes through immediately
	n.err = nil
	clock.Advance(time.Second)
	src.push("EURUSD", 300, memorystore.OutcomeUp)
	m.Tick(ctx)
	if len(n.messages) != 1 {
		t.Fatalf("expected delivery once the sink recovers, got %d", len(n.messages))
	}
	if !m.gate.LastFired("EURUSD").Equal(clock.Now()) {
		t.Error("successful delivery should arm the cooldown")
	}
}

// go test -v --run TestPanicIsolatedToAsset
func TestPanicIsolatedToAsset(t *testing.T) {
	src := newFakeSession("EURUSD", "GBPUSD", "USDJPY")
	src.panicOn = "GBPUSD"
	m := startedMonitor(t, src, &recordingNotifier{}, &fakeClock{t: time.Unix(0, 0)})

	src.push("EURUSD", 100, memorystore.OutcomeDown)
	src.push("USDJPY", 100, memorystore.OutcomeDown)
	m.Tick(context.Background())

	if m.tracker.Len("EURUSD") != 1 || m.tracker.Len("USDJPY") != 1 {
		t.Fatal("a panicking asset must not abort the tick")
	}
}

// go test -v --run TestStartFailures
func TestStartFailures(t *testing.T) {
	src := newFakeSession("EURUSD")
	src.connectErr = &quotex.FetchError{Op: "login", Kind: quotex.KindAuth, Err: errors.New("denied")}
	m := New(src, &recordingNotifier{}, zap.NewNop(), defaultOptions())
	err := m.Run(context.Background())
	if !errors.Is(err, quotex.ErrAuth) {
		t.Fatalf("expected wrapped connect error, got %v", err)
	}

	empty := newFakeSession()
	m = New(empty, &recordingNotifier{}, zap.NewNop(), defaultOptions())
	if err := m.Run(context.Background()); !errors.Is(err, ErrNoInstruments) {
		t.Fatalf("expected ErrNoInstruments, got %v", err)
	}
}

// go test -v --run TestStreamsStartedPerAsset
func TestStreamsStartedPerAsset(t *testing.T) {
	src := &streamingSession{fakeSession: newFakeSession("EURUSD", "GBPUSD", "USDJPY", "AUDCAD"), failOn: "GBPUSD"}
	m := New(src, &recordingNotifier{}, zap.NewNop(), defaultOptions())

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("stream failure must not be fatal: %v", err)
	}
	if got := strings.Join(src.started, ","); got != "EURUSD,USDJPY" {
		t.Errorf("streams started for %s", got)
	}
	if got := m.WatchList(); len(got) != 3 || got[0] != "EURUSD" {
		t.Errorf("unexpected watch-list %v", got)
	}
}

// go test -v --run TestRunStopsOnCancel
func TestRunStopsOnCancel(t *testing.T) {
	src := newFakeSession("EURUSD")
	m := New(src, &recordingNotifier{}, zap.NewNop(), Options{Timeframe: 60, PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
