package monitor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"streakwatch/internal/metrics"
	"streakwatch/internal/quotex/memorystore"
	"streakwatch/internal/quotex/snapshot"
	"streakwatch/internal/quotex/stream"
	"streakwatch/pkg/quotex"

	"go.uber.org/zap"
)

// ErrNoInstruments is returned by Run when selection produced nothing to watch.
var ErrNoInstruments = errors.New("no instruments to monitor")

// MarketData is the market-data session the monitor polls.
type MarketData interface {
	Connect(ctx context.Context) error
	Instruments(ctx context.Context) ([]quotex.Instrument, error)
	AssetCodes(ctx context.Context) ([]string, error)
	LatestCandles(ctx context.Context, asset string) (map[int64]memorystore.CandleRecord, error)
}

// Streamer is implemented by sessions that can push candles for an asset.
type Streamer interface {
	StartStream(ctx context.Context, asset string, period int) error
}

// Notifier delivers alert text.
type Notifier interface {
	Deliver(ctx context.Context, text string) error
}

// Journal records delivered alerts. It is write-only.
type Journal interface {
	Record(ctx context.Context, a memorystore.Alert) error
}

// Options are the tunables of the polling loop.
type Options struct {
	Timeframe    int           // candle duration in seconds
	Cooldown     time.Duration // minimum spacing between alerts per asset
	PollInterval time.Duration // sleep between ticks
	WatchSize    int           // how many instruments to select
}

type Option func(*Monitor)

func WithJournal(j Journal) Option {
	return func(m *Monitor) { m.journal = j }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Monitor) { m.metrics = r }
}

// WithClock replaces the wall clock used for the cooldown gate.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor runs the polling loop. Its tracker, gate and seen map are owned by the
// goroutine calling Run or Tick and carry no locks.
type Monitor struct {
	source   MarketData
	streamer Streamer // nil when the session cannot stream
	notifier Notifier
	journal  Journal
	metrics  *metrics.Recorder
	logger   *zap.Logger
	opts     Options
	now      func() time.Time

	watch   *memorystore.WatchList
	tracker *memorystore.StreakTracker
	gate    *memorystore.AlertGate
	seen    map[string]int64 // last processed candle timestamp per asset
}

func New(source MarketData, notifier Notifier, logger *zap.Logger, opts Options, options ...Option) *Monitor {
	if opts.WatchSize <= 0 {
		opts.WatchSize = snapshot.DefaultWatchSize
	}
	m := &Monitor{
		source:   source,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
		watch:    memorystore.NewWatchList(nil),
		tracker:  memorystore.NewStreakTracker(),
		gate:     memorystore.NewAlertGate(opts.Cooldown),
		seen:     make(map[string]int64),
	}
	if s, ok := source.(Streamer); ok {
		m.streamer = s
	}
	for _, o := range options {
		o(m)
	}
	return m
}

// Start connects, selects the watch-list and starts streams. Errors are fatal.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.source.Connect(ctx); err != nil {
		return fmt.Errorf("connect to market data: %w", err)
	}
	m.logger.Info("market data session connected")

	assets := snapshot.SelectWatchList(ctx, m.source, m.opts.WatchSize, m.logger)
	if len(assets) == 0 {
		return ErrNoInstruments
	}
	m.watch = memorystore.NewWatchList(assets)
	m.logger.Info("watch-list fixed", zap.Strings("assets", assets))

	if m.streamer == nil {
		m.logger.Info("session does not stream candles, polling only")
		return nil
	}
	for _, asset := range assets {
		if err := m.streamer.StartStream(ctx, asset, m.opts.Timeframe); err != nil {
			m.logger.Warn("failed to start candle stream",
				zap.String("asset", asset),
				zap.String("kind", string(quotex.KindOf(err))),
				zap.Error(err))
			continue
		}
		m.logger.Info("candle stream started", zap.String("asset", asset), zap.Int("period", m.opts.Timeframe))
	}
	return nil
}

// Run starts the monitor and polls until ctx is cancelled, which returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}

	for {
		m.Tick(ctx)

		timer := time.NewTimer(m.opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("monitor stopped")
			return nil
		case <-timer.C:
		}
	}
}

// Tick processes every watched asset once, in watch-list order.
func (m *Monitor) Tick(ctx context.Context) {
	started := time.Now()
	for _, asset := range m.watch.All() {
		if ctx.Err() != nil {
			return
		}
		m.processAsset(ctx, asset)
	}
	m.metrics.Tick(time.Since(started))
}

// WatchList returns the assets fixed at startup.
func (m *Monitor) WatchList() []string {
	return m.watch.All()
}

func (m *Monitor) processAsset(ctx context.Context, asset string) {
	defer func() {
		if r := recover(); r != nil {
			m.metrics.Panic()
			m.logger.Error("recovered panic while processing asset",
				zap.String("asset", asset),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	candles, err := m.source.LatestCandles(ctx, asset)
	if err != nil {
		kind := string(quotex.KindOf(err))
		m.metrics.FetchError(asset, kind)
		m.logger.Warn("failed to fetch candles",
			zap.String("asset", asset), zap.String("kind", kind), zap.Error(err))
		return
	}
	if len(candles) == 0 {
		return
	}

	latestTS, latest := latestCandle(candles)
	if last, ok := m.seen[asset]; ok && last == latestTS {
		return
	}
	// marked seen before classification so a flat candle is not re-read
	m.seen[asset] = latestTS

	outcome := stream.Classify(latest)
	if outcome == memorystore.OutcomeFlat {
		return
	}

	if !m.tracker.Observe(asset, outcome) {
		return
	}
	m.metrics.Streak(asset, outcome.String())

	now := m.now()
	if !m.gate.ShouldFire(asset, now) {
		m.metrics.Alert(asset, metrics.ResultSuppressed)
		m.logger.Debug("streak suppressed by cooldown",
			zap.String("asset", asset), zap.Time("last_alert", m.gate.LastFired(asset)))
		return
	}

	alert := memorystore.Alert{
		Asset:     asset,
		Direction: outcome,
		CandleTS:  latestTS,
		Message:   FormatAlert(asset, outcome, latestTS),
	}
	if err := m.notifier.Deliver(ctx, alert.Message); err != nil {
		m.metrics.Alert(asset, metrics.ResultFailed)
		m.logger.Warn("failed to deliver alert", zap.String("asset", asset), zap.Error(err))
		return
	}

	alert.SentAt = now
	m.gate.RecordFire(asset, now)
	m.metrics.Alert(asset, metrics.ResultSent)
	m.logger.Info("streak alert sent",
		zap.String("asset", asset),
		zap.String("direction", outcome.String()),
		zap.Int64("candle_ts", latestTS))

	if m.journal != nil {
		if err := m.journal.Record(ctx, alert); err != nil {
			m.logger.Warn("failed to journal alert", zap.String("asset", asset), zap.Error(err))
		}
	}
}

// FormatAlert renders the notification text.
func FormatAlert(asset string, direction memorystore.Outcome, ts int64) string {
	dir := "UP"
	if direction == memorystore.OutcomeDown {
		dir = "DOWN"
	}
	return fmt.Sprintf("🔔 %s: %d closed candles in a row — %s\nLatest ts: %d",
		asset, memorystore.StreakLength, dir, ts)
}

func latestCandle(candles map[int64]memorystore.CandleRecord) (int64, memorystore.CandleRecord) {
	var (
		maxTS  int64
		latest memorystore.CandleRecord
		first  = true
	)
	for ts, rec := range candles {
		if first || ts > maxTS {
			maxTS, latest, first = ts, rec, false
		}
	}
	return maxTS, latest
}
