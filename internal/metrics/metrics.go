package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "streakwatch"

// Alert delivery results.
const (
	ResultSent       = "sent"
	ResultSuppressed = "suppressed"
	ResultFailed     = "failed"
)

// Recorder holds the monitor's counters. A nil *Recorder is a no-op.
type Recorder struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	fetchErrors  *prometheus.CounterVec
	streaks      *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	panics       prometheus.Counter
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ticks_total", Help: "Polling ticks completed",
		}),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "tick_duration_seconds", Help: "Time spent processing one tick",
			Buckets: prometheus.DefBuckets,
		}),
		fetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_errors_total", Help: "Candle fetch failures by kind",
		}, []string{"asset", "kind"}),
		streaks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "streaks_total", Help: "Streaks detected",
		}, []string{"asset", "direction"}),
		alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "alerts_total", Help: "Streak alerts by result",
		}, []string{"asset", "result"}),
		panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "asset_panics_total", Help: "Recovered panics while processing an asset",
		}),
	}
}

func (r *Recorder) Tick(d time.Duration) {
	if r == nil {
		return
	}
	r.ticks.Inc()
	r.tickDuration.Observe(d.Seconds())
}

func (r *Recorder) FetchError(asset, kind string) {
	if r == nil {
		return
	}
	r.fetchErrors.WithLabelValues(asset, kind).Inc()
}

func (r *Recorder) Streak(asset, direction string) {
	if r == nil {
		return
	}
	r.streaks.WithLabelValues(asset, direction).Inc()
}

func (r *Recorder) Alert(asset, result string) {
	if r == nil {
		return
	}
	r.alerts.WithLabelValues(asset, result).Inc()
}

func (r *Recorder) Panic() {
	if r == nil {
		return
	}
	r.panics.Inc()
}

// Serve exposes /metrics for g on addr in the background. Listener failures,
// such as a port already in use, are logged.
func Serve(addr string, g prometheus.Gatherer, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return srv
}
