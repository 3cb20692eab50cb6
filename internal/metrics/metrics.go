// Package metrics exposes Prometheus instrumentation for backtest and
// optimizer runs. All methods are nil-safe so library code can carry an
// optional *Metrics without guarding every call site.
package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the backtesting system.
type Metrics struct {
	BacktestRunsTotal prometheus.Counter
	BacktestRunDur    prometheus.Histogram

	GridCombosTotal *prometheus.CounterVec // labels: status=ok|failed
	GridSearchDur   prometheus.Histogram

	WalkForwardWindows prometheus.Counter

	BarCacheHits   prometheus.Counter
	BarCacheMisses prometheus.Counter

	registry *prometheus.Registry
}

// New registers and returns all collectors on a private registry, so
// concurrent tests and embedded uses never collide on the default one.
func New() *Metrics {
	m := &Metrics{
		BacktestRunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtester_runs_total",
			Help: "Total backtest pipeline runs executed",
		}),
		BacktestRunDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtester_run_duration_seconds",
			Help:    "Duration of a full pipeline run (indicator to metrics)",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		GridCombosTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtester_grid_combos_total",
			Help: "Grid-search combinations evaluated, by outcome",
		}, []string{"status"}),
		GridSearchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtester_grid_search_duration_seconds",
			Help:    "Duration of a whole grid search",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		WalkForwardWindows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtester_walkforward_windows_total",
			Help: "Walk-forward windows evaluated out-of-sample",
		}),
		BarCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtester_bar_cache_hits_total",
			Help: "Bar range reads served from the redis cache",
		}),
		BarCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtester_bar_cache_misses_total",
			Help: "Bar range reads that fell through to the store",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.BacktestRunsTotal,
		m.BacktestRunDur,
		m.GridCombosTotal,
		m.GridSearchDur,
		m.WalkForwardWindows,
		m.BarCacheHits,
		m.BarCacheMisses,
	)
	return m
}

// ObserveRun records one completed pipeline run.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.BacktestRunsTotal.Inc()
	m.BacktestRunDur.Observe(d.Seconds())
}

// ComboOK counts a successful grid combination.
func (m *Metrics) ComboOK() {
	if m == nil {
		return
	}
	m.GridCombosTotal.WithLabelValues("ok").Inc()
}

// ComboFailed counts a failed grid combination.
func (m *Metrics) ComboFailed() {
	if m == nil {
		return
	}
	m.GridCombosTotal.WithLabelValues("failed").Inc()
}

// ObserveGridSearch records one whole grid search.
func (m *Metrics) ObserveGridSearch(d time.Duration) {
	if m == nil {
		return
	}
	m.GridSearchDur.Observe(d.Seconds())
}

// WindowEvaluated counts one walk-forward window.
func (m *Metrics) WindowEvaluated() {
	if m == nil {
		return
	}
	m.WalkForwardWindows.Inc()
}

// CacheHit counts a bar-cache hit.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.BarCacheHits.Inc()
}

// CacheMiss counts a bar-cache miss.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.BarCacheMisses.Inc()
}

// Serve starts an HTTP server exposing /metrics on addr. Blocks.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	log.Printf("[metrics] serving /metrics on %s", addr)
	return http.ListenAndServe(addr, mux)
}
