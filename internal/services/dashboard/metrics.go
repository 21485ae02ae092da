package dashboard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// Metrics collects the dashboard's Prometheus series. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	cycles         *prometheus.CounterVec
	ticksSkipped   *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	fetchDuration  *prometheus.HistogramVec
	fetchErrors    *prometheus.CounterVec
	staleDiscarded *prometheus.CounterVec
	connectivity   prometheus.Gauge
	datasets       *prometheus.GaugeVec
	breakerState   *prometheus.GaugeVec
	sinkDrops      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_refresh_cycles_total",
			Help: "Refresh cycles completed, by what started them.",
		}, []string{"trigger"}),
		ticksSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_ticks_skipped_total",
			Help: "Refresh requests dropped because a cycle was still running.",
		}, []string{"trigger"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_refresh_cycle_duration_seconds",
			Help:    "Duration of a full refresh cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_api_request_duration_seconds",
			Help:    "Duration of backend API requests by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_api_errors_total",
			Help: "Failed backend API requests by endpoint and kind.",
		}, []string{"endpoint", "kind"}),
		staleDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_stale_results_discarded_total",
			Help: "Results dropped because a newer cycle already rendered.",
		}, []string{"dimension"}),
		connectivity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_connected",
			Help: "1 when the last statistics fetch succeeded, 0 otherwise.",
		}),
		datasets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_chart_datasets",
			Help: "Datasets currently plotted per chart.",
		}, []string{"chart"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_api_breaker_state",
			Help: "Circuit breaker state per endpoint (0 closed, 1 half-open, 2 open).",
		}, []string{"endpoint"}),
		sinkDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_sink_batches_dropped_total",
			Help: "Snapshot batches dropped because the sink queue was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.cycles,
			m.ticksSkipped,
			m.cycleDuration,
			m.fetchDuration,
			m.fetchErrors,
			m.staleDiscarded,
			m.connectivity,
			m.datasets,
			m.breakerState,
			m.sinkDrops,
		)
	}
	return m
}

func (m *Metrics) cycleDone(trigger string, d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(trigger).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) tickSkipped(trigger string) {
	if m == nil {
		return
	}
	m.ticksSkipped.WithLabelValues(trigger).Inc()
}

func (m *Metrics) fetch(endpoint string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	if err != nil {
		m.fetchErrors.WithLabelValues(endpoint, errorKind(err)).Inc()
	}
}

func (m *Metrics) stale(dimension string) {
	if m == nil {
		return
	}
	m.staleDiscarded.WithLabelValues(dimension).Inc()
}

func (m *Metrics) datasetCount(chart string, n int) {
	if m == nil {
		return
	}
	m.datasets.WithLabelValues(chart).Set(float64(n))
}

func (m *Metrics) breaker(endpoint string, st gobreaker.State) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(endpoint).Set(float64(st))
}

func (m *Metrics) sinkDropped() {
	if m == nil {
		return
	}
	m.sinkDrops.Inc()
}

// ConnectivityChanged implements ConnectivityObserver.
func (m *Metrics) ConnectivityChanged(c Connectivity) {
	if m == nil {
		return
	}
	if c == Connected {
		m.connectivity.Set(1)
	} else {
		m.connectivity.Set(0)
	}
}
