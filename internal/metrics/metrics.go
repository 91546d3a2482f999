package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

// Metrics holds the Prometheus instruments of the service on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal           *prometheus.CounterVec
	runDuration         prometheus.Histogram
	lastRunTimestamp    prometheus.Gauge
	layers              *prometheus.GaugeVec
	reconcileLayers     *prometheus.GaugeVec
	serviceOutcomes     *prometheus.CounterVec
	capabilitiesLatency *prometheus.HistogramVec
	servicesDisabled    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geoinv_runs_total",
			Help: "Inventory runs by result",
		}, []string{"result"}),

		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "geoinv_run_duration_seconds",
			Help:    "Duration of a full inventory run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
		}),

		lastRunTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "geoinv_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),

		layers: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "geoinv_layers",
			Help: "Inventory layers by state",
		}, []string{"state"}),

		reconcileLayers: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "geoinv_reconcile_layers",
			Help: "Layers per reconciliation class in the last run",
		}, []string{"class"}),

		serviceOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geoinv_service_outcomes_total",
			Help: "GetCapabilities outcomes by service and kind",
		}, []string{"service", "kind"}),

		capabilitiesLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geoinv_capabilities_duration_seconds",
			Help:    "GetCapabilities request duration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"service"}),

		servicesDisabled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geoinv_services_disabled_total",
			Help: "Services disabled by the breaker",
		}, []string{"service"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFetch records one queried pair.
func (m *Metrics) ObserveFetch(svc domain.Service, kind domain.EventKind, elapsed time.Duration) {
	m.serviceOutcomes.WithLabelValues(string(svc), string(kind)).Inc()
	if kind == domain.EventOK {
		m.capabilitiesLatency.WithLabelValues(string(svc)).Observe(elapsed.Seconds())
	}
}

// ObserveRun records a completed run and the resulting inventory.
func (m *Metrics) ObserveRun(s domain.RunSummary, counts domain.InventoryCounts) {
	m.runsTotal.WithLabelValues("ok").Inc()
	m.runDuration.Observe(s.Duration.Seconds())
	m.lastRunTimestamp.Set(float64(s.Finished.Unix()))

	m.layers.WithLabelValues("available").Set(float64(counts.Available))
	m.layers.WithLabelValues("missing").Set(float64(counts.Missing))
	m.layers.WithLabelValues("removed").Set(float64(counts.Removed))

	r := s.Reconcile
	m.reconcileLayers.WithLabelValues("added").Set(float64(r.Added))
	m.reconcileLayers.WithLabelValues("added_undated").Set(float64(r.AddedUndated))
	m.reconcileLayers.WithLabelValues("present").Set(float64(r.Present))
	m.reconcileLayers.WithLabelValues("reappeared").Set(float64(r.Reappeared))
	m.reconcileLayers.WithLabelValues("missing").Set(float64(r.Missing))
	m.reconcileLayers.WithLabelValues("removed").Set(float64(r.Removed))

	for _, p := range s.Disabled {
		m.servicesDisabled.WithLabelValues(string(p.Service)).Inc()
	}
}

// RunFailed counts a run that aborted before writing its artifacts.
func (m *Metrics) RunFailed() {
	m.runsTotal.WithLabelValues("error").Inc()
}
