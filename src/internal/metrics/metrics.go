// Package metrics exposes Prometheus collectors for the proxy.
//
// All collectors live on a private registry, so several instances can coexist
// in one process (tests) and nothing leaks into the global default registry.
// Methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tinydnsproxy"

// Query results.
const (
	ResultBlocked   = "blocked"
	ResultForwarded = "forwarded"
	ResultDropped   = "dropped"
)

// Upstream error kinds.
const (
	KindConnect = "connect"
	KindTLS     = "tls"
	KindFraming = "framing"
	KindOther   = "other"
)

// Refresh results.
const (
	RefreshOK      = "ok"
	RefreshSkipped = "skipped"
	RefreshFailed  = "failed"
)

// Metrics type
type Metrics struct {
	Registry *prometheus.Registry

	queries          *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec
	blocklistDomains prometheus.Gauge
	blocklistRefresh *prometheus.CounterVec
	sourceErrors     *prometheus.CounterVec
}

// New returns metrics registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "How many DNS queries processed, by result",
			},
			[]string{"result"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Duration of DNS-over-TLS exchanges, including connect and handshake",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"provider"},
		),
		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "How many DNS-over-TLS exchanges failed, by kind",
			},
			[]string{"kind"},
		),
		blocklistDomains: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "blocklist_domains",
				Help:      "Number of domains in the active block list",
			},
		),
		blocklistRefresh: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocklist_refresh_total",
				Help:      "How many block list refresh passes ran, by result",
			},
			[]string{"result"},
		),
		sourceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocklist_source_errors_total",
				Help:      "How many times a block list source failed to sync",
			},
			[]string{"source"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.queries,
		m.upstreamDuration,
		m.upstreamErrors,
		m.blocklistDomains,
		m.blocklistRefresh,
		m.sourceErrors,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveQuery(result string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveUpstream(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) UpstreamFailed(kind string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetBlocklistDomains(n int) {
	if m == nil {
		return
	}
	m.blocklistDomains.Set(float64(n))
}

func (m *Metrics) RefreshCompleted(result string) {
	if m == nil {
		return
	}
	m.blocklistRefresh.WithLabelValues(result).Inc()
}

func (m *Metrics) SourceFailed(source string) {
	if m == nil {
		return
	}
	m.sourceErrors.WithLabelValues(source).Inc()
}
