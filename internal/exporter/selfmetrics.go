package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// selfMetrics instruments the exporter itself: upstream failures, staleness
// omissions, cycle counts and the HTTP surface. They are served on /metrics
// alongside the ECE families so operators can tell "control plane has no
// proxies" apart from "proxy fetch is failing".
type selfMetrics struct {
	registry *prometheus.Registry

	fetchFailures *prometheus.CounterVec
	staleOmitted  *prometheus.CounterVec
	cycles        prometheus.Counter
	httpRequests  *prometheus.CounterVec
}

func newSelfMetrics() *selfMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &selfMetrics{
		registry: reg,
		fetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ece_exporter_fetch_failures_total",
			Help: "Upstream fetches that failed, by resource and failure reason.",
		}, []string{"resource", "reason"}),
		staleOmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ece_exporter_stale_family_omitted_total",
			Help: "Scrapes that omitted a resource's families because the cached copy exceeded the staleness ceiling.",
		}, []string{"resource"}),
		cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "ece_exporter_collection_cycles_total",
			Help: "Collection cycles executed against the ECE API.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ece_exporter_http_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"path", "code"}),
	}
}
