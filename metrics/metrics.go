// Package metrics exposes the service's Prometheus metrics. They are served
// on a separate listener so the metrics port never has to be public.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service records into. Constructed once
// and injected; the collectors live on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Groth16TimeSecs    prometheus.Histogram
	WitnessGenTimeSecs prometheus.Histogram

	RequestsTotal       *prometheus.CounterVec
	RequestDurationSecs *prometheus.HistogramVec

	JwkFetchesTotal *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Groth16TimeSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prover_groth16_time_secs",
			Help:    "Time to run Groth16 in seconds",
			Buckets: []float64{1, 2, 3, 4, 5, 10, 20},
		}),
		WitnessGenTimeSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prover_witness_gen_time_secs",
			Help:    "Time to generate the witness in seconds",
			Buckets: []float64{0.5, 1, 2, 3, 4, 5, 10, 20},
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prover_requests_total",
			Help: "Number of HTTP requests by path and status",
		}, []string{"path", "status"}),
		RequestDurationSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prover_request_duration_secs",
			Help:    "HTTP request duration in seconds by path",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		JwkFetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prover_jwk_fetches_total",
			Help: "Number of JWK fetches by issuer and outcome",
		}, []string{"issuer", "outcome"}),
	}

	registry.MustRegister(
		m.Groth16TimeSecs,
		m.WitnessGenTimeSecs,
		m.RequestsTotal,
		m.RequestDurationSecs,
		m.JwkFetchesTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return mux
}
