// Package metrics exposes Prometheus counters and histograms for generation
// calls on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values for the mode label.
const (
	ModeGenerate = "generate"
	ModeStream   = "stream"
)

type Metrics struct {
	registry *prometheus.Registry

	requestsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	tokensTotal   *prometheus.CounterVec
	streamChunks  *prometheus.CounterVec
	latencyMs     *prometheus.HistogramVec
}

func New() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unillm_requests_total",
			Help: "Generation calls by provider, mode and finish reason.",
		}, []string{"provider", "mode", "finish_reason"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unillm_errors_total",
			Help: "Failed generation calls by provider, mode and canonical error kind.",
		}, []string{"provider", "mode", "kind"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unillm_tokens_total",
			Help: "Reported token usage by provider and direction.",
		}, []string{"provider", "direction"}),
		streamChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unillm_stream_chunks_total",
			Help: "Canonical stream chunks delivered by provider and chunk type.",
		}, []string{"provider", "type"}),
		latencyMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "unillm_request_latency_ms",
			Help:    "Generation latency in milliseconds, up to the final result for streams.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		}, []string{"provider", "mode"}),
	}
	r.MustRegister(m.requestsTotal, m.errorsTotal, m.tokensTotal, m.streamChunks, m.latencyMs)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed call.
func (m *Metrics) ObserveRequest(provider, mode, finishReason string, dur time.Duration) {
	m.requestsTotal.WithLabelValues(provider, mode, finishReason).Inc()
	m.latencyMs.WithLabelValues(provider, mode).Observe(float64(dur.Milliseconds()))
}

// ObserveError records one failed call.
func (m *Metrics) ObserveError(provider, mode, kind string, dur time.Duration) {
	m.errorsTotal.WithLabelValues(provider, mode, kind).Inc()
	m.latencyMs.WithLabelValues(provider, mode).Observe(float64(dur.Milliseconds()))
}

// ObserveTokens adds prompt and completion token counts. Negative or zero
// counts are ignored.
func (m *Metrics) ObserveTokens(provider string, prompt, completion int) {
	if prompt > 0 {
		m.tokensTotal.WithLabelValues(provider, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		m.tokensTotal.WithLabelValues(provider, "completion").Add(float64(completion))
	}
}

// ObserveChunk counts one delivered stream chunk.
func (m *Metrics) ObserveChunk(provider, chunkType string) {
	m.streamChunks.WithLabelValues(provider, chunkType).Inc()
}
