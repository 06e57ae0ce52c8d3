// Package metrics provides Prometheus metrics export for the chat pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports chat metrics in Prometheus format.
// A nil *PrometheusExporter is valid and records nothing.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Chat metrics
	chatLatency  *prometheus.HistogramVec
	chatRequests *prometheus.CounterVec
	chatActive   prometheus.Gauge

	// LLM metrics
	llmTokensUsed *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
	llmErrors     *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.chatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geminichat",
			Name:      "chat_latency_seconds",
			Help:      "End-to-end chat turn latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model"},
	)

	e.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geminichat",
			Name:      "chat_requests_total",
			Help:      "Total number of chat turns by resulting format",
		},
		[]string{"model", "format", "status"},
	)

	e.chatActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "geminichat",
			Name:      "chat_active",
			Help:      "Number of chat turns currently in flight",
		},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geminichat",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geminichat",
			Name:      "llm_latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model", "provider"},
	)

	e.llmErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geminichat",
			Name:      "llm_errors_total",
			Help:      "Total number of failed LLM calls",
		},
		[]string{"model", "provider"},
	)

	registry.MustRegister(
		e.chatLatency,
		e.chatRequests,
		e.chatActive,
		e.llmTokensUsed,
		e.llmLatency,
		e.llmErrors,
	)

	return e
}

// RecordChatRequest records one finished chat turn.
func (e *PrometheusExporter) RecordChatRequest(model, format string, latency time.Duration, success bool) {
	if e == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}

	e.chatRequests.WithLabelValues(model, format, status).Inc()
	e.chatLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// ChatStarted increments the in-flight gauge.
func (e *PrometheusExporter) ChatStarted() {
	if e == nil {
		return
	}
	e.chatActive.Inc()
}

// ChatFinished decrements the in-flight gauge.
func (e *PrometheusExporter) ChatFinished() {
	if e == nil {
		return
	}
	e.chatActive.Dec()
}

// RecordLLMCall records latency and token usage of one provider call.
func (e *PrometheusExporter) RecordLLMCall(model, provider string, latency time.Duration, promptTokens, completionTokens int) {
	if e == nil {
		return
	}
	e.llmLatency.WithLabelValues(model, provider).Observe(latency.Seconds())
	if promptTokens > 0 {
		e.llmTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		e.llmTokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
}

// RecordLLMError records a failed provider call.
func (e *PrometheusExporter) RecordLLMError(model, provider string) {
	if e == nil {
		return
	}
	e.llmErrors.WithLabelValues(model, provider).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
