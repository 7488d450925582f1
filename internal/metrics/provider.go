// Package metrics exposes provider call metrics in the Prometheus format.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nexabuild-assistant/internal/domain"
	"nexabuild-assistant/internal/integrations/upstream"
)

const namespace = "nexabuild_assistant"

// ProviderMetrics tracks provider calls.
//
// Metrics:
//   - nexabuild_assistant_provider_requests_total: calls by provider, model and outcome
//   - nexabuild_assistant_provider_latency_seconds: call latency
//   - nexabuild_assistant_provider_errors_total: failures by provider and error type
type ProviderMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics. A nil registry
// gets a fresh one.
func NewProviderMetrics(registry *prometheus.Registry) *ProviderMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	pm := &ProviderMetrics{
		registry: registry,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of provider calls",
			},
			[]string{"provider", "model", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_latency_seconds",
				Help:      "Provider call latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"provider", "model"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by type",
			},
			[]string{"provider", "error_type"},
		),
	}
	registry.MustRegister(pm.requests, pm.latency, pm.errors)
	return pm
}

// ObserveProvider records one provider call.
func (pm *ProviderMetrics) ObserveProvider(provider domain.ProviderKind, model string, elapsed time.Duration, err error) {
	p := string(provider)
	pm.latency.WithLabelValues(p, model).Observe(elapsed.Seconds())
	if err == nil {
		pm.requests.WithLabelValues(p, model, "success").Inc()
		return
	}
	pm.requests.WithLabelValues(p, model, "error").Inc()
	pm.errors.WithLabelValues(p, errorType(err)).Inc()
}

// errorType buckets an error into a low-cardinality label.
func errorType(err error) string {
	if errors.Is(err, upstream.ErrMissingCredential) {
		return "config"
	}
	var upErr *upstream.Error
	if !errors.As(err, &upErr) {
		return "unknown"
	}
	switch {
	case upErr.StatusCode == 0:
		return "network"
	case upErr.StatusCode == http.StatusTooManyRequests:
		return "rate_limit"
	case upErr.StatusCode == http.StatusUnauthorized || upErr.StatusCode == http.StatusForbidden:
		return "auth"
	case upErr.StatusCode >= 500:
		return "server_error"
	default:
		return "status_" + strconv.Itoa(upErr.StatusCode)
	}
}

// Handler serves the registry for scraping.
func (pm *ProviderMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
