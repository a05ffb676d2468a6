// Package metrics constructs the metrics the application will track.
package metrics

import (
	"context"
	"net/http"
	"runtime"
	"sync/atomic"

	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "painel"

// This holds the single instance of the metrics value needed for
// collecting metrics. Prometheus collectors are safe for concurrent use.
var m metrics

type metrics struct {
	registry    *prometheus.Registry
	requests    prometheus.Counter
	errors      prometheus.Counter
	panics      prometheus.Counter
	goroutines  prometheus.Gauge
	transitions *prometheus.CounterVec
	swept       *prometheus.CounterVec
	seen        atomic.Int64
}

func init() {
	m.registry = prometheus.NewRegistry()

	m.requests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total HTTP requests handled.",
	})

	m.errors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total HTTP requests that ended in an error.",
	})

	m.panics = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "panics_total",
		Help:      "Total panics recovered by the middleware.",
	})

	m.goroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "goroutines",
		Help:      "Goroutines sampled every hundred requests.",
	})

	m.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscription_transitions_total",
		Help:      "Subscription transitions by target status.",
	}, []string{"status"})

	m.swept = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscription_swept_total",
		Help:      "Branches moved by the expiry sweep by rule.",
	}, []string{"rule"})

	m.registry.MustRegister(
		m.requests,
		m.errors,
		m.panics,
		m.goroutines,
		m.transitions,
		m.swept,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// AddGoroutines refreshes the goroutine metric every 100 requests.
func AddGoroutines(ctx context.Context) int64 {
	if m.seen.Load()%100 == 0 {
		g := int64(runtime.NumGoroutine())
		m.goroutines.Set(float64(g))
		return g
	}

	return 0
}

// AddRequests increments the request metric by 1.
func AddRequests(ctx context.Context) int64 {
	m.requests.Inc()
	return m.seen.Add(1)
}

// AddErrors increments the errors metric by 1.
func AddErrors(ctx context.Context) {
	m.errors.Inc()
}

// AddPanics increments the panics metric by 1.
func AddPanics(ctx context.Context) {
	m.panics.Inc()
}

// =============================================================================

// Subscriptions counts subscription activity. It satisfies the observer the
// subscription core reports to.
type Subscriptions struct{}

// Transition records a branch moving to a status.
func (Subscriptions) Transition(ctx context.Context, t subscriptionbus.Tenant) {
	m.transitions.WithLabelValues(t.Subscription.Status.String()).Inc()
}

// Swept records what a sweep run changed.
func (Subscriptions) Swept(ctx context.Context, res subscriptionbus.SweepResult) {
	m.swept.WithLabelValues("trial_expired").Add(float64(res.Suspended))
	m.swept.WithLabelValues("past_due").Add(float64(res.PastDue))
}
