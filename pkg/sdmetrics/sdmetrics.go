// Package sdmetrics exports the batch executor's progress counters and API
// call duration histogram as Prometheus metrics, following
// AltairaLabs-PromptKit's runtime/metrics/prometheus package: package-level
// collectors registered into a dedicated registry, served over a trivial
// promhttp listener.
package sdmetrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sdgen"

var (
	imagesGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_generated_total",
		Help:      "Total number of images successfully generated and written.",
	})

	imagesFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_failed_total",
		Help:      "Total number of prompts that failed to produce an image, by reason.",
	}, []string{"reason"})

	apiCallDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_call_duration_seconds",
		Help:      "Duration of synthesis API calls in seconds.",
		Buckets:   []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
	})

	allMetrics = []prometheus.Collector{
		imagesGeneratedTotal,
		imagesFailedTotal,
		apiCallDuration,
	}
)

// RecordImageGenerated increments the success counter.
func RecordImageGenerated() {
	imagesGeneratedTotal.Inc()
}

// RecordImageFailed increments the failure counter, labeled by reason (one
// of the executor's failure-state names, e.g. "backend_error", "write_failure").
func RecordImageFailed(reason string) {
	imagesFailedTotal.WithLabelValues(reason).Inc()
}

// RecordAPICallDuration observes one synthesis API call's wall-clock time.
func RecordAPICallDuration(d time.Duration) {
	apiCallDuration.Observe(d.Seconds())
}

// Exporter serves the registered metrics over HTTP at /metrics.
type Exporter struct {
	addr     string
	server   *http.Server
	registry *prometheus.Registry
	mu       sync.Mutex
	started  bool
}

// NewExporter creates an Exporter bound to addr, with all sdgen metrics and
// the standard Go runtime collectors registered.
func NewExporter(addr string) *Exporter {
	reg := prometheus.NewRegistry()
	for _, c := range allMetrics {
		reg.MustRegister(c)
	}
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Exporter{addr: addr, registry: reg}
}

// Handler returns an http.Handler serving the metrics in this exporter's
// registry, for embedding into an existing mux instead of calling Start.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Start serves /metrics until Shutdown is called or the listener errors. It
// blocks, so callers run it in its own goroutine.
func (e *Exporter) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	e.server = &http.Server{Addr: e.addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	e.started = true
	e.mu.Unlock()

	return e.server.ListenAndServe()
}

// Shutdown gracefully stops the exporter's HTTP server.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.server != nil && e.started {
		e.started = false
		return e.server.Shutdown(ctx)
	}
	return nil
}
