// Package metrics exposes Prometheus counters for compilation and
// expression resolution on a registry of its own.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/plangraph/internal/treecache"
)

const namespace = "plangraph"

// Recorder holds the metric vectors. It implements treecache.Observer.
type Recorder struct {
	registry *prometheus.Registry

	CacheLookups    *prometheus.CounterVec
	Resolutions     *prometheus.CounterVec
	ResolveDuration prometheus.Histogram
	Compilations    *prometheus.CounterVec
	CompiledNodes   prometheus.Gauge
	CompileWarnings prometheus.Counter
}

var _ treecache.Observer = (*Recorder)(nil)

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_cache_lookups_total",
			Help:      "Execution-tree cache lookups by operation and result.",
		}, []string{"op", "result"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Path resolutions by outcome (found, miss, error).",
		}, []string{"outcome"}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Duration of path resolutions in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		Compilations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compilations_total",
			Help:      "Pipeline compilations by status.",
		}, []string{"status"}),
		CompiledNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "compiled_nodes",
			Help:      "Number of plan nodes in the last compiled graph.",
		}),
		CompileWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compile_warnings_total",
			Help:      "Lint warnings reported while compiling.",
		}),
	}
	reg.MustRegister(
		r.CacheLookups,
		r.Resolutions,
		r.ResolveDuration,
		r.Compilations,
		r.CompiledNodes,
		r.CompileWarnings,
		collectors.NewGoCollector(),
	)
	return r
}

// CacheHit implements treecache.Observer.
func (r *Recorder) CacheHit(op treecache.Op) {
	r.CacheLookups.WithLabelValues(string(op), "hit").Inc()
}

// CacheMiss implements treecache.Observer.
func (r *Recorder) CacheMiss(op treecache.Op) {
	r.CacheLookups.WithLabelValues(string(op), "miss").Inc()
}

// ObserveResolve records one resolution.
func (r *Recorder) ObserveResolve(found bool, err error, d time.Duration) {
	outcome := "found"
	switch {
	case err != nil:
		outcome = "error"
	case !found:
		outcome = "miss"
	}
	r.Resolutions.WithLabelValues(outcome).Inc()
	r.ResolveDuration.Observe(d.Seconds())
}

// ObserveCompile records one compilation.
func (r *Recorder) ObserveCompile(nodes, warnings int, err error) {
	if err != nil {
		r.Compilations.WithLabelValues("error").Inc()
		return
	}
	r.Compilations.WithLabelValues("success").Inc()
	r.CompiledNodes.Set(float64(nodes))
	r.CompileWarnings.Add(float64(warnings))
}

// Registry returns the registry the metrics are registered on.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
