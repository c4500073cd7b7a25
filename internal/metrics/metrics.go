package metrics

import (
	"errors"
	"time"

	"github.com/mylxsw/short-link/internal/allocator"
	"github.com/prometheus/client_golang/prometheus"
)

// AllocatorObserver exports allocator events as prometheus metrics
type AllocatorObserver struct {
	latency     *prometheus.HistogramVec
	allocations *prometheus.CounterVec
	releases    *prometheus.CounterVec
	exhausted   prometheus.Counter
}

// NewAllocatorObserver create an observer and register its collectors with reg
func NewAllocatorObserver(reg prometheus.Registerer) *AllocatorObserver {
	o := &AllocatorObserver{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shortlink_allocator_operation_latency_seconds",
			Help:    "Latency of allocator operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_allocations_total",
			Help: "Identifiers handed out, by source",
		}, []string{"source"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_releases_total",
			Help: "Release calls, by status",
		}, []string{"status"}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shortlink_namespace_exhausted_total",
			Help: "Allocations rejected because the namespace is exhausted",
		}),
	}

	reg.MustRegister(o.latency, o.allocations, o.releases, o.exhausted)
	return o
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (o *AllocatorObserver) OnAllocate(source string, elapsed time.Duration, err error) {
	o.latency.WithLabelValues("allocate", status(err)).Observe(elapsed.Seconds())
	if err != nil {
		if errors.Is(err, allocator.ErrNamespaceExhausted) {
			o.exhausted.Inc()
		}
		return
	}

	o.allocations.WithLabelValues(source).Inc()
}

func (o *AllocatorObserver) OnRelease(elapsed time.Duration, err error) {
	o.latency.WithLabelValues("release", status(err)).Observe(elapsed.Seconds())
	o.releases.WithLabelValues(status(err)).Inc()
}

var _ allocator.Observer = (*AllocatorObserver)(nil)
