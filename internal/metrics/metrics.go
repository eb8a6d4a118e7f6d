// Package metrics holds the Prometheus collectors for crawling and browser usage.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "noticeboard"

type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	SectionsTotal   *prometheus.CounterVec
	NoticesUpserted prometheus.Counter
	DetectionsTotal *prometheus.CounterVec
	SessionsInUse   prometheus.Gauge
}

// New creates and registers the collectors on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "runs_total",
			Help:      "Crawl runs by trigger and outcome.",
		}, []string{"trigger", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "run_duration_seconds",
			Help:      "Duration of crawl runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"trigger"}),
		SectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "sections_total",
			Help:      "Sections crawled by outcome.",
		}, []string{"status"}),
		NoticesUpserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "notices_upserted_total",
			Help:      "Notices written to the store.",
		}),
		DetectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "detections_total",
			Help:      "Layout detections by assigned variant.",
		}, []string{"variant"}),
		SessionsInUse: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "browser",
			Name:      "sessions_in_use",
			Help:      "Browser sessions currently open.",
		}),
	}
}

// NewNop returns collectors registered on a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
