package providers

import (
	"pickme/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncActionsTotal(kind, outcome string)
	ObserveActionDuration(kind string, duration time.Duration)
	IncAnimationsTotal(mode string)
	IncAnimationFrames(count int)
	ObserveReconcileDuration(duration time.Duration)
	SetStudentsTotal(classID string, count int)
	IncMirrorFailures(op string)
	ObservePersistenceDuration(duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	actionsTotal        *prometheus.CounterVec
	actionDuration      *prometheus.HistogramVec
	animationsTotal     *prometheus.CounterVec
	animationFrames     prometheus.Counter
	reconcileDuration   prometheus.Histogram
	studentsTotal       *prometheus.GaugeVec
	mirrorFailures      *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncActionsTotal(kind, outcome string) {
	m.actionsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *MetricsProvider) ObserveActionDuration(kind string, duration time.Duration) {
	m.actionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncAnimationsTotal(mode string) {
	m.animationsTotal.WithLabelValues(mode).Inc()
}

func (m *MetricsProvider) IncAnimationFrames(count int) {
	m.animationFrames.Add(float64(count))
}

func (m *MetricsProvider) ObserveReconcileDuration(duration time.Duration) {
	m.reconcileDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetStudentsTotal(classID string, count int) {
	m.studentsTotal.WithLabelValues(classID).Set(float64(count))
}

func (m *MetricsProvider) IncMirrorFailures(op string) {
	m.mirrorFailures.WithLabelValues(op).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}
	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pickme_status_requests_total",
			Help: "Total number of status server HTTP requests",
		}, []string{"endpoint", "status"}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pickme_status_request_duration_seconds",
			Help:    "Status server request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pickme_cache_hits_total",
			Help: "Total number of response cache hits",
		}),
		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pickme_cache_misses_total",
			Help: "Total number of response cache misses",
		}),
		actionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pickme_actions_total",
			Help: "Remote actions by kind and outcome",
		}, []string{"kind", "outcome"}),
		actionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pickme_action_duration_seconds",
			Help:    "Remote action round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		animationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pickme_animations_total",
			Help: "Reveal animations started by draw mode",
		}, []string{"mode"}),
		animationFrames: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pickme_animation_frames_total",
			Help: "Total number of animation frames shown",
		}),
		reconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pickme_reconcile_duration_seconds",
			Help:    "Duration of state normalization and index rebuild",
			Buckets: prometheus.DefBuckets,
		}),
		studentsTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pickme_students_total",
			Help: "Number of students in the active class",
		}, []string{"class"}),
		mirrorFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pickme_mirror_failures_total",
			Help: "Local mirror read/write failures",
		}, []string{"op"}),
		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pickme_persistence_duration_seconds",
			Help:    "Duration of mirror file persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncActionsTotal(_, _ string)                      {}
func (n *noopMetrics) ObserveActionDuration(_ string, _ time.Duration)  {}
func (n *noopMetrics) IncAnimationsTotal(_ string)                      {}
func (n *noopMetrics) IncAnimationFrames(_ int)                         {}
func (n *noopMetrics) ObserveReconcileDuration(_ time.Duration)         {}
func (n *noopMetrics) SetStudentsTotal(_ string, _ int)                 {}
func (n *noopMetrics) IncMirrorFailures(_ string)                       {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
