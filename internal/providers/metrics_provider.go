package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"guildpulse/internal/structures"
)

// XP sources used as metric labels.
const (
	SourceMessage = "message"
	SourceVoice   = "voice"
	SourceManual  = "manual"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncXPAwarded(source string, amount int64)
	IncLevelUps(source string)
	IncRenames(result string)
	IncEvents(kind string)
	IncWeatherPosts(result string)
	SetDocumentRecords(document string, count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	xpAwarded           *prometheus.CounterVec
	levelUps            *prometheus.CounterVec
	renames             *prometheus.CounterVec
	events              *prometheus.CounterVec
	weatherPosts        *prometheus.CounterVec
	documentRecords     *prometheus.GaugeVec
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

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncXPAwarded(source string, amount int64) {
	if amount <= 0 {
		return
	}
	m.xpAwarded.WithLabelValues(source).Add(float64(amount))
}

func (m *MetricsProvider) IncLevelUps(source string) {
	m.levelUps.WithLabelValues(source).Inc()
}

func (m *MetricsProvider) IncRenames(result string) {
	m.renames.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) IncEvents(kind string) {
	m.events.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncWeatherPosts(result string) {
	m.weatherPosts.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) SetDocumentRecords(document string, count int) {
	m.documentRecords.WithLabelValues(document).Set(float64(count))
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

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guildpulse_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guildpulse_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guildpulse_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guildpulse_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "guildpulse_persistence_duration_seconds",
			Help:    "Duration of document writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		xpAwarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guildpulse_xp_awarded_total",
			Help: "Total XP granted, by source",
		}, []string{"source"}),

		levelUps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guildpulse_level_ups_total",
			Help: "Total number of level-ups, by source",
		}, []string{"source"}),

		renames: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guildpulse_stat_channel_renames_total",
			Help: "Stat channel rename attempts, by result",
		}, []string{"result"}),

		events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guildpulse_events_total",
			Help: "Platform events handled by the dispatcher, by kind",
		}, []string{"kind"}),

		weatherPosts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guildpulse_weather_posts_total",
			Help: "Weather digest posts, by result",
		}, []string{"result"}),

		documentRecords: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "guildpulse_document_records",
			Help: "Records in the last persisted document, by document",
		}, []string{"document"}),
	}

	return m
}

type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncXPAwarded(_ string, _ int64)                   {}
func (n *noopMetrics) IncLevelUps(_ string)                             {}
func (n *noopMetrics) IncRenames(_ string)                              {}
func (n *noopMetrics) IncEvents(_ string)                               {}
func (n *noopMetrics) IncWeatherPosts(_ string)                         {}
func (n *noopMetrics) SetDocumentRecords(_ string, _ int)               {}

// NewNoopMetrics is used by tools and tests that run without a registry.
func NewNoopMetrics() MetricsProviderInterface {
	return &noopMetrics{}
}
