package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_photos_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_photos_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_photos_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Photo cache metrics
var (
	PhotoCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_photos_cache_hits_total",
			Help: "Photo cache hits by kind",
		},
		[]string{"kind"}, // "original", "variant"
	)

	PhotoCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_photos_cache_misses_total",
			Help: "Photo cache misses by kind",
		},
		[]string{"kind"},
	)

	PhotoInitializations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_photos_initializations_total",
			Help: "Contact folder initializations by result",
		},
		[]string{"result"}, // "photo", "nophoto", "unsupported"
	)

	PhotoGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_photos_generations_total",
			Help: "Photo variant generations by status",
		},
		[]string{"status"}, // "success", "uncached", "error"
	)

	PhotoGenerationPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_photos_generation_phase_duration_seconds",
			Help:    "Duration of each photo variant generation phase",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"phase"}, // "decode", "resize", "encode", "store"
	)

	PhotoInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_photos_invalidations_total",
			Help: "Total number of contact photo folders invalidated",
		},
	)

	PhotoExtractionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_photos_extraction_failures_total",
			Help: "Total number of vCards whose photo could not be parsed",
		},
	)
)

// Card store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_photos_db_queries_total",
			Help: "Total number of card store queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_photos_db_query_duration_seconds",
			Help:    "Card store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_photos_filesystem_retry_attempts_total",
			Help: "Filesystem operations retried after ESTALE",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_photos_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after a retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_photos_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_photos_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors observed",
		},
		[]string{"operation"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_photos_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation"},
	)
)
