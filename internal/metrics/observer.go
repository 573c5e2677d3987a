package metrics

import (
	"contact-photos/internal/filesystem"
	"contact-photos/internal/photocache"
)

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem retry
// metrics.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveRetryAttempt(op string) {
	FilesystemRetryAttempts.WithLabelValues(op).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(op string) {
	FilesystemRetrySuccess.WithLabelValues(op).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(op string) {
	FilesystemRetryFailures.WithLabelValues(op).Inc()
}

func (o *filesystemObserver) ObserveRetryDuration(op string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(op).Observe(durationSeconds)
}

func (o *filesystemObserver) ObserveStaleError(op string) {
	FilesystemStaleErrors.WithLabelValues(op).Inc()
}

// photoCacheObserver implements photocache.Observer.
type photoCacheObserver struct{}

// NewPhotoCacheObserver creates an observer that records photo cache metrics.
func NewPhotoCacheObserver() photocache.Observer {
	return &photoCacheObserver{}
}

func (o *photoCacheObserver) ObserveHit(kind string) {
	PhotoCacheHits.WithLabelValues(kind).Inc()
}

func (o *photoCacheObserver) ObserveMiss(kind string) {
	PhotoCacheMisses.WithLabelValues(kind).Inc()
}

func (o *photoCacheObserver) ObserveInitialization(result string) {
	PhotoInitializations.WithLabelValues(result).Inc()
}

func (o *photoCacheObserver) ObserveGeneration(status string) {
	PhotoGenerations.WithLabelValues(status).Inc()
}

func (o *photoCacheObserver) ObservePhase(phase string, durationSeconds float64) {
	PhotoGenerationPhaseDuration.WithLabelValues(phase).Observe(durationSeconds)
}

func (o *photoCacheObserver) ObserveInvalidation() {
	PhotoInvalidations.Inc()
}
