package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, kind := range []string{"original", "variant"} {
		PhotoCacheHits.WithLabelValues(kind)
		PhotoCacheMisses.WithLabelValues(kind)
	}

	for _, result := range []string{"photo", "nophoto", "unsupported"} {
		PhotoInitializations.WithLabelValues(result)
	}

	for _, status := range []string{"success", "uncached", "error"} {
		PhotoGenerations.WithLabelValues(status)
	}

	for _, phase := range []string{"decode", "resize", "encode", "store"} {
		PhotoGenerationPhaseDuration.WithLabelValues(phase)
	}

	for _, op := range []string{"stat", "read", "readdir"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
		FilesystemRetryDuration.WithLabelValues(op)
	}

	for _, op := range []string{"initialize_schema", "put_card", "get_card", "delete_card", "list_cards"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
