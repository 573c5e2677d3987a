package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
		{"PhotoCacheHits", PhotoCacheHits},
		{"PhotoCacheMisses", PhotoCacheMisses},
		{"PhotoInitializations", PhotoInitializations},
		{"PhotoGenerations", PhotoGenerations},
		{"PhotoGenerationPhaseDuration", PhotoGenerationPhaseDuration},
		{"PhotoInvalidations", PhotoInvalidations},
		{"PhotoExtractionFailures", PhotoExtractionFailures},
		{"DBQueryTotal", DBQueryTotal},
		{"DBQueryDuration", DBQueryDuration},
		{"FilesystemRetryAttempts", FilesystemRetryAttempts},
		{"FilesystemRetryDuration", FilesystemRetryDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsDoesNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("InitializeMetrics panicked: %v", r)
		}
	}()
	InitializeMetrics()
	InitializeMetrics()
}

func TestPhotoCacheObserver(t *testing.T) {
	obs := NewPhotoCacheObserver()

	beforeHits := testutil.ToFloat64(PhotoCacheHits.WithLabelValues("variant"))
	obs.ObserveHit("variant")
	if got := testutil.ToFloat64(PhotoCacheHits.WithLabelValues("variant")); got != beforeHits+1 {
		t.Errorf("variant hits = %v, want %v", got, beforeHits+1)
	}

	beforeInits := testutil.ToFloat64(PhotoInitializations.WithLabelValues("nophoto"))
	obs.ObserveInitialization("nophoto")
	if got := testutil.ToFloat64(PhotoInitializations.WithLabelValues("nophoto")); got != beforeInits+1 {
		t.Errorf("nophoto initializations = %v, want %v", got, beforeInits+1)
	}

	beforeInval := testutil.ToFloat64(PhotoInvalidations)
	obs.ObserveInvalidation()
	if got := testutil.ToFloat64(PhotoInvalidations); got != beforeInval+1 {
		t.Errorf("invalidations = %v, want %v", got, beforeInval+1)
	}

	obs.ObservePhase("decode", 0.01)
	obs.ObserveMiss("original")
	obs.ObserveGeneration("uncached")
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat"))
	obs.ObserveStaleError("stat")
	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat")); got != before+1 {
		t.Errorf("stale errors = %v, want %v", got, before+1)
	}

	obs.ObserveRetryAttempt("read")
	obs.ObserveRetrySuccess("read")
	obs.ObserveRetryFailure("readdir")
	obs.ObserveRetryDuration("stat", 0.002)
}
