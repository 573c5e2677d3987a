package photocache

// Observer records cache metrics. The metrics package provides the
// Prometheus implementation.
type Observer interface {
	// kind is "original" or "variant".
	ObserveHit(kind string)
	ObserveMiss(kind string)
	// result is "photo", "nophoto" or "unsupported".
	ObserveInitialization(result string)
	// status is "success", "uncached" or "error".
	ObserveGeneration(status string)
	// phase is "decode", "resize", "encode" or "store".
	ObservePhase(phase string, durationSeconds float64)
	ObserveInvalidation()
}

type nopObserver struct{}

func (nopObserver) ObserveHit(string)            {}
func (nopObserver) ObserveMiss(string)           {}
func (nopObserver) ObserveInitialization(string) {}
func (nopObserver) ObserveGeneration(string)     {}
func (nopObserver) ObservePhase(string, float64) {}
func (nopObserver) ObserveInvalidation()         {}
