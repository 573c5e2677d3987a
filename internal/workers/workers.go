package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns GOMAXPROCS scaled by multiplier, at least 1 and at most
// limit (0 means no cap). A positive integer in the envKey variable replaces
// the computed value; the cap still applies.
func Count(envKey string, multiplier float64, limit int) int {
	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if envKey != "" {
		if n, err := strconv.Atoi(os.Getenv(envKey)); err == nil && n > 0 {
			workers = n
		}
	}

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU returns a count for CPU-bound work such as image decoding.
func ForCPU(envKey string, limit int) int {
	return Count(envKey, 1.0, limit)
}

// ForIO returns a count for work that mostly waits on storage.
func ForIO(envKey string, limit int) int {
	return Count(envKey, 2.0, limit)
}
