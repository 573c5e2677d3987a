package memory

import (
	"math"
	"runtime/debug"
	"strconv"

	"contact-photos/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go heap.
const DefaultMemoryRatio = 0.85

// Sources of a configured limit.
const (
	SourceGoMemLimit  = "GOMEMLIMIT"
	SourceMemoryLimit = "MEMORY_LIMIT"
	SourceNone        = "none"
)

// Limit reports how the memory limit was chosen.
type Limit struct {
	Source         string
	ContainerBytes int64
	GoBytes        int64
	Ratio          float64
}

// Configured reports whether a limit is in effect.
func (l Limit) Configured() bool {
	return l.Source != SourceNone
}

// Configure applies the memory limit described by the environment. getenv
// is normally os.Getenv. Call it early in main, before large allocations.
func Configure(getenv func(string) string) Limit {
	if explicit := getenv("GOMEMLIMIT"); explicit != "" {
		// The runtime has already parsed it; read it back
		current := debug.SetMemoryLimit(-1)
		if current > 0 && current < math.MaxInt64 {
			logging.Info("GOMEMLIMIT set via environment: %s", explicit)
			return Limit{Source: SourceGoMemLimit, GoBytes: current}
		}
		logging.Warn("GOMEMLIMIT %q was not accepted by the runtime", explicit)
		return Limit{Source: SourceNone}
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return Limit{Source: SourceNone}
	}
	container, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || container <= 0 {
		logging.Warn("Failed to parse MEMORY_LIMIT %q", raw)
		return Limit{Source: SourceNone}
	}

	ratio := parseRatio(getenv("MEMORY_RATIO"))
	goBytes := int64(float64(container) * ratio)
	debug.SetMemoryLimit(goBytes)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		FormatBytes(goBytes), ratio*100, FormatBytes(container))

	return Limit{
		Source:         SourceMemoryLimit,
		ContainerBytes: container,
		GoBytes:        goBytes,
		Ratio:          ratio,
	}
}

func parseRatio(raw string) float64 {
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q must be in (0, 1], using default %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// FormatBytes renders b with a binary unit, e.g. "1.5 GiB".
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
