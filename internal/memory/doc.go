// Package memory sets the Go soft memory limit (GOMEMLIMIT) from the
// container's memory limit.
//
// Kubernetes exposes the limit through the Downward API; pass it as
// MEMORY_LIMIT (bytes). The Go heap gets MEMORY_RATIO of it (default 0.85),
// leaving the rest for libvips buffers and goroutine stacks. An explicit
// GOMEMLIMIT always wins.
package memory
