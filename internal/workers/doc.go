// Package workers sizes concurrency limits from the CPUs the container may
// use.
//
// runtime.NumCPU reports host CPUs even when a cgroup limit applies; Go 1.19+
// sets GOMAXPROCS from that limit, so counts here are derived from
// GOMAXPROCS instead. Every count can be overridden through an environment
// variable, for example PHOTO_WORKERS for thumbnail derivation.
package workers
