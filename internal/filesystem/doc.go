/*
Package filesystem wraps the filesystem calls used by the photo blob store
with retry logic for NFS stale file handle errors.

Cache directories are commonly mounted over NFS. When the server side
changes underneath a client, operations can fail with ESTALE (errno 116)
even though retrying a moment later succeeds. StatWithRetry, ReadFileWithRetry
and ReadDirWithRetry retry only that error with exponential backoff; every
other error is returned immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Retry attempts, successes, failures and durations are reported to the
package-level Observer set with SetObserver. The metrics package provides
the Prometheus implementation; when no observer is set nothing is recorded.
*/
package filesystem
