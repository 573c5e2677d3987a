// Package metrics provides Prometheus instrumentation for the contact photo
// service. All metrics are prefixed with "contact_photos_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal: requests by method, route and status
//   - HTTPRequestDuration: request duration by method and route
//   - HTTPRequestsInFlight: requests currently being served
//
// ## Photo Cache Metrics
//   - PhotoCacheHits / PhotoCacheMisses: lookups by kind (original, variant)
//   - PhotoInitializations: folder initializations by result (photo, nophoto, unsupported)
//   - PhotoGenerations: variant derivations by status (success, uncached, error)
//   - PhotoGenerationPhaseDuration: decode, resize, encode and store timings
//   - PhotoInvalidations: folders removed after a card changed
//   - PhotoExtractionFailures: vCards whose photo could not be parsed
//
// ## Card Store Metrics
//   - DBQueryTotal / DBQueryDuration: SQLite operations by name
//
// ## Filesystem Metrics
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures,
//     FilesystemStaleErrors, FilesystemRetryDuration: NFS ESTALE retries
//
// The filesystem and photocache packages report through Observer interfaces;
// [NewFilesystemObserver] and [NewPhotoCacheObserver] connect them to the
// collectors declared here.
package metrics
