// Package main provides the entry point for the contact photo service.
//
// The service stores vCards in SQLite and serves the photo embedded in each
// card, either as the original image or as a thumbnail whose short side is a
// power of two. Thumbnails are derived on first request and kept on disk in
// one folder per contact under CACHE_DIR/photos; storing or deleting a card
// drops its folder.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables and validates directories
//  2. Database Initialization: Opens the SQLite card store
//  3. Photo Cache: Opens the blob store and selects the image codec (imaging or libvips)
//  4. HTTP Server Setup: Configures routes and middleware, and starts the servers
//  5. Graceful Shutdown: Handles SIGINT/SIGTERM and closes components in order
//
// # HTTP Server
//
// The main server (default port 8080) exposes:
//
//	GET    /api/addressbooks/{book}/cards
//	GET    /api/addressbooks/{book}/cards/{card}
//	PUT    /api/addressbooks/{book}/cards/{card}
//	DELETE /api/addressbooks/{book}/cards/{card}
//	GET    /api/addressbooks/{book}/cards/{card}/photo?size=N
//	DELETE /api/addressbooks/{book}/cards/{card}/photo
//	GET    /health, /healthz, /livez, /version
//
// The metrics server (default port 9090, optional) serves /metrics.
//
// # Build Requirements
//
// CGO is required for SQLite. libvips is needed only when IMAGE_CODEC=vips.
package main
