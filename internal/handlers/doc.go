// Package handlers provides HTTP request handlers for the contact photo API.
//
// It includes handlers for:
//   - Serving contact photos at the original size or a power-of-two thumbnail
//   - Storing and deleting vCards, which invalidates their cached photos
//   - Explicit photo cache invalidation
//   - Health checks and version information
package handlers
