// Package middleware provides HTTP middleware for the contact photo service.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Request metrics labelled by mux route template
//   - gzip compression for vCard and JSON responses
package middleware
