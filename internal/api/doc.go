// Package api implements the HTTP control surface and WebSocket event
// stream for the ulink sender.
//
// This package provides:
//   - REST endpoints to start, stop and inspect a transmission
//   - An encode preview that returns the address sequence without sending
//   - Transmission history when the database is enabled
//   - A WebSocket hub that relays controller lifecycle events
//   - Optional JWT bearer authentication
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Security
//
// When security.jwt.secret is set every route except /health requires an
// HS256 bearer token. Browsers cannot set headers on a WebSocket upgrade,
// so /ws also accepts the token in the "token" query parameter.
//
// Payload bytes are never logged; request logs carry only method, path,
// status and timing.
package api
