// Package server provides the HTTP server for the statsboard dashboard and API.
//
// This package is internal to statsboard and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded dashboard page at "/"
//   - REST API: JSON renders at "/api/widgets" and "/api/widgets/{id}"
//   - Charts: Server-side SVG line charts at "/api/widgets/{id}/chart.svg"
//   - Server-Sent Events: Draw and alert events at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
