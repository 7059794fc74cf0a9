// Package server implements the HTTP API of the webhook manager.
//
// This package provides:
//   - Session-cookie login/logout/status endpoints guarding the API
//   - CRUD endpoints for stored webhook definitions
//   - The trigger endpoint that fires a stored webhook once and relays
//     status code and truncated response body
//   - Structured logging of all HTTP requests
//
// The server integrates with other packages:
//   - internal/store: SQLite-backed webhook definitions
//   - internal/session: token sessions with a 24-hour TTL
//   - internal/dispatch: the single outbound delivery attempt
//
// Error responses are JSON bodies of the form {"error": "..."} with the
// user-facing messages of the original application; timeouts map to 408,
// dispatch failures to 400, unknown ids to 404.
package server
