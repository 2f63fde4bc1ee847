// Package server provides the HTTP override panel for envmon.
//
// This package is internal to envmon and handles all HTTP concerns:
//
//   - Panel: the embedded HTML page at "/" with actuator buttons
//   - Overrides: "/actuators/{name}/{on|off}" for GET and POST
//   - REST API: JSON snapshot at "/api/state" and liveness at "/health"
//   - Server-Sent Events: live readings and actuator changes at "/api/sse"
//
// Routing uses gorilla/mux; access logging and panic recovery use
// gorilla/handlers with output routed to slog. The server supports graceful
// shutdown via context cancellation, with a 5-second timeout for in-flight
// requests.
//
// The control surface has no authentication. It is meant for a trusted
// local network.
package server
