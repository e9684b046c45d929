// Package app wires the capboard HTTP service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, then YAML, then CAPBOARD_* env vars)
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Create the price source and the universe it is loaded for
//	4. Create the dashboard and health services
//	5. Build the chi router and its middleware chain
//	6. Create the http.Server
//
// Run starts the server and blocks until SIGINT or SIGTERM, then shuts the
// server and the telemetry providers down within Server.ShutdownTimeout.
//
// # Middleware Order
//
//	RequestID → RealIP → StripSlashes → OTel → StructuredLogger → Recoverer
//	→ SecurityHeaders → RateLimiter → (per /api) JSON content type, Timeout
//
// /metrics is registered outside the middleware group.
package app
