// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package middleware provides HTTP middleware and response helpers.
//
// WithLogging logs each request with latency and the client IP, resolving
// the IP through X-Forwarded-For and X-Real-IP so the values stay useful
// behind a reverse proxy. JSONResponse, ErrorResponse, and StatusResponse
// are the shared encoders every handler writes through; ErrorResponse uses
// the error/message shape and StatusResponse uses the status/message
// envelope the mod client parses on submissions. CORS allows cross-origin
// reads of the public pool endpoints.
package middleware
