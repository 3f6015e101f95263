// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package router wires handlers to routes on a standard library ServeMux
// using Go 1.22 method patterns. One consensus engine instance is shared
// by the three pool handlers; the verified-user registry doubles as the
// engine's trusted set and the admin handler's backing store.
package router
