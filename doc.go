// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the WynnExtras API server.

The server collects crowd-sourced Wynncraft data from mod clients: weekly
raid aspect pools, weekly lootrun camp loot pools, and daily gambits. A
submission only becomes the served "approved" pool once enough distinct
players report the identical content, so no single client can poison the
data. Submitters are identified through the Minecraft session handshake
against Mojang's sessionserver.

# Starting the Server

The server runs on sqlite out of the box:

	go run .

Or against PostgreSQL:

	DATABASE_TYPE=postgres DATABASE_URL=postgres://... go run .

# Configuration

Optional settings (flags or environment):

  - PORT (-p): Server port (default: 8080)
  - DATABASE_TYPE (-t): "sqlite" or "postgres" (default: sqlite)
  - DATABASE_URL (-d): Connection string or sqlite path
  - VERIFIED_USERS_FILE (--verified-users): Trusted submitter allowlist
  - SESSION_SERVER_URL (--session-server): Mojang sessionserver base URL
  - AUTH_CACHE_TTL (--auth-cache-ttl): Session verification cache TTL
  - APPROVE_THRESHOLD (--approve-threshold): Distinct submitters to approve
  - LOCK_THRESHOLD (--lock-threshold): Distinct submitters to lock

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (pools, gambits, aspects, users, achievements)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - consensus: The approval engine and payload canonicalization
  - timeutil: Reset schedules and period identifiers
  - mojang: Session verification with a replay-safe cache
  - verified: Trusted submitter registry
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
