// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package handlers implements the HTTP endpoints.
//
// The consensus endpoints (lootpool, lootrun, gambit) are thin: they
// validate the subject, authenticate the submitter against Mojang,
// canonicalize the body, and delegate to the consensus engine. The
// remaining handlers (personal aspects, mod users, achievements, admin)
// are simple keyed storage over database/sql.
//
// Authentication is the Minecraft session handshake: the client sends
// its Username and Server-ID headers, and the shared authenticate helper
// resolves them through a Verifier. Auth failures map to 401, an
// unreachable sessionserver maps to 503 so clients know to retry.
package handlers
