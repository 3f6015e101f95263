// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 8080)
  - DatabaseURL: Database connection string (default: file:wynnextras.db)
  - DatabaseType: "sqlite" or "postgres" (default: sqlite)
  - VerifiedUsersFile: Path to the trusted submitter list (default: verified_users.txt)
  - SessionServerURL: Mojang sessionserver base URL (override for tests/proxies)
  - AuthCacheTTL: How long verified sessions are cached (default: 20s)
  - ApproveThreshold: Unique agreeing submitters to approve a pool (default: 3)
  - LockThreshold: Unique agreeing submitters to lock a pool (default: 10)

# Environment Variables

Flags fall back to environment variables:

	PORT                → -p
	DATABASE_URL        → -d
	DATABASE_TYPE       → -t
	VERIFIED_USERS_FILE → --verified-users
	SESSION_SERVER_URL  → --session-server
	AUTH_CACHE_TTL      → --auth-cache-ttl
	APPROVE_THRESHOLD   → --approve-threshold
	LOCK_THRESHOLD      → --lock-threshold

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if values are inconsistent:

  - DATABASE_TYPE must be sqlite or postgres
  - DATABASE_URL must be provided for postgres
  - thresholds must satisfy 1 <= approve <= lock
*/
package cliparse
