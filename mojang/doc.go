// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package mojang verifies player identities via the Mojang sessionserver.

# Authentication Flow

The mod client performs the standard Minecraft join handshake, then sends
its username and the handshake's server ID with each API request. Verify
confirms the pair against sessionserver's hasJoined endpoint:

	client := mojang.NewClient(cfg.SessionServerURL, cfg.AuthCacheTTL)
	identity, err := client.Verify(ctx, username, serverID)

On success the returned Identity carries the authoritative username and
the normalized UUID (dashes stripped, lowercase).

# Caching and Replay Safety

Successful verifications are cached by server ID for a bounded TTL,
because the client reuses one handshake for a short burst of requests and
the sessionserver is rate-sensitive. Two rules keep the cache safe:

  - A cached server ID presented with a different username fails closed
    with ErrTokenMismatch. Neither the cached nor the new claim wins.
  - Transport errors and unexpected statuses are never cached, so a
    transient outage does not pin a bogus result.

Once the cache exceeds 500 entries, expired entries are swept on the
next insert.

# Error Taxonomy

	ErrAuthFailed         - sessionserver said no (204); re-authenticate
	ErrTokenMismatch      - server ID reuse across usernames; fail closed
	ErrServiceUnavailable - transport/oracle failure; retryable

Outbound calls carry a 10s timeout and pass through a rate limiter
(golang.org/x/time/rate) so a stampede of cold clients cannot hammer
Mojang.
*/
package mojang
