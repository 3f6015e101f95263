// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mojang

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrAuthFailed means the sessionserver rejected the handshake: the
	// client never joined with this server ID. Re-authentication required.
	ErrAuthFailed = errors.New("authentication failed - invalid session")

	// ErrTokenMismatch means a cached server ID was presented with a
	// different username than the one it was verified for.
	ErrTokenMismatch = errors.New("authentication token mismatch")

	// ErrServiceUnavailable means the sessionserver could not be reached
	// or answered outside its contract. Safe to retry.
	ErrServiceUnavailable = errors.New("authentication service unavailable")
)

// Identity is a verified player identity. UUID is normalized: dashes
// stripped, lowercase.
type Identity struct {
	UUID     string
	Username string
}

type cachedAuth struct {
	identity Identity
	at       time.Time
}

// cleanupSize is the cache size past which expired entries are swept on
// insert. A bounded-memory measure, not a hard LRU.
const cleanupSize = 500

// Client verifies players against the Mojang sessionserver's hasJoined
// endpoint and caches successful verifications by server ID. The game
// client reuses one server ID for a short burst of requests (heartbeat
// plus submissions), so the cache absorbs those retries without
// re-hitting Mojang.
type Client struct {
	baseURL string
	ttl     time.Duration
	http    *http.Client
	limiter *rate.Limiter
	cache   sync.Map // serverID -> cachedAuth
	size    atomic.Int64
	now     func() time.Time
}

// NewClient returns a verifier against the given sessionserver base URL
// (no trailing slash). ttl bounds how long a verified session is served
// from cache; it should slightly exceed the game client's own auth cache
// so a legitimate retry burst never re-authenticates.
func NewClient(baseURL string, ttl time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		now:     time.Now,
	}
}

type hasJoinedResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Verify checks that username completed the Minecraft authentication
// handshake identified by serverID.
//
// A cached verification for the same serverID is returned directly if
// the username matches (case-insensitive). A cached serverID presented
// with a DIFFERENT username fails with ErrTokenMismatch: that is a
// credential-reuse anomaly and neither claim can be trusted. Transport
// failures return ErrServiceUnavailable and are never cached, so the
// next call retries the sessionserver.
func (c *Client) Verify(ctx context.Context, username, serverID string) (Identity, error) {
	if v, ok := c.cache.Load(serverID); ok {
		cached := v.(cachedAuth)
		if c.now().Sub(cached.at) <= c.ttl {
			if strings.EqualFold(cached.identity.Username, username) {
				slog.Debug("using cached auth", "username", username)
				return cached.identity, nil
			}
			slog.Warn("server ID reuse with different username",
				"cached", cached.identity.Username, "requested", username)
			return Identity{}, ErrTokenMismatch
		}
		if _, loaded := c.cache.LoadAndDelete(serverID); loaded {
			c.size.Add(-1)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	q := url.Values{}
	q.Set("username", username)
	q.Set("serverId", serverID)
	reqURL := c.baseURL + "/session/minecraft/hasJoined?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("sessionserver request failed", "error", err)
		return Identity{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body hasJoinedResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			slog.Error("sessionserver response unreadable", "error", err)
			return Identity{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		identity := Identity{
			UUID:     NormalizeUUID(body.ID),
			Username: body.Name,
		}
		c.store(serverID, identity)
		slog.Info("authenticated player", "username", identity.Username, "uuid", identity.UUID)
		return identity, nil

	case http.StatusNoContent:
		slog.Warn("authentication failed", "username", username)
		return Identity{}, ErrAuthFailed

	default:
		slog.Error("sessionserver returned unexpected status", "status", resp.StatusCode)
		return Identity{}, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}
}

// store counts via Swap and LoadAndDelete so concurrent verifications of
// the same serverID cannot drift the size counter from the real entry
// count.
func (c *Client) store(serverID string, identity Identity) {
	if c.size.Load() > cleanupSize {
		c.evictExpired()
	}
	if _, loaded := c.cache.Swap(serverID, cachedAuth{identity: identity, at: c.now()}); !loaded {
		c.size.Add(1)
	}
}

func (c *Client) evictExpired() {
	now := c.now()
	c.cache.Range(func(key, value any) bool {
		if now.Sub(value.(cachedAuth).at) > c.ttl {
			if _, loaded := c.cache.LoadAndDelete(key); loaded {
				c.size.Add(-1)
			}
		}
		return true
	})
}

// NormalizeUUID strips dashes and lowercases a Minecraft UUID.
func NormalizeUUID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

// IsNormalizedUUID reports whether s is 32 lowercase hex characters.
func IsNormalizedUUID(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
