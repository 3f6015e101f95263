// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wynnextras/server/middleware"
	"github.com/wynnextras/server/mojang"
)

// Verifier confirms a Minecraft identity from the client's session
// handshake. Implemented by mojang.Client; tests substitute fakes.
type Verifier interface {
	Verify(ctx context.Context, username, serverID string) (mojang.Identity, error)
}

// authenticate resolves the Username and Server-ID headers to a verified
// identity. On failure it writes the error response and returns ok=false.
func authenticate(w http.ResponseWriter, r *http.Request, verifier Verifier) (mojang.Identity, bool) {
	username := r.Header.Get("Username")
	serverID := r.Header.Get("Server-ID")

	if username == "" || serverID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Authentication required: provide Username + Server-ID headers")
		return mojang.Identity{}, false
	}

	identity, err := verifier.Verify(r.Context(), username, serverID)
	if err != nil {
		switch {
		case errors.Is(err, mojang.ErrAuthFailed), errors.Is(err, mojang.ErrTokenMismatch):
			middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication failed - invalid Mojang session")
		case errors.Is(err, mojang.ErrServiceUnavailable):
			slog.Warn("mojang verification unavailable", "username", username, "error", err)
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Authentication service unavailable, try again later")
		default:
			slog.Error("mojang verification failed", "username", username, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Authentication error")
		}
		return mojang.Identity{}, false
	}

	return identity, true
}
