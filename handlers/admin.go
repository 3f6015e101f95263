// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/wynnextras/server/middleware"
	"github.com/wynnextras/server/models"
	"github.com/wynnextras/server/verified"
)

type AdminHandler struct {
	registry *verified.Registry
}

func NewAdminHandler(registry *verified.Registry) *AdminHandler {
	return &AdminHandler{registry: registry}
}

// ReloadVerifiedUsers handles POST /admin/reload-verified-users
func (h *AdminHandler) ReloadVerifiedUsers(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Load(r.Context()); err != nil {
		slog.Error("failed to reload verified users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reload verified users")
		return
	}

	count, err := h.registry.Count(r.Context())
	if err != nil {
		slog.Error("failed to count verified users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to count verified users")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ReloadVerifiedUsersResponse{
		Status:            models.StatusSuccess,
		Message:           "Verified users reloaded",
		VerifiedUserCount: count,
	})
}

// CountVerifiedUsers handles GET /admin/verified-users/count
func (h *AdminHandler) CountVerifiedUsers(w http.ResponseWriter, r *http.Request) {
	count, err := h.registry.Count(r.Context())
	if err != nil {
		slog.Error("failed to count verified users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to count verified users")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VerifiedUserCountResponse{
		VerifiedUserCount: count,
	})
}
