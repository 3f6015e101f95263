// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/wynnextras/server/middleware"
	"github.com/wynnextras/server/models"
)

// activeWindow bounds how recent a heartbeat must be for a user to count
// as active.
const activeWindow = 7 * 24 * time.Hour

type UserHandler struct {
	db       *sql.DB
	verifier Verifier
}

func NewUserHandler(db *sql.DB, verifier Verifier) *UserHandler {
	return &UserHandler{db: db, verifier: verifier}
}

// Heartbeat handles POST /wynnextras-users/heartbeat
func (h *UserHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	identity, ok := authenticate(w, r, h.verifier)
	if !ok {
		return
	}

	// Parse request
	var req models.HeartbeatRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	now := time.Now()
	res, err := h.db.Exec(`
		UPDATE mod_user
		SET username = $1, mod_version = $2, last_seen = $3
		WHERE uuid = $4
	`, identity.Username, req.ModVersion, now, identity.UUID)
	if err != nil {
		slog.Error("failed to update mod user", "error", err, "uuid", identity.UUID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record heartbeat")
		return
	}

	affected, err := res.RowsAffected()
	if err != nil {
		slog.Error("failed to read update result", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record heartbeat")
		return
	}

	if affected == 0 {
		_, err = h.db.Exec(`
			INSERT INTO mod_user (uuid, username, mod_version, created_at, last_seen)
			VALUES ($1, $2, $3, $4, $5)
		`, identity.UUID, identity.Username, req.ModVersion, now, now)
		if err != nil {
			slog.Error("failed to insert mod user", "error", err, "uuid", identity.UUID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record heartbeat")
			return
		}
		slog.Info("mod user registered", "uuid", identity.UUID, "username", identity.Username)
	}

	middleware.StatusResponse(w, http.StatusOK, models.StatusSuccess, "Heartbeat recorded")
}

// Active handles GET /wynnextras-users/active
func (h *UserHandler) Active(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().Add(-activeWindow)

	rows, err := h.db.Query(`
		SELECT uuid FROM mod_user WHERE last_seen > $1 ORDER BY uuid
	`, cutoff)
	if err != nil {
		slog.Error("failed to query active users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	uuids := []string{}
	for rows.Next() {
		var uuid string
		if err := rows.Scan(&uuid); err != nil {
			slog.Error("failed to scan active user", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		uuids = append(uuids, uuid)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate active users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ActiveUsersResponse{
		UUIDs: uuids,
		Count: len(uuids),
	})
}

// ActiveDetails handles GET /wynnextras-users/active/details
func (h *UserHandler) ActiveDetails(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().Add(-activeWindow)

	rows, err := h.db.Query(`
		SELECT uuid, username, mod_version, last_seen
		FROM mod_user
		WHERE last_seen > $1
		ORDER BY last_seen DESC
	`, cutoff)
	if err != nil {
		slog.Error("failed to query active users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	users := []models.UserInfo{}
	for rows.Next() {
		var user models.UserInfo
		var lastSeen time.Time
		if err := rows.Scan(&user.UUID, &user.Username, &user.ModVersion, &lastSeen); err != nil {
			slog.Error("failed to scan active user", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		user.LastSeen = lastSeen.UnixMilli()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate active users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ActiveUserDetailsResponse{
		Users: users,
		Count: len(users),
	})
}

// Stats handles GET /wynnextras-users/stats
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().Add(-activeWindow)

	var active, total int64
	err := h.db.QueryRow(`
		SELECT COUNT(*) FROM mod_user WHERE last_seen > $1
	`, cutoff).Scan(&active)
	if err == nil {
		err = h.db.QueryRow(`SELECT COUNT(*) FROM mod_user`).Scan(&total)
	}
	if err != nil {
		slog.Error("failed to query user stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UserStatsResponse{
		ActiveUsers:         active,
		TotalUsers:          total,
		ActiveThresholdDays: int(activeWindow / (24 * time.Hour)),
	})
}
