// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/wynnextras/server/middleware"
	"github.com/wynnextras/server/models"
)

type AspectHandler struct {
	db       *sql.DB
	verifier Verifier
}

func NewAspectHandler(db *sql.DB, verifier Verifier) *AspectHandler {
	return &AspectHandler{db: db, verifier: verifier}
}

// Upload handles POST /user
func (h *AspectHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authenticate(w, r, h.verifier)
	if !ok {
		return
	}

	// Parse request
	var req models.AspectUploadRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Aspects) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "aspects cannot be empty")
		return
	}

	// The stored name is always the verified one; the body's playerName
	// is ignored so leaderboard names cannot be spoofed.
	playerName := identity.Username

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	now := time.Now()
	for _, aspect := range req.Aspects {
		if aspect.Name == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "aspect name cannot be empty")
			return
		}

		res, err := tx.Exec(`
			UPDATE personal_aspect
			SET player_name = $1, rarity = $2, amount = $3, mod_version = $4, updated_at = $5
			WHERE player_uuid = $6 AND aspect_name = $7
		`, playerName, aspect.Rarity, aspect.Amount, req.ModVersion, now, identity.UUID, aspect.Name)
		if err != nil {
			slog.Error("failed to update aspect", "error", err, "player_uuid", identity.UUID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save aspects")
			return
		}

		affected, err := res.RowsAffected()
		if err != nil {
			slog.Error("failed to read update result", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save aspects")
			return
		}
		if affected > 0 {
			continue
		}

		_, err = tx.Exec(`
			INSERT INTO personal_aspect (player_uuid, aspect_name, player_name, rarity, amount, mod_version, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, identity.UUID, aspect.Name, playerName, aspect.Rarity, aspect.Amount, req.ModVersion, now)
		if err != nil {
			slog.Error("failed to insert aspect", "error", err, "player_uuid", identity.UUID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save aspects")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit aspect upload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save aspects")
		return
	}

	slog.Info("aspects uploaded", "player_uuid", identity.UUID, "count", len(req.Aspects))

	middleware.StatusResponse(w, http.StatusOK, models.StatusSuccess, "Aspects saved")
}

// Get handles GET /user?playerUuid=...
func (h *AspectHandler) Get(w http.ResponseWriter, r *http.Request) {
	// Rows are keyed by the normalized form, so dashed UUIDs work too
	playerUUID, ok := playerUUIDParam(w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT aspect_name, player_name, rarity, amount, mod_version, updated_at
		FROM personal_aspect
		WHERE player_uuid = $1
		ORDER BY aspect_name
	`, playerUUID)
	if err != nil {
		slog.Error("failed to query aspects", "error", err, "player_uuid", playerUUID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	resp := models.PlayerAspectsResponse{
		PlayerUUID: playerUUID,
		Aspects:    []models.AspectData{},
	}
	var lastUpdated time.Time
	for rows.Next() {
		var aspect models.AspectData
		var updatedAt time.Time
		if err := rows.Scan(&aspect.Name, &resp.PlayerName, &aspect.Rarity, &aspect.Amount, &resp.ModVersion, &updatedAt); err != nil {
			slog.Error("failed to scan aspect", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if updatedAt.After(lastUpdated) {
			lastUpdated = updatedAt
		}
		resp.Aspects = append(resp.Aspects, aspect)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate aspects", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if len(resp.Aspects) == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "No aspects for player "+playerUUID)
		return
	}

	resp.LastUpdated = lastUpdated.UnixMilli()
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Leaderboard handles GET /user/leaderboard?limit=...
func (h *AspectHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 5, 100)

	rows, err := h.db.Query(`
		SELECT player_uuid, MAX(player_name) AS player_name, MAX(amount) AS max_amount
		FROM personal_aspect
		GROUP BY player_uuid
		ORDER BY max_amount DESC
		LIMIT $1
	`, limit)
	if err != nil {
		slog.Error("failed to query aspect leaderboard", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(&entry.PlayerUUID, &entry.PlayerName, &entry.MaxAspectCount); err != nil {
			slog.Error("failed to scan leaderboard entry", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate leaderboard", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, entries)
}

// List handles GET /user/list
func (h *AspectHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT player_uuid, player_name, mod_version, updated_at
		FROM personal_aspect
	`)
	if err != nil {
		slog.Error("failed to query players", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	// Timestamp aggregates lose their column type under sqlite, so fold
	// the per-aspect rows in memory instead.
	byPlayer := make(map[string]*models.PlayerListEntry)
	latest := make(map[string]time.Time)
	for rows.Next() {
		var uuid, name, modVersion string
		var updatedAt time.Time
		if err := rows.Scan(&uuid, &name, &modVersion, &updatedAt); err != nil {
			slog.Error("failed to scan player row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		entry, present := byPlayer[uuid]
		if !present {
			entry = &models.PlayerListEntry{PlayerUUID: uuid}
			byPlayer[uuid] = entry
		}
		entry.AspectCount++
		if updatedAt.After(latest[uuid]) || !present {
			latest[uuid] = updatedAt
			entry.PlayerName = name
			entry.ModVersion = modVersion
			entry.LastUpdated = updatedAt.UnixMilli()
		}
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate players", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	entries := make([]models.PlayerListEntry, 0, len(byPlayer))
	for _, entry := range byPlayer {
		entries = append(entries, *entry)
	}
	// Most recently updated first
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastUpdated != entries[j].LastUpdated {
			return entries[i].LastUpdated > entries[j].LastUpdated
		}
		return entries[i].PlayerUUID < entries[j].PlayerUUID
	})

	middleware.JSONResponse(w, http.StatusOK, entries)
}

// parseLimit reads the limit query parameter, clamped to [1, max].
func parseLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
