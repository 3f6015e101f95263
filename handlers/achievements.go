// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wynnextras/server/middleware"
	"github.com/wynnextras/server/models"
	"github.com/wynnextras/server/mojang"
)

type AchievementHandler struct {
	db       *sql.DB
	verifier Verifier
}

func NewAchievementHandler(db *sql.DB, verifier Verifier) *AchievementHandler {
	return &AchievementHandler{db: db, verifier: verifier}
}

// Sync handles POST /achievements
func (h *AchievementHandler) Sync(w http.ResponseWriter, r *http.Request) {
	identity, ok := authenticate(w, r, h.verifier)
	if !ok {
		return
	}

	// Parse request
	var req models.AchievementSyncRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Achievements) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "achievements cannot be empty")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	now := time.Now()
	for _, a := range req.Achievements {
		if a.ID == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "achievement id cannot be empty")
			return
		}

		if err := upsertAchievement(tx, identity.UUID, a, now); err != nil {
			slog.Error("failed to save achievement", "error", err, "player_uuid", identity.UUID, "achievement_id", a.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save achievements")
			return
		}
	}

	// Recount from the full stored set, not just this sync's batch.
	stats, err := recountStats(tx, identity.UUID)
	if err != nil {
		slog.Error("failed to recount achievement stats", "error", err, "player_uuid", identity.UUID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save achievements")
		return
	}

	if err := upsertPlayerStats(tx, identity.UUID, identity.Username, req.ModVersion, stats, now); err != nil {
		slog.Error("failed to save achievement stats", "error", err, "player_uuid", identity.UUID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save achievements")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit achievement sync", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save achievements")
		return
	}

	slog.Info("achievements synced", "player_uuid", identity.UUID, "count", len(req.Achievements), "total_points", stats.TotalPoints)

	middleware.JSONResponse(w, http.StatusOK, models.AchievementSyncResponse{
		Status:  models.StatusSuccess,
		Message: "Achievements synced",
		Stats:   stats,
	})
}

func upsertAchievement(tx *sql.Tx, playerUUID string, a models.AchievementData, now time.Time) error {
	unlockedAt := millisToTime(a.UnlockedAt)
	tierUpgradedAt := millisToTime(a.TierUpgradedAt)

	res, err := tx.Exec(`
		UPDATE player_achievement
		SET category = $1, progress = $2, tier = $3, unlocked = $4, unlocked_at = $5, tier_upgraded_at = $6, updated_at = $7
		WHERE player_uuid = $8 AND achievement_id = $9
	`, a.Category, a.Progress, a.Tier, a.Unlocked, unlockedAt, tierUpgradedAt, now, playerUUID, a.ID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	_, err = tx.Exec(`
		INSERT INTO player_achievement (player_uuid, achievement_id, category, progress, tier, unlocked, unlocked_at, tier_upgraded_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, playerUUID, a.ID, a.Category, a.Progress, a.Tier, a.Unlocked, unlockedAt, tierUpgradedAt, now)
	return err
}

// recountStats rebuilds the aggregate counters from every stored
// achievement. Points: bronze 1, silver 2, gold 3.
func recountStats(tx *sql.Tx, playerUUID string) (models.SyncStats, error) {
	rows, err := tx.Query(`
		SELECT tier, unlocked FROM player_achievement WHERE player_uuid = $1
	`, playerUUID)
	if err != nil {
		return models.SyncStats{}, err
	}
	defer rows.Close()

	var stats models.SyncStats
	for rows.Next() {
		var tier sql.NullString
		var unlocked bool
		if err := rows.Scan(&tier, &unlocked); err != nil {
			return models.SyncStats{}, err
		}
		if !unlocked {
			continue
		}
		stats.Unlocked++
		switch strings.ToUpper(tier.String) {
		case "BRONZE":
			stats.Bronze++
		case "SILVER":
			stats.Silver++
		case "GOLD":
			stats.Gold++
		}
	}
	if err := rows.Err(); err != nil {
		return models.SyncStats{}, err
	}

	stats.TotalPoints = stats.Bronze + stats.Silver*2 + stats.Gold*3
	return stats, nil
}

func upsertPlayerStats(tx *sql.Tx, playerUUID, playerName, modVersion string, stats models.SyncStats, now time.Time) error {
	res, err := tx.Exec(`
		UPDATE achievement_player
		SET player_name = $1, total_points = $2, unlocked_count = $3, gold_count = $4, silver_count = $5, bronze_count = $6, mod_version = $7, last_synced_at = $8
		WHERE uuid = $9
	`, playerName, stats.TotalPoints, stats.Unlocked, stats.Gold, stats.Silver, stats.Bronze, modVersion, now, playerUUID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	_, err = tx.Exec(`
		INSERT INTO achievement_player (uuid, player_name, total_points, unlocked_count, gold_count, silver_count, bronze_count, mod_version, last_synced_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, playerUUID, playerName, stats.TotalPoints, stats.Unlocked, stats.Gold, stats.Silver, stats.Bronze, modVersion, now, now)
	return err
}

// playerUUIDParam reads and normalizes the playerUuid query parameter.
// Writes the error response itself when the parameter is missing or
// malformed.
func playerUUIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("playerUuid")
	if raw == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "playerUuid is required")
		return "", false
	}
	normalized := mojang.NormalizeUUID(raw)
	if !mojang.IsNormalizedUUID(normalized) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid UUID format")
		return "", false
	}
	return normalized, true
}

// Get handles GET /achievements?playerUuid=...
func (h *AchievementHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerUUID, ok := playerUUIDParam(w, r)
	if !ok {
		return
	}

	resp := models.PlayerAchievementsResponse{PlayerUUID: playerUUID}
	err := h.db.QueryRow(`
		SELECT player_name, total_points FROM achievement_player WHERE uuid = $1
	`, playerUUID).Scan(&resp.PlayerName, &resp.TotalPoints)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "No achievements for player "+playerUUID)
		return
	}
	if err != nil {
		slog.Error("failed to query achievement player", "error", err, "player_uuid", playerUUID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT achievement_id, category, progress, tier, unlocked, unlocked_at, tier_upgraded_at
		FROM player_achievement
		WHERE player_uuid = $1
		ORDER BY achievement_id
	`, playerUUID)
	if err != nil {
		slog.Error("failed to query achievements", "error", err, "player_uuid", playerUUID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	resp.Achievements = []models.PlayerAchievement{}
	for rows.Next() {
		var a models.PlayerAchievement
		var tier sql.NullString
		if err := rows.Scan(&a.ID, &a.Category, &a.Progress, &tier, &a.Unlocked, &a.UnlockedAt, &a.TierUpgradedAt); err != nil {
			slog.Error("failed to scan achievement", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if tier.Valid {
			a.Tier = &tier.String
		}
		resp.Achievements = append(resp.Achievements, a)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate achievements", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Leaderboard handles GET /achievements/leaderboard?limit=...&sortBy=...
// sortBy is points (default), gold or unlocked.
func (h *AchievementHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 100)

	var order string
	switch r.URL.Query().Get("sortBy") {
	case "gold":
		order = "gold_count"
	case "unlocked":
		order = "unlocked_count"
	default:
		order = "total_points"
	}

	rows, err := h.db.Query(`
		SELECT uuid, player_name, total_points, unlocked_count, gold_count, silver_count, bronze_count
		FROM achievement_player
		ORDER BY `+order+` DESC, uuid
		LIMIT $1
	`, limit)
	if err != nil {
		slog.Error("failed to query achievement leaderboard", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	entries := []models.AchievementLeaderboardEntry{}
	for rows.Next() {
		var entry models.AchievementLeaderboardEntry
		if err := rows.Scan(&entry.PlayerUUID, &entry.PlayerName, &entry.TotalPoints, &entry.Unlocked, &entry.Gold, &entry.Silver, &entry.Bronze); err != nil {
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

// Player handles GET /achievements/player?playerUuid=... - the stats
// summary without the full achievement list.
func (h *AchievementHandler) Player(w http.ResponseWriter, r *http.Request) {
	playerUUID, ok := playerUUIDParam(w, r)
	if !ok {
		return
	}

	var summary models.AchievementPlayerSummary
	var lastSynced time.Time
	err := h.db.QueryRow(`
		SELECT uuid, player_name, total_points, unlocked_count, gold_count, silver_count, bronze_count, last_synced_at
		FROM achievement_player
		WHERE uuid = $1
	`, playerUUID).Scan(&summary.PlayerUUID, &summary.PlayerName, &summary.TotalPoints,
		&summary.Unlocked, &summary.Gold, &summary.Silver, &summary.Bronze, &lastSynced)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "No achievements for player "+playerUUID)
		return
	}
	if err != nil {
		slog.Error("failed to query achievement player", "error", err, "player_uuid", playerUUID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	summary.LastSynced = lastSynced.UnixMilli()
	middleware.JSONResponse(w, http.StatusOK, summary)
}

// Players handles GET /achievements/players - every player with synced
// achievements, best first.
func (h *AchievementHandler) Players(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT uuid, player_name, total_points, unlocked_count, last_synced_at
		FROM achievement_player
		ORDER BY total_points DESC, uuid
	`)
	if err != nil {
		slog.Error("failed to query achievement players", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	players := []models.AchievementPlayerListEntry{}
	for rows.Next() {
		var entry models.AchievementPlayerListEntry
		var lastSynced time.Time
		if err := rows.Scan(&entry.PlayerUUID, &entry.PlayerName, &entry.TotalPoints, &entry.Unlocked, &lastSynced); err != nil {
			slog.Error("failed to scan achievement player", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		entry.LastSynced = lastSynced.UnixMilli()
		players = append(players, entry)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate achievement players", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.AchievementPlayersResponse{
		Players: players,
		Count:   len(players),
	})
}

func millisToTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
