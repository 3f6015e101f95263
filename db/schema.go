// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The DDL is restricted to the dialect both sqlite and postgres accept:
// no serial columns, no database-side timestamp defaults. Timestamps are
// always set by the application.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Loot pool / gambit submissions. One row per submitter per subject per
-- period is the invariant; legacy duplicates are tolerated and repaired
-- at write time, so the submitter index is deliberately non-unique.
CREATE TABLE IF NOT EXISTS pool_submission (
    id TEXT PRIMARY KEY,
    family TEXT NOT NULL,
    subject TEXT NOT NULL,
    period TEXT NOT NULL,
    submitted_by TEXT NOT NULL,
    payload TEXT NOT NULL,
    submitted_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pool_submission_key ON pool_submission(family, subject, period, submitted_by);
CREATE INDEX IF NOT EXISTS idx_pool_submission_period ON pool_submission(family, subject, period);

-- Approved pools, at most one per (family, subject, period).
CREATE TABLE IF NOT EXISTS pool_approved (
    family TEXT NOT NULL,
    subject TEXT NOT NULL,
    period TEXT NOT NULL,
    payload TEXT NOT NULL,
    agree_count INTEGER NOT NULL,
    locked BOOLEAN NOT NULL,
    approved_at TIMESTAMP NOT NULL,
    PRIMARY KEY (family, subject, period)
);

-- Trusted submitters, synced from the verified users file.
CREATE TABLE IF NOT EXISTS verified_user (
    username TEXT PRIMARY KEY,
    added_at TIMESTAMP NOT NULL
);

-- Per-player aspect counts.
CREATE TABLE IF NOT EXISTS personal_aspect (
    player_uuid TEXT NOT NULL,
    aspect_name TEXT NOT NULL,
    player_name TEXT NOT NULL,
    rarity TEXT NOT NULL,
    amount INTEGER NOT NULL,
    mod_version TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (player_uuid, aspect_name)
);

CREATE INDEX IF NOT EXISTS idx_personal_aspect_player ON personal_aspect(player_uuid);

-- Mod users, registered and refreshed via heartbeat.
CREATE TABLE IF NOT EXISTS mod_user (
    uuid TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    mod_version TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    last_seen TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mod_user_last_seen ON mod_user(last_seen);

-- Achievement summary per player.
CREATE TABLE IF NOT EXISTS achievement_player (
    uuid TEXT PRIMARY KEY,
    player_name TEXT NOT NULL,
    total_points INTEGER NOT NULL,
    unlocked_count INTEGER NOT NULL,
    gold_count INTEGER NOT NULL,
    silver_count INTEGER NOT NULL,
    bronze_count INTEGER NOT NULL,
    mod_version TEXT NOT NULL,
    last_synced_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Individual achievement records.
CREATE TABLE IF NOT EXISTS player_achievement (
    player_uuid TEXT NOT NULL,
    achievement_id TEXT NOT NULL,
    category TEXT NOT NULL,
    progress INTEGER NOT NULL,
    tier TEXT,
    unlocked BOOLEAN NOT NULL,
    unlocked_at TIMESTAMP,
    tier_upgraded_at TIMESTAMP,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (player_uuid, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_player_achievement_player ON player_achievement(player_uuid);
`
