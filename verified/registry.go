// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package verified

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Registry is the allowlist of submitters whose loot pool submissions
// bypass quorum counting. The source of truth is a newline-delimited
// file; Load syncs it into the verified_user table so membership checks
// are a simple indexed lookup and the list survives restarts even if the
// file goes missing.
type Registry struct {
	db   *sql.DB
	path string
}

func NewRegistry(db *sql.DB, path string) *Registry {
	return &Registry{db: db, path: path}
}

// Load reads the verified users file and syncs it to the database:
// usernames in the file are added, usernames no longer in the file are
// removed. Lines are trimmed and lowercased; empty lines and # comments
// are skipped. A missing file is logged and leaves the table untouched.
func (r *Registry) Load(ctx context.Context) error {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("verified users file not found", "path", r.path)
			return nil
		}
		return fmt.Errorf("failed to open verified users file: %w", err)
	}
	defer f.Close()

	fileUsers := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fileUsers[strings.ToLower(line)] = true
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read verified users file: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT username FROM verified_user`)
	if err != nil {
		return fmt.Errorf("failed to query verified users: %w", err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan verified user: %w", err)
		}
		existing[username] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate verified users: %w", err)
	}

	added, removed := 0, 0
	for username := range fileUsers {
		if existing[username] {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO verified_user (username, added_at)
			VALUES ($1, $2)
		`, username, time.Now())
		if err != nil {
			return fmt.Errorf("failed to add verified user %s: %w", username, err)
		}
		added++
	}
	for username := range existing {
		if fileUsers[username] {
			continue
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM verified_user WHERE username = $1`, username)
		if err != nil {
			return fmt.Errorf("failed to remove verified user %s: %w", username, err)
		}
		removed++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verified user sync: %w", err)
	}

	slog.Info("verified users loaded",
		"total", len(fileUsers), "added", added, "removed", removed)
	return nil
}

// IsVerified reports whether username is on the allowlist.
// Case-insensitive: usernames are stored lowercase.
func (r *Registry) IsVerified(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM verified_user WHERE username = $1)
	`, strings.ToLower(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check verified user: %w", err)
	}
	return exists, nil
}

// Count returns the number of verified users.
func (r *Registry) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verified_user`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count verified users: %w", err)
	}
	return count, nil
}
