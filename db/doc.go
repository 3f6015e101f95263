// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - pool_submission: One loot pool / gambit submission per submitter per period
  - pool_approved: The approved pool for a (family, subject, period)
  - verified_user: Trusted submitters who bypass quorum
  - personal_aspect: Per-player aspect counts
  - mod_user: Mod users tracked via heartbeat
  - achievement_player: Per-player achievement summary
  - player_achievement: Individual achievement records

# Portability

The server runs against sqlite (modernc.org/sqlite, the default) or
postgres (lib/pq). The DDL sticks to the common dialect, and all queries
use sequential $1..$n placeholders, which both drivers bind positionally.
Timestamps are set by the application rather than database defaults.

# Keys

pool_approved is keyed (family, subject, period): at most one approved
pool per period. pool_submission is indexed but NOT unique on
(family, subject, period, submitted_by) - historical data contains
duplicate rows from before per-submitter upserts existed, and the
consensus engine collapses them to the most recent on write.
*/
package db
