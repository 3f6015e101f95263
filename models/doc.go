// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - LootPoolSubmissionRequest: aspects ([]Aspect)
  - LootrunSubmissionRequest: items ([]LootItem)
  - GambitSubmissionRequest: gambits ([]Gambit)
  - HeartbeatRequest: modVersion
  - AspectUploadRequest: playerName, modVersion, aspects
  - AchievementSyncRequest: modVersion, achievements

# Response Types

Submission endpoints answer with a status envelope:

	{"status": "approved", "message": "...", "lootPool": {...}}
	{"status": "submitted", "message": "Waiting for more confirmations."}

GET endpoints return the bare pool shape (LootPoolResponse,
LootrunPoolResponse, GambitsResponse) so clients parse the same
structure they submitted.

# Status Constants

	StatusApproved  = "approved"
	StatusSubmitted = "submitted"
	StatusSuccess   = "success"
	StatusError     = "error"

# Timestamps

Responses aimed at the mod client use epoch milliseconds (the client is
Java); internal types use time.Time.
*/
package models
